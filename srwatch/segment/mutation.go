// CLAUDE:SUMMARY Defines Add/Remove/Update mutations and the MutationData incremental payload.
package segment

import "encoding/json"

// Add inserts Wireframe right after the wireframe identified by PreviousID.
// A nil PreviousID inserts at the head of the snapshot.
type Add struct {
	PreviousID *int64    `json:"previousId,omitempty"`
	Wireframe  Wireframe `json:"wireframe"`
}

// Remove deletes the wireframe with the given id.
type Remove struct {
	ID int64 `json:"id"`
}

// Update carries only the properties of a wireframe that changed since the
// previous snapshot. Kind tells the viewer which wireframe variant to patch;
// fields that do not apply to that kind stay nil.
type Update struct {
	ID           int64         `json:"id"`
	Kind         Kind          `json:"type"`
	X            *int64        `json:"x,omitempty"`
	Y            *int64        `json:"y,omitempty"`
	Width        *int64        `json:"width,omitempty"`
	Height       *int64        `json:"height,omitempty"`
	Clip         *Clip         `json:"clip,omitempty"`
	ShapeStyle   *ShapeStyle   `json:"shapeStyle,omitempty"`
	Border       *Border       `json:"border,omitempty"`
	Text         *string       `json:"text,omitempty"`
	TextStyle    *TextStyle    `json:"textStyle,omitempty"`
	TextPosition *TextPosition `json:"textPosition,omitempty"`
	Base64       *string       `json:"base64,omitempty"`
	ResourceID   *string       `json:"resourceId,omitempty"`
	MimeType     *string       `json:"mimeType,omitempty"`
	IsEmpty      *bool         `json:"isEmpty,omitempty"`
	Label        *string       `json:"label,omitempty"`
	SlotID       *string       `json:"slotId,omitempty"`
	IsVisible    *bool         `json:"isVisible,omitempty"`
}

// MutationData is the incremental payload transforming the previous snapshot
// of a view into the current one.
type MutationData struct {
	Adds    []Add    `json:"adds"`
	Removes []Remove `json:"removes"`
	Updates []Update `json:"updates"`
}

func (MutationData) Source() IncrementalSource { return SourceMutation }

// IsEmpty reports whether the set carries no mutation at all.
func (m MutationData) IsEmpty() bool {
	return len(m.Adds) == 0 && len(m.Removes) == 0 && len(m.Updates) == 0
}

func (m MutationData) MarshalJSON() ([]byte, error) {
	if m.Adds == nil {
		m.Adds = []Add{}
	}
	if m.Removes == nil {
		m.Removes = []Remove{}
	}
	if m.Updates == nil {
		m.Updates = []Update{}
	}
	type plain MutationData
	return json.Marshal(struct {
		Source IncrementalSource `json:"source"`
		plain
	}{SourceMutation, plain(m)})
}
