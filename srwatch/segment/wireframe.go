// Package segment defines the session-replay wire contract emitted by srwatch.
// Any consumer (upload sinks, replay tooling, tests) imports this package to
// build, inspect or decode wireframes, mutations and records.
package segment

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Kind is the wireframe variant tag.
type Kind string

const (
	KindShape       Kind = "shape"
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindPlaceholder Kind = "placeholder"
	KindWebview     Kind = "webview"
)

// Clip holds the inward offsets applied to each side of a wireframe.
// An absent side is a zero offset.
type Clip struct {
	Top    int64 `json:"top"`
	Bottom int64 `json:"bottom"`
	Left   int64 `json:"left"`
	Right  int64 `json:"right"`
}

// IsZero reports whether no side is clipped.
func (c Clip) IsZero() bool {
	return c.Top == 0 && c.Bottom == 0 && c.Left == 0 && c.Right == 0
}

// Border is a solid stroke drawn around the wireframe.
type Border struct {
	Color string `json:"color"`
	Width int64  `json:"width"`
}

// ShapeStyle is the fill of a wireframe. BackgroundColor is a hex string
// (#RRGGBBAA); empty means no background.
type ShapeStyle struct {
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	Opacity         *float64 `json:"opacity,omitempty"`
	CornerRadius    *float64 `json:"cornerRadius,omitempty"`
}

type TextStyle struct {
	Family string `json:"family"`
	Size   int64  `json:"size"`
	Color  string `json:"color"`
}

type Padding struct {
	Top    int64 `json:"top,omitempty"`
	Bottom int64 `json:"bottom,omitempty"`
	Left   int64 `json:"left,omitempty"`
	Right  int64 `json:"right,omitempty"`
}

type Alignment struct {
	Horizontal string `json:"horizontal,omitempty"` // left | right | center
	Vertical   string `json:"vertical,omitempty"`   // top | bottom | center
}

type TextPosition struct {
	Padding   *Padding   `json:"padding,omitempty"`
	Alignment *Alignment `json:"alignment,omitempty"`
}

// Payload is the kind-specific part of a wireframe. The concrete types are
// ShapePayload, TextPayload, ImagePayload, PlaceholderPayload and WebviewPayload.
type Payload interface {
	Kind() Kind
}

type ShapePayload struct{}

type TextPayload struct {
	Text         string
	TextStyle    TextStyle
	TextPosition *TextPosition
}

// ImagePayload references image content either inline (Base64) or through a
// resource uploaded on the resource channel (ResourceID).
type ImagePayload struct {
	Base64     string
	ResourceID string
	MimeType   string
	IsEmpty    *bool
}

// HasContent reports whether the image references actual pixels.
func (p ImagePayload) HasContent() bool {
	return p.Base64 != "" || p.ResourceID != ""
}

type PlaceholderPayload struct {
	Label string
}

type WebviewPayload struct {
	SlotID    string
	IsVisible *bool
}

func (ShapePayload) Kind() Kind       { return KindShape }
func (TextPayload) Kind() Kind        { return KindText }
func (ImagePayload) Kind() Kind       { return KindImage }
func (PlaceholderPayload) Kind() Kind { return KindPlaceholder }
func (WebviewPayload) Kind() Kind     { return KindWebview }

// Wireframe is one paint primitive of a captured screen. ID is stable across
// snapshots and unique within one flattened snapshot. A nil Payload is a shape.
type Wireframe struct {
	ID         int64
	X          int64
	Y          int64
	Width      int64
	Height     int64
	Clip       *Clip
	Border     *Border
	ShapeStyle *ShapeStyle
	Payload    Payload
}

// Kind returns the variant tag of the wireframe.
func (w Wireframe) Kind() Kind {
	if w.Payload == nil {
		return KindShape
	}
	return w.Payload.Kind()
}

// Equal compares two wireframes field by field, payload included.
func (w Wireframe) Equal(o Wireframe) bool {
	return reflect.DeepEqual(w.normalized(), o.normalized())
}

func (w Wireframe) normalized() Wireframe {
	switch p := w.Payload.(type) {
	case nil:
		w.Payload = ShapePayload{}
	case *ShapePayload:
		w.Payload = ShapePayload{}
	case *TextPayload:
		w.Payload = *p
	case *ImagePayload:
		w.Payload = *p
	case *PlaceholderPayload:
		w.Payload = *p
	case *WebviewPayload:
		w.Payload = *p
	}
	// placeholders carry no style on the wire
	if _, ok := w.Payload.(PlaceholderPayload); ok {
		w.ShapeStyle, w.Border = nil, nil
	}
	return w
}

// Text returns the text payload when the wireframe is a text wireframe.
func (w Wireframe) Text() (TextPayload, bool) {
	p, ok := w.normalized().Payload.(TextPayload)
	return p, ok
}

// Image returns the image payload when the wireframe is an image wireframe.
func (w Wireframe) Image() (ImagePayload, bool) {
	p, ok := w.normalized().Payload.(ImagePayload)
	return p, ok
}

// Placeholder returns the placeholder payload when the wireframe is a placeholder.
func (w Wireframe) Placeholder() (PlaceholderPayload, bool) {
	p, ok := w.normalized().Payload.(PlaceholderPayload)
	return p, ok
}

// Webview returns the webview payload when the wireframe is a webview slot.
func (w Wireframe) Webview() (WebviewPayload, bool) {
	p, ok := w.normalized().Payload.(WebviewPayload)
	return p, ok
}

// WithClip returns a copy of w carrying the given clip.
func (w Wireframe) WithClip(c *Clip) Wireframe {
	w.Clip = c
	return w
}

// Ptr returns a pointer to v. Handy for optional fields.
func Ptr[T any](v T) *T { return &v }

// wireframeJSON is the flat wire shape shared by every kind.
type wireframeJSON struct {
	ID           int64         `json:"id"`
	X            int64         `json:"x"`
	Y            int64         `json:"y"`
	Width        int64         `json:"width"`
	Height       int64         `json:"height"`
	Clip         *Clip         `json:"clip,omitempty"`
	Type         Kind          `json:"type"`
	ShapeStyle   *ShapeStyle   `json:"shapeStyle,omitempty"`
	Border       *Border       `json:"border,omitempty"`
	Text         *string       `json:"text,omitempty"`
	TextStyle    *TextStyle    `json:"textStyle,omitempty"`
	TextPosition *TextPosition `json:"textPosition,omitempty"`
	Base64       string        `json:"base64,omitempty"`
	ResourceID   string        `json:"resourceId,omitempty"`
	MimeType     string        `json:"mimeType,omitempty"`
	IsEmpty      *bool         `json:"isEmpty,omitempty"`
	Label        string        `json:"label,omitempty"`
	SlotID       string        `json:"slotId,omitempty"`
	IsVisible    *bool         `json:"isVisible,omitempty"`
}

func (w Wireframe) MarshalJSON() ([]byte, error) {
	out := wireframeJSON{
		ID:         w.ID,
		X:          w.X,
		Y:          w.Y,
		Width:      w.Width,
		Height:     w.Height,
		Clip:       w.Clip,
		Type:       w.Kind(),
		ShapeStyle: w.ShapeStyle,
		Border:     w.Border,
	}
	switch p := w.normalized().Payload.(type) {
	case TextPayload:
		out.Text = Ptr(p.Text)
		out.TextStyle = Ptr(p.TextStyle)
		out.TextPosition = p.TextPosition
	case ImagePayload:
		out.Base64 = p.Base64
		out.ResourceID = p.ResourceID
		out.MimeType = p.MimeType
		out.IsEmpty = p.IsEmpty
	case PlaceholderPayload:
		// placeholders carry no style
		out.ShapeStyle = nil
		out.Border = nil
		out.Label = p.Label
	case WebviewPayload:
		out.SlotID = p.SlotID
		out.IsVisible = p.IsVisible
	}
	return json.Marshal(out)
}

func (w *Wireframe) UnmarshalJSON(data []byte) error {
	var in wireframeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*w = Wireframe{
		ID:         in.ID,
		X:          in.X,
		Y:          in.Y,
		Width:      in.Width,
		Height:     in.Height,
		Clip:       in.Clip,
		Border:     in.Border,
		ShapeStyle: in.ShapeStyle,
	}
	switch in.Type {
	case KindShape, "":
	case KindText:
		p := TextPayload{TextPosition: in.TextPosition}
		if in.Text != nil {
			p.Text = *in.Text
		}
		if in.TextStyle != nil {
			p.TextStyle = *in.TextStyle
		}
		w.Payload = p
	case KindImage:
		w.Payload = ImagePayload{
			Base64:     in.Base64,
			ResourceID: in.ResourceID,
			MimeType:   in.MimeType,
			IsEmpty:    in.IsEmpty,
		}
	case KindPlaceholder:
		w.Payload = PlaceholderPayload{Label: in.Label}
	case KindWebview:
		w.Payload = WebviewPayload{SlotID: in.SlotID, IsVisible: in.IsVisible}
	default:
		return fmt.Errorf("segment: unknown wireframe type %q", in.Type)
	}
	return nil
}
