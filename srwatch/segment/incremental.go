package segment

import (
	"encoding/json"
	"fmt"
)

// IncrementalSource identifies the variant of an incremental record payload.
type IncrementalSource int

const (
	SourceMutation           IncrementalSource = 0
	SourceViewportResize     IncrementalSource = 4
	SourcePointerInteraction IncrementalSource = 9
)

// IncrementalData is the payload of an IncrementalSnapshotRecord:
// MutationData, ViewportResizeData or PointerInteractionData.
type IncrementalData interface {
	Source() IncrementalSource
}

type ViewportResizeData struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

func (ViewportResizeData) Source() IncrementalSource { return SourceViewportResize }

func (d ViewportResizeData) MarshalJSON() ([]byte, error) {
	type plain ViewportResizeData
	return json.Marshal(struct {
		Source IncrementalSource `json:"source"`
		plain
	}{SourceViewportResize, plain(d)})
}

// PointerInteractionData is a touch event forwarded verbatim from the host.
type PointerInteractionData struct {
	PointerEventType string  `json:"pointerEventType"` // down | up | move
	PointerType      string  `json:"pointerType"`
	PointerID        int64   `json:"pointerId"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
}

func (PointerInteractionData) Source() IncrementalSource { return SourcePointerInteraction }

func (d PointerInteractionData) MarshalJSON() ([]byte, error) {
	type plain PointerInteractionData
	return json.Marshal(struct {
		Source IncrementalSource `json:"source"`
		plain
	}{SourcePointerInteraction, plain(d)})
}

// DecodeIncrementalData decodes an incremental payload by its "source" field.
func DecodeIncrementalData(data []byte) (IncrementalData, error) {
	var head struct {
		Source *IncrementalSource `json:"source"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("segment: decode incremental data: %w", err)
	}
	if head.Source == nil {
		return nil, fmt.Errorf("segment: incremental data without source")
	}
	switch *head.Source {
	case SourceMutation:
		var d MutationData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("segment: decode mutation data: %w", err)
		}
		return d, nil
	case SourceViewportResize:
		var d ViewportResizeData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("segment: decode viewport resize: %w", err)
		}
		return d, nil
	case SourcePointerInteraction:
		var d PointerInteractionData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("segment: decode pointer interaction: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("segment: unknown incremental source %d", int(*head.Source))
	}
}
