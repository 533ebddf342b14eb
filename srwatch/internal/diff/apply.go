package diff

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// ErrUnknownID is returned by Apply when a mutation references an id that is
// not in the snapshot at the time it is applied.
var ErrUnknownID = errors.New("diff: unknown wireframe id")

// Apply replays m onto previous the way the viewer does: removes first, then
// adds from last to first, each inserted right after its anchor, then
// updates. A nil m returns a copy of previous.
func Apply(previous []segment.Wireframe, m *segment.MutationData) ([]segment.Wireframe, error) {
	out := slices.Clone(previous)
	if m == nil {
		return out, nil
	}

	for _, rm := range m.Removes {
		i := indexOf(out, rm.ID)
		if i < 0 {
			return nil, fmt.Errorf("diff: apply remove %d: %w", rm.ID, ErrUnknownID)
		}
		out = slices.Delete(out, i, i+1)
	}

	for i := len(m.Adds) - 1; i >= 0; i-- {
		add := m.Adds[i]
		at := 0
		if add.PreviousID != nil {
			j := indexOf(out, *add.PreviousID)
			if j < 0 {
				return nil, fmt.Errorf("diff: apply add %d after %d: %w", add.Wireframe.ID, *add.PreviousID, ErrUnknownID)
			}
			at = j + 1
		}
		out = slices.Insert(out, at, add.Wireframe)
	}

	for _, u := range m.Updates {
		i := indexOf(out, u.ID)
		if i < 0 {
			return nil, fmt.Errorf("diff: apply update %d: %w", u.ID, ErrUnknownID)
		}
		out[i] = patch(out[i], u)
	}
	return out, nil
}

func indexOf(ws []segment.Wireframe, id int64) int {
	return slices.IndexFunc(ws, func(w segment.Wireframe) bool { return w.ID == id })
}
