// CLAUDE:SUMMARY Mutation resolver: turns two ordered wireframe snapshots into adds, removes and per-field updates.
// Package diff computes the mutation set that transforms the previous
// flattened snapshot of a view into the current one.
package diff

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Resolver computes mutation sets. It holds no per-view state and is safe
// for concurrent use when its logger is.
type Resolver struct {
	log ilog.Logger
}

// New creates a Resolver reporting kind mismatches to log (ilog.Discard when nil).
func New(log ilog.Logger) *Resolver {
	if log == nil {
		log = ilog.Discard
	}
	return &Resolver{log: log}
}

const noPred int64 = -1 << 63

// Resolve returns the mutations turning previous into current, or nil when
// the two snapshots are identical.
//
// Ids kept in place whose properties changed become one Update each. Ids
// whose nearest surviving predecessor changed are removed and added again.
// Every add is anchored on the nearest preceding id that stays in place, so
// adds sharing an anchor must be applied last to first (see Apply).
func (r *Resolver) Resolve(previous, current []segment.Wireframe) *segment.MutationData {
	prevByID := make(map[int64]segment.Wireframe, len(previous))
	prevPos := make(map[int64]int, len(previous))
	for i, w := range previous {
		prevByID[w.ID] = w
		prevPos[w.ID] = i
	}
	inCurrent := make(map[int64]struct{}, len(current))
	for _, w := range current {
		inCurrent[w.ID] = struct{}{}
	}

	moved := movedIDs(previous, current, prevPos, inCurrent)

	var out segment.MutationData

	for _, w := range previous {
		_, kept := inCurrent[w.ID]
		if !kept || moved[w.ID] {
			out.Removes = append(out.Removes, segment.Remove{ID: w.ID})
		}
	}

	var anchor *int64
	for _, w := range current {
		_, existed := prevByID[w.ID]
		if !existed || moved[w.ID] {
			add := segment.Add{Wireframe: w}
			if anchor != nil {
				add.PreviousID = segment.Ptr(*anchor)
			}
			out.Adds = append(out.Adds, add)
			continue
		}
		anchor = segment.Ptr(w.ID)
	}

	for _, w := range current {
		prev, existed := prevByID[w.ID]
		if !existed || moved[w.ID] || prev.Equal(w) {
			continue
		}
		if prev.Kind() != w.Kind() {
			r.log.Log(slog.LevelError, ilog.Maintainer|ilog.Telemetry, func() string {
				return fmt.Sprintf("diff: wireframe of type [%s] is not matching the wireframe of type [%s]",
					w.Kind(), prev.Kind())
			}, ilog.WithProps(map[string]any{"wireframe_id": w.ID}))
			continue
		}
		out.Updates = append(out.Updates, buildUpdate(prev, w))
	}

	if out.IsEmpty() {
		return nil
	}
	return &out
}

// movedIDs marks survivors whose nearest surviving predecessor differs
// between the two lists. A second pass marks any remaining survivor that
// would break the common relative order of the in-place ids.
func movedIDs(previous, current []segment.Wireframe, prevPos map[int64]int, inCurrent map[int64]struct{}) map[int64]bool {
	prevPred := make(map[int64]int64, len(previous))
	last := noPred
	for _, w := range previous {
		if _, ok := inCurrent[w.ID]; !ok {
			continue
		}
		prevPred[w.ID] = last
		last = w.ID
	}

	moved := make(map[int64]bool)
	last = noPred
	for _, w := range current {
		p, ok := prevPred[w.ID]
		if !ok {
			continue
		}
		if p != last {
			moved[w.ID] = true
		}
		last = w.ID
	}

	high := -1
	for _, w := range current {
		pos, ok := prevPos[w.ID]
		if !ok || moved[w.ID] {
			continue
		}
		if pos < high {
			moved[w.ID] = true
			continue
		}
		high = pos
	}
	return moved
}
