package rumctx

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
)

// Transition pairs the context of the current event with the last valid
// context seen before it. Previous is nil until one valid context was seen.
// CaptureNanos is the monotonic clock reading taken when the event was
// resolved, not when it is processed.
type Transition struct {
	Current      Recorded
	Previous     *Recorded
	CaptureNanos int64
}

// ViewChanged reports whether the event belongs to another view than the
// previous one.
func (t Transition) ViewChanged() bool {
	return t.Previous != nil && !t.Previous.SameView(t.Current.Context)
}

// Tracker resolves the context of each capture event and remembers the last
// valid one. Invalid contexts are reported and never replace it.
type Tracker struct {
	provider Provider
	clock    Clock
	log      ilog.Logger

	mu   sync.Mutex
	prev *Recorded
}

// NewTracker creates a Tracker. A nil clock uses SystemClock, a nil log drops
// diagnostics.
func NewTracker(p Provider, c Clock, log ilog.Logger) *Tracker {
	if c == nil {
		c = SystemClock{}
	}
	if log == nil {
		log = ilog.Discard
	}
	return &Tracker{provider: p, clock: c, log: log}
}

// Next resolves the current context. It returns false when one of the
// identifiers is missing; the caller must then drop the event.
func (t *Tracker) Next() (Transition, bool) {
	c := t.provider.CurrentContext()
	if !c.IsValid() {
		t.log.Log(slog.LevelError, ilog.Maintainer, func() string {
			return fmt.Sprintf("rumctx: invalid context (application=%q session=%q view=%q), event dropped",
				c.ApplicationID, c.SessionID, c.ViewID)
		})
		return Transition{}, false
	}
	cur := Recorded{
		Timestamp: t.clock.DeviceTimestampMillis() + c.ViewTimeOffsetMs,
		Context:   c,
	}
	nanos := t.clock.NowNanos()

	t.mu.Lock()
	tr := Transition{Current: cur, Previous: t.prev, CaptureNanos: nanos}
	t.prev = &cur
	t.mu.Unlock()
	return tr, true
}

// Previous returns the last valid context resolved by Next.
func (t *Tracker) Previous() (Recorded, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prev == nil {
		return Recorded{}, false
	}
	return *t.prev, true
}
