// Package rumctx resolves the application/session/view identity attached to
// every capture event and tracks view transitions between events.
package rumctx

import (
	"sync"
	"time"
)

// Context identifies the view a capture belongs to.
type Context struct {
	ApplicationID    string `json:"application_id"`
	SessionID        string `json:"session_id"`
	ViewID           string `json:"view_id"`
	ViewTimeOffsetMs int64  `json:"view_time_offset_ms,omitempty"`
}

// IsValid reports whether all three identifiers are set.
func (c Context) IsValid() bool {
	return c.ApplicationID != "" && c.SessionID != "" && c.ViewID != ""
}

// SameView reports whether c and o address the same view.
func (c Context) SameView(o Context) bool {
	return c.ApplicationID == o.ApplicationID && c.SessionID == o.SessionID && c.ViewID == o.ViewID
}

// Recorded is a context stamped with the capture time in milliseconds,
// already corrected by the view time offset.
type Recorded struct {
	Timestamp int64
	Context
}

// Provider returns the context of the view currently displayed.
type Provider interface {
	CurrentContext() Context
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() Context

func (f ProviderFunc) CurrentContext() Context { return f() }

// ReportedProvider holds the context last reported by the host. Ingest
// handlers Set it before enqueueing the event captured under it.
type ReportedProvider struct {
	mu  sync.RWMutex
	ctx Context
}

func (p *ReportedProvider) Set(c Context) {
	p.mu.Lock()
	p.ctx = c
	p.mu.Unlock()
}

func (p *ReportedProvider) CurrentContext() Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctx
}

// Clock supplies the two time bases used by the recorder: a monotonic
// nanosecond counter for intervals and the device wall clock for timestamps.
type Clock interface {
	NowNanos() int64
	DeviceTimestampMillis() int64
}

// SystemClock reads time.Now.
type SystemClock struct{}

var start = time.Now()

func (SystemClock) NowNanos() int64              { return int64(time.Since(start)) }
func (SystemClock) DeviceTimestampMillis() int64 { return time.Now().UnixMilli() }

// ManualClock is a Clock advanced by hand.
type ManualClock struct {
	mu     sync.Mutex
	nanos  int64
	millis int64
}

// NewManualClock starts both time bases at the given wall time.
func NewManualClock(wallMillis int64) *ManualClock {
	return &ManualClock{millis: wallMillis}
}

// Advance moves both time bases forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.nanos += int64(d)
	c.millis += d.Milliseconds()
	c.mu.Unlock()
}

// AdvanceTo moves the wall clock to wallMillis and the monotonic counter by
// the same amount. Earlier times are ignored.
func (c *ManualClock) AdvanceTo(wallMillis int64) {
	c.mu.Lock()
	if d := wallMillis - c.millis; d > 0 {
		c.millis = wallMillis
		c.nanos += int64(time.Duration(d) * time.Millisecond)
	}
	c.mu.Unlock()
}

func (c *ManualClock) NowNanos() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nanos
}

func (c *ManualClock) DeviceTimestampMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.millis
}
