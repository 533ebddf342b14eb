package ilog

import (
	"log/slog"
	"sync"
)

// Entry is one message kept by Capture.
type Entry struct {
	Level   slog.Level
	Target  Target
	Message string
	Err     error
	Once    bool
	Props   map[string]any
}

// NewEntry renders one log call.
func NewEntry(level slog.Level, target Target, msg string, opts ...Option) Entry {
	var e entry
	for _, o := range opts {
		o(&e)
	}
	return Entry{Level: level, Target: target, Message: msg, Err: e.err, Once: e.once, Props: e.props}
}

// Capture keeps every message in memory.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
}

func (c *Capture) Log(level slog.Level, target Target, msg func() string, opts ...Option) {
	e := NewEntry(level, target, msg(), opts...)
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

// Entries returns a copy of the captured messages.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Count returns the number of captured messages at the given level.
func (c *Capture) Count(level slog.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

type tee []Logger

// Tee sends every message to all loggers.
func Tee(loggers ...Logger) Logger { return tee(loggers) }

func (t tee) Log(level slog.Level, target Target, msg func() string, opts ...Option) {
	var text string
	rendered := false
	render := func() string {
		if !rendered {
			text, rendered = msg(), true
		}
		return text
	}
	for _, l := range t {
		l.Log(level, target, render, opts...)
	}
}
