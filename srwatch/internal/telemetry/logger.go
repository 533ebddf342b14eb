package telemetry

import (
	"log/slog"
	"time"

	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
)

// Logger is an ilog.Logger that records messages addressed to
// ilog.Telemetry and ignores the rest. Combine it with ilog.Tee.
type Logger struct {
	store *Store
	now   func() time.Time
}

// NewLogger returns a Logger writing to store.
func NewLogger(store *Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

func (l *Logger) Log(level slog.Level, target ilog.Target, msg func() string, opts ...ilog.Option) {
	if target&ilog.Telemetry == 0 {
		return
	}
	e := ilog.NewEntry(level, target, msg(), opts...)
	ev := Event{Timestamp: l.now(), Level: level, Message: e.Message, Props: e.Props}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	l.store.Record(ev)
}
