// Package ilog is the internal diagnostics logger of the recording core.
//
// Messages are built lazily, addressed to one or more audiences (Target) and
// can be deduplicated for the lifetime of the logger. The slog-backed
// implementation renders everything as structured attributes.
package ilog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Target is a bitmask of the audiences a message is meant for.
type Target uint8

const (
	Maintainer Target = 1 << iota
	Telemetry
	User
)

func (t Target) String() string {
	var parts []string
	if t&Maintainer != 0 {
		parts = append(parts, "maintainer")
	}
	if t&Telemetry != 0 {
		parts = append(parts, "telemetry")
	}
	if t&User != 0 {
		parts = append(parts, "user")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Logger accepts internal diagnostics.
type Logger interface {
	Log(level slog.Level, target Target, msg func() string, opts ...Option)
}

type entry struct {
	err   error
	once  bool
	props map[string]any
}

// Option decorates one log call.
type Option func(*entry)

// WithError attaches an error to the message.
func WithError(err error) Option {
	return func(e *entry) { e.err = err }
}

// Once logs the message only the first time its rendered text is seen.
func Once() Option {
	return func(e *entry) { e.once = true }
}

// WithProps attaches structured properties.
func WithProps(props map[string]any) Option {
	return func(e *entry) { e.props = props }
}

// Discard drops every message.
var Discard Logger = discard{}

type discard struct{}

func (discard) Log(slog.Level, Target, func() string, ...Option) {}

// SlogLogger writes diagnostics to a *slog.Logger.
type SlogLogger struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// New returns a Logger backed by logger, or slog.Default() when nil.
func New(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger, seen: make(map[string]struct{})}
}

func (l *SlogLogger) Log(level slog.Level, target Target, msg func() string, opts ...Option) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	var e entry
	for _, o := range opts {
		o(&e)
	}
	text := msg()
	if e.once {
		key := target.String() + "\x00" + text
		l.mu.Lock()
		_, dup := l.seen[key]
		if !dup {
			l.seen[key] = struct{}{}
		}
		l.mu.Unlock()
		if dup {
			return
		}
	}

	attrs := []slog.Attr{slog.String("target", target.String())}
	if e.err != nil {
		attrs = append(attrs, slog.String("error", e.err.Error()))
	}
	if len(e.props) > 0 {
		keys := make([]string, 0, len(e.props))
		for k := range e.props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			attrs = append(attrs, slog.Any(k, e.props[k]))
		}
	}
	l.logger.LogAttrs(context.Background(), level, text, attrs...)
}
