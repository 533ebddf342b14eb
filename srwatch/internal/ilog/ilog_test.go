package ilog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newJSON(buf *bytes.Buffer, level slog.Level) *SlogLogger {
	return New(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})))
}

func TestSlogLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, slog.LevelDebug)

	l.Log(slog.LevelError, Maintainer|Telemetry, func() string { return "boom" },
		WithError(errors.New("cause")),
		WithProps(map[string]any{"view_id": "v1"}))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if m["msg"] != "boom" {
		t.Errorf("msg: got %v, want boom", m["msg"])
	}
	if m["target"] != "maintainer|telemetry" {
		t.Errorf("target: got %v, want maintainer|telemetry", m["target"])
	}
	if m["error"] != "cause" {
		t.Errorf("error: got %v, want cause", m["error"])
	}
	if m["view_id"] != "v1" {
		t.Errorf("view_id: got %v, want v1", m["view_id"])
	}
}

func TestSlogLoggerOnce(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, slog.LevelDebug)
	for range 3 {
		l.Log(slog.LevelWarn, Maintainer, func() string { return "same" }, Once())
	}
	l.Log(slog.LevelWarn, Maintainer, func() string { return "other" }, Once())

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("lines: got %d, want 2 (%s)", lines, buf.String())
	}
}

func TestSlogLoggerLazyMessage(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, slog.LevelError)
	called := false
	l.Log(slog.LevelDebug, Maintainer, func() string { called = true; return "x" })
	if called {
		t.Error("message built for a disabled level")
	}
	if buf.Len() != 0 {
		t.Errorf("output: got %q, want empty", buf.String())
	}
}

func TestCapture(t *testing.T) {
	var c Capture
	c.Log(slog.LevelError, Maintainer, func() string { return "a" })
	c.Log(slog.LevelWarn, Telemetry, func() string { return "b" }, Once())
	if c.Count(slog.LevelError) != 1 {
		t.Errorf("errors: got %d, want 1", c.Count(slog.LevelError))
	}
	es := c.Entries()
	if len(es) != 2 || !es[1].Once || es[1].Target != Telemetry {
		t.Errorf("entries: got %+v", es)
	}
}

func TestTargetString(t *testing.T) {
	if got := Target(0).String(); got != "none" {
		t.Errorf("zero: got %q, want none", got)
	}
	if got := (Maintainer | User).String(); got != "maintainer|user" {
		t.Errorf("mask: got %q, want maintainer|user", got)
	}
}

func TestTeeRendersOnce(t *testing.T) {
	var a, b Capture
	calls := 0
	Tee(&a, &b, Discard).Log(slog.LevelWarn, Telemetry, func() string {
		calls++
		return "dropped"
	}, WithProps(map[string]any{"n": 1}))

	if calls != 1 {
		t.Errorf("message renders: got %d, want 1", calls)
	}
	for _, c := range []*Capture{&a, &b} {
		e := c.Entries()
		if len(e) != 1 || e[0].Message != "dropped" || e[0].Props["n"] != 1 {
			t.Errorf("entries: got %+v", e)
		}
	}
}
