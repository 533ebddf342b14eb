// CLAUDE:SUMMARY Capture event envelope shared by the HTTP ingest, the spool watcher and replay, with JSON-lines decoding.
// Package ingest feeds capture events to the recorder over HTTP or from a
// spool directory of JSON-lines files.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hazyhaar/srkit/srwatch/internal/processor"
	"github.com/hazyhaar/srkit/srwatch/internal/rumctx"
)

var (
	// ErrUnknownEventKind is returned for an event whose kind is not
	// snapshot, touch or resource.
	ErrUnknownEventKind = errors.New("ingest: unknown event kind")
	// ErrInvalidEvent is returned for an event missing its payload.
	ErrInvalidEvent = errors.New("ingest: invalid event")
)

// Kind discriminates capture events.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindTouch    Kind = "touch"
	KindResource Kind = "resource"
)

// Event is one capture event as produced by a device. Context is the view
// context reported at capture time. Timestamp, in device milliseconds, is
// only used when replaying captures.
type Event struct {
	Kind      Kind                `json:"kind"`
	Timestamp int64               `json:"timestamp,omitempty"`
	Context   rumctx.Context      `json:"context"`
	Screen    *processor.Screen   `json:"screen,omitempty"`
	Touches   []processor.Touch   `json:"touches,omitempty"`
	Resource  *processor.Resource `json:"resource,omitempty"`
}

// Validate checks the kind and that the matching payload is present.
func (e Event) Validate() error {
	switch e.Kind {
	case KindSnapshot:
		if e.Screen == nil {
			return fmt.Errorf("%w: snapshot without screen", ErrInvalidEvent)
		}
	case KindTouch:
		if len(e.Touches) == 0 {
			return fmt.Errorf("%w: touch without touches", ErrInvalidEvent)
		}
	case KindResource:
		if e.Resource == nil {
			return fmt.Errorf("%w: resource without payload", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, e.Kind)
	}
	return nil
}

// Submitter accepts validated events. The recorder implements it.
type Submitter interface {
	Submit(ev Event) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ev Event) error

func (f SubmitterFunc) Submit(ev Event) error { return f(ev) }

// DecodeEvents reads a JSON-lines capture. Blank lines are skipped.
func DecodeEvents(r io.Reader) ([]Event, error) {
	var out []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64<<20)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		ev, err := decodeEvent(b)
		if err != nil {
			return nil, fmt.Errorf("ingest: line %d: %w", line, err)
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ingest: read: %w", err)
	}
	return out, nil
}

func decodeEvent(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, err
	}
	return ev, ev.Validate()
}

// decodeBody accepts a single event object or a JSON array of events.
func decodeBody(b []byte) ([]Event, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var evs []Event
		if err := json.Unmarshal(b, &evs); err != nil {
			return nil, err
		}
		for i := range evs {
			if err := evs[i].Validate(); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		}
		return evs, nil
	}
	ev, err := decodeEvent(b)
	if err != nil {
		return nil, err
	}
	return []Event{ev}, nil
}
