// CLAUDE:SUMMARY Writes enriched records and resources as JSON lines to an io.Writer (defaults to stdout).
package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) WriteRecord(_ context.Context, rec segment.EnrichedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "record", Data: rec})
}

func (s *Stdout) WriteResource(_ context.Context, res segment.EnrichedResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "resource", Data: resourceJSON{
		ApplicationID: res.ApplicationID,
		Filename:      res.Filename,
		Data:          res.Resource,
	}})
}

func (s *Stdout) Close() error { return nil }
