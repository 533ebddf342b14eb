// Package sink defines output backends for srwatch records and resources.
package sink

import (
	"context"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Sink is the output interface. Implementations deliver enriched records
// and resources to different backends (stdout, webhook, sqlite, in-process
// callback).
type Sink interface {
	WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error
	WriteResource(ctx context.Context, res segment.EnrichedResource) error
	Close() error
}

// envelope is the JSON line / webhook body shared by the text sinks.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// resourceJSON is the JSON shape of a resource: metadata plus base64 bytes.
type resourceJSON struct {
	ApplicationID string `json:"application_id"`
	Filename      string `json:"filename"`
	Data          []byte `json:"data"`
}
