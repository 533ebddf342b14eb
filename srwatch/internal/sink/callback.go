// CLAUDE:SUMMARY In-process callback sink delivering records and resources via Go function calls with zero serialization.
package sink

import (
	"context"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// RecordFunc is called for each enriched record.
type RecordFunc func(ctx context.Context, rec segment.EnrichedRecord) error

// ResourceFunc is called for each resource.
type ResourceFunc func(ctx context.Context, res segment.EnrichedResource) error

// Callback delivers records via Go function calls, for hosts embedding the
// recorder in the same binary as their uploader.
type Callback struct {
	onRecord   RecordFunc
	onResource ResourceFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onRecord RecordFunc, onResource ResourceFunc) *Callback {
	return &Callback{onRecord: onRecord, onResource: onResource}
}

func (c *Callback) WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error {
	if c.onRecord != nil {
		return c.onRecord(ctx, rec)
	}
	return nil
}

func (c *Callback) WriteResource(ctx context.Context, res segment.EnrichedResource) error {
	if c.onResource != nil {
		return c.onResource(ctx, res)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
