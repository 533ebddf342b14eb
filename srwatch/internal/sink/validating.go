package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// RecordValidator checks an enriched record before it leaves the process.
// *schema.Validator implements it.
type RecordValidator interface {
	ValidateRecord(rec segment.EnrichedRecord) error
}

// Validating rejects records that do not match the wire schema instead of
// forwarding them. Resources pass through.
type Validating struct {
	next      Sink
	validator RecordValidator
	logger    *slog.Logger
}

// NewValidating wraps next.
func NewValidating(next Sink, v RecordValidator, logger *slog.Logger) *Validating {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validating{next: next, validator: v, logger: logger}
}

func (v *Validating) WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error {
	if err := v.validator.ValidateRecord(rec); err != nil {
		v.logger.Error("sink: record rejected", "view_id", rec.ViewID, "error", err)
		return err
	}
	return v.next.WriteRecord(ctx, rec)
}

func (v *Validating) WriteResource(ctx context.Context, res segment.EnrichedResource) error {
	return v.next.WriteResource(ctx, res)
}

func (v *Validating) Close() error { return v.next.Close() }
