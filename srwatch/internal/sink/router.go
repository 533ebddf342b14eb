package sink

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/srkit/srwatch/segment"
)

// Router fans out records and resources to all configured sinks
// concurrently. One sink error does not block the others: errors are
// logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error {
	return r.fanOut("record", func(s Sink) error { return s.WriteRecord(ctx, rec) })
}

func (r *Router) WriteResource(ctx context.Context, res segment.EnrichedResource) error {
	return r.fanOut("resource", func(s Sink) error { return s.WriteResource(ctx, res) })
}

// fanOut uses a plain errgroup.Group: a failing sink must not cancel the
// delivery to the others.
func (r *Router) fanOut(what string, send func(Sink) error) error {
	var g errgroup.Group
	for _, s := range r.sinks {
		g.Go(func() error {
			if err := send(s); err != nil {
				r.logger.Warn("sink: write "+what+" failed", "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Router) Close() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
