// CLAUDE:SUMMARY Recorder orchestrator wiring context tracking, the ordered queue, the recording processor, sinks and ingest.
// Package srwatch records mobile screen captures as a replayable event log.
// Captured wireframe trees go in; enriched records (meta, focus, full
// snapshots, incremental mutations, view ends) come out to sinks.
package srwatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/srkit/dbopen"
	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
	"github.com/hazyhaar/srkit/srwatch/internal/ingest"
	"github.com/hazyhaar/srkit/srwatch/internal/processor"
	"github.com/hazyhaar/srkit/srwatch/internal/queue"
	"github.com/hazyhaar/srkit/srwatch/internal/rumctx"
	"github.com/hazyhaar/srkit/srwatch/internal/schema"
	"github.com/hazyhaar/srkit/srwatch/internal/sink"
	"github.com/hazyhaar/srkit/srwatch/internal/telemetry"
)

// Event is one capture event. Re-exported from internal.
type Event = ingest.Event

// Event kinds.
const (
	KindSnapshot = ingest.KindSnapshot
	KindTouch    = ingest.KindTouch
	KindResource = ingest.KindResource
)

// Recorder is the top-level orchestrator. Events are stamped with their
// context on Submit and processed in order by a single worker.
type Recorder struct {
	cfg      *Config
	logger   *slog.Logger
	provider *rumctx.ReportedProvider
	queue    *queue.Queue
	out      sink.Sink

	telemetryDB    *sql.DB
	telemetryStore *telemetry.Store

	// replay is set when event timestamps drive the clock.
	replay *rumctx.ManualClock

	// mu makes provider.Set and the enqueue one step, so concurrent
	// submitters cannot swap contexts under each other.
	mu sync.Mutex
}

// Option configures a Recorder.
type Option func(*recorderOptions)

type recorderOptions struct {
	logger     *slog.Logger
	onSent     func(viewID string)
	replayMode bool
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *recorderOptions) { o.logger = l }
}

// WithRecordCallback is called with the view id after each record write.
func WithRecordCallback(fn func(viewID string)) Option {
	return func(o *recorderOptions) { o.onSent = fn }
}

// WithEventTimestamps drives the recorder clock from Event.Timestamp
// instead of the wall clock. Used to replay captures deterministically.
func WithEventTimestamps() Option {
	return func(o *recorderOptions) { o.replayMode = true }
}

// New creates a Recorder writing to sinks. With cfg.ValidateRecords set,
// records are checked against the wire schema before reaching any sink.
func New(cfg *Config, sinks []Sink, opts ...Option) (*Recorder, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var o recorderOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var out sink.Sink = sink.NewRouter(o.logger, sinks...)
	if cfg.ValidateRecords {
		v, err := schema.New()
		if err != nil {
			return nil, fmt.Errorf("srwatch: %w", err)
		}
		out = sink.NewValidating(out, v, o.logger)
	}

	r := &Recorder{
		cfg:      cfg,
		logger:   o.logger,
		provider: &rumctx.ReportedProvider{},
		out:      out,
	}

	var clock rumctx.Clock = rumctx.SystemClock{}
	if o.replayMode {
		r.replay = rumctx.NewManualClock(0)
		clock = r.replay
	}

	var ilogger ilog.Logger = ilog.New(o.logger)
	if path := cfg.Telemetry.Path; path != "" {
		if err := r.openTelemetry(path, cfg.Telemetry.RetentionDays); err != nil {
			return nil, err
		}
		ilogger = ilog.Tee(ilogger, telemetry.NewLogger(r.telemetryStore))
	}
	popts := []processor.Option{
		processor.WithLogger(ilogger),
		processor.WithFullSnapshotInterval(cfg.Recorder.FullSnapshotInterval),
		processor.WithResourceDedupe(cfg.Recorder.Dedupe()),
	}
	if o.onSent != nil {
		popts = append(popts, processor.WithRecordCallback(processor.RecordCallbackFunc(o.onSent)))
	}
	proc := processor.New(out, out, popts...)

	tracker := rumctx.NewTracker(r.provider, clock, ilogger)
	r.queue = queue.New(proc, tracker, r.provider,
		queue.WithSize(cfg.Recorder.QueueSize),
		queue.WithLogger(ilogger))
	return r, nil
}

// Start launches the processing worker.
func (r *Recorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Submit validates ev, installs its context as the current one and enqueues
// it. Errors are ingest.ErrUnknownEventKind, ingest.ErrInvalidEvent or the
// queue sentinels.
func (r *Recorder) Submit(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replay != nil && ev.Timestamp > 0 {
		r.replay.AdvanceTo(ev.Timestamp)
	}
	r.provider.Set(ev.Context)

	switch ev.Kind {
	case KindSnapshot:
		return r.queue.AddScreen(*ev.Screen)
	case KindTouch:
		return r.queue.AddTouch(ev.Touches)
	default:
		return r.queue.AddResource(*ev.Resource)
	}
}

// Serve starts the recorder and the ingest endpoints enabled in the
// configuration, and blocks until ctx is cancelled. Pending events are
// processed and sinks closed before it returns.
func (r *Recorder) Serve(ctx context.Context) error {
	r.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if addr := r.cfg.Ingest.Listen; addr != "" {
		srv := ingest.NewServer(r,
			ingest.WithMaxBodyBytes(r.cfg.Ingest.MaxBodyBytes),
			ingest.WithServerLogger(r.logger))
		g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
	}
	if dir := r.cfg.Ingest.SpoolDir; dir != "" {
		sp := ingest.NewSpool(dir, r, r.logger)
		g.Go(func() error { return sp.Run(gctx) })
	}
	err := g.Wait()

	if stopErr := r.Stop(); err == nil {
		err = stopErr
	}
	return err
}

func (r *Recorder) openTelemetry(path string, retentionDays int) error {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(telemetry.Schema))
	if err != nil {
		return fmt.Errorf("srwatch: telemetry: %w", err)
	}
	store := telemetry.NewStore(db)
	if retentionDays > 0 {
		if n, err := store.Cleanup(context.Background(), retentionDays); err != nil {
			r.logger.Warn("srwatch: telemetry cleanup failed", "error", err)
		} else if n > 0 {
			r.logger.Info("srwatch: telemetry cleanup", "deleted", n)
		}
	}
	r.telemetryDB, r.telemetryStore = db, store
	return nil
}

// Stop drains pending events and closes the sinks.
func (r *Recorder) Stop() error {
	r.queue.Stop()
	var errs []error
	if err := r.out.Close(); err != nil {
		errs = append(errs, fmt.Errorf("srwatch: close sinks: %w", err))
	}
	if r.telemetryStore != nil {
		r.telemetryStore.Close()
		if err := r.telemetryDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("srwatch: close telemetry: %w", err))
		}
		r.telemetryStore = nil
	}
	return errors.Join(errs...)
}

// Pending returns the number of events waiting to be processed.
func (r *Recorder) Pending() int {
	return r.queue.Len()
}
