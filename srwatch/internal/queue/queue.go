// CLAUDE:SUMMARY Bounded single-worker queue that stamps capture events with their context at enqueue time and feeds the processor in order.
// Package queue serializes capture events for the processor. Context is
// resolved when an event is added, so timestamps and view identity reflect
// capture time; one worker then drains events in order.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
	"github.com/hazyhaar/srkit/srwatch/internal/processor"
	"github.com/hazyhaar/srkit/srwatch/internal/rumctx"
)

var (
	// ErrQueueFull is returned when the event was dropped for lack of room.
	ErrQueueFull = errors.New("queue: full")
	// ErrStopped is returned when adding to a stopped queue.
	ErrStopped = errors.New("queue: stopped")
	// ErrInvalidContext is returned when the current context cannot address
	// the event. The tracker has already logged the reason.
	ErrInvalidContext = errors.New("queue: invalid context")
)

// DefaultSize is the default capacity of a Queue.
const DefaultSize = 1024

// Handler processes events one at a time. *processor.Processor implements it.
type Handler interface {
	ProcessScreen(ctx context.Context, tr rumctx.Transition, s processor.Screen)
	ProcessTouch(ctx context.Context, rec rumctx.Recorded, touches []processor.Touch)
	ProcessResource(ctx context.Context, applicationID string, r processor.Resource)
}

type job func(ctx context.Context)

// Queue is a bounded FIFO drained by a single worker.
type Queue struct {
	handler  Handler
	tracker  *rumctx.Tracker
	provider rumctx.Provider
	log      ilog.Logger
	size     int

	mu      sync.Mutex
	jobs    chan job
	started bool
	stopped bool
	done    chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithSize sets the capacity. Default: 1024.
func WithSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l ilog.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// New creates a Queue feeding h. Screen and touch events get their context
// from tracker; resources only need the application id read from provider.
func New(h Handler, tracker *rumctx.Tracker, provider rumctx.Provider, opts ...Option) *Queue {
	q := &Queue{
		handler:  h,
		tracker:  tracker,
		provider: provider,
		log:      ilog.Discard,
		size:     DefaultSize,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.jobs = make(chan job, q.size)
	return q
}

// Start launches the worker. Cancelling ctx does not stop it: call Stop,
// which drains pending events first. Handlers see ctx values without its
// cancellation.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	wctx := context.WithoutCancel(ctx)
	go func() {
		defer close(q.done)
		for j := range q.jobs {
			j(wctx)
		}
	}()
}

// Stop rejects new events and waits until pending ones are processed.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.stopped = true
	close(q.jobs)
	started := q.started
	q.mu.Unlock()

	if !started {
		// nothing will drain the channel
		close(q.done)
		return
	}
	<-q.done
}

// Len returns the number of events waiting.
func (q *Queue) Len() int { return len(q.jobs) }

// AddScreen enqueues a screen capture under the current context.
func (q *Queue) AddScreen(s processor.Screen) error {
	return q.add("screen", func() (job, error) {
		tr, ok := q.tracker.Next()
		if !ok {
			return nil, ErrInvalidContext
		}
		return func(ctx context.Context) { q.handler.ProcessScreen(ctx, tr, s) }, nil
	})
}

// AddTouch enqueues pointer events under the current context.
func (q *Queue) AddTouch(touches []processor.Touch) error {
	return q.add("touch", func() (job, error) {
		tr, ok := q.tracker.Next()
		if !ok {
			return nil, ErrInvalidContext
		}
		return func(ctx context.Context) { q.handler.ProcessTouch(ctx, tr.Current, touches) }, nil
	})
}

// AddResource enqueues a resource for the current application.
func (q *Queue) AddResource(r processor.Resource) error {
	return q.add("resource", func() (job, error) {
		app := q.provider.CurrentContext().ApplicationID
		if app == "" {
			q.log.Log(slog.LevelError, ilog.Maintainer, func() string {
				return "queue: resource without application id, dropped"
			})
			return nil, ErrInvalidContext
		}
		return func(ctx context.Context) { q.handler.ProcessResource(ctx, app, r) }, nil
	})
}

// add resolves and enqueues under one lock so that queue order matches
// context resolution order.
func (q *Queue) add(kind string, build func() (job, error)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrStopped
	}
	j, err := build()
	if err != nil {
		return err
	}
	select {
	case q.jobs <- j:
		return nil
	default:
		q.log.Log(slog.LevelWarn, ilog.Maintainer|ilog.Telemetry, func() string {
			return "queue: full, " + kind + " event dropped"
		}, ilog.WithProps(map[string]any{"capacity": q.size}))
		return ErrQueueFull
	}
}
