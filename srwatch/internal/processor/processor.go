// CLAUDE:SUMMARY Recording state machine deciding per view which records (meta, focus, full, incremental, view end) to emit.
// Package processor turns capture events into enriched records. It keeps the
// last flattened snapshot of the active view and decides, for each event,
// between a full snapshot, a mutation diff, a viewport resize or nothing.
//
// A Processor is not safe for concurrent use: callers serialize events,
// usually through the queue package.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/srkit/idgen"
	"github.com/hazyhaar/srkit/srwatch/internal/diff"
	"github.com/hazyhaar/srkit/srwatch/internal/geometry"
	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
	"github.com/hazyhaar/srkit/srwatch/internal/rumctx"
	"github.com/hazyhaar/srkit/srwatch/segment"
)

// DefaultFullSnapshotInterval is how long a view may go without a full snapshot.
const DefaultFullSnapshotInterval = time.Minute

// RecordWriter receives every envelope produced by the processor.
type RecordWriter interface {
	WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error
}

// ResourceWriter receives binary resources on their own channel.
type ResourceWriter interface {
	WriteResource(ctx context.Context, res segment.EnrichedResource) error
}

// Flattener turns one captured node into its ordered wireframe list.
type Flattener interface {
	Flatten(node segment.Node) []segment.Wireframe
}

// RecordCallback is notified after each envelope addressed to a view was written.
type RecordCallback interface {
	OnRecordForViewSent(viewID string)
}

// RecordCallbackFunc adapts a function to RecordCallback.
type RecordCallbackFunc func(viewID string)

func (f RecordCallbackFunc) OnRecordForViewSent(viewID string) { f(viewID) }

// Screen is one capture of the whole screen.
type Screen struct {
	Nodes  []segment.Node            `json:"nodes"`
	System segment.SystemInformation `json:"system"`
}

// Touch is one pointer event. A zero Timestamp takes the event context time.
type Touch struct {
	Timestamp int64                          `json:"timestamp,omitempty"`
	Data      segment.PointerInteractionData `json:"data"`
}

// Resource is a binary blob referenced by image wireframes. An empty ID is
// replaced by the content hash of Data.
type Resource struct {
	ID       string `json:"id,omitempty"`
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type,omitempty"`
}

type viewState struct {
	snapshot      []segment.Wireframe
	lastFullNanos int64
	orientation   segment.Orientation
	width         int64
	height        int64
}

// Processor is the recording state machine.
type Processor struct {
	records   RecordWriter
	resources ResourceWriter
	flattener Flattener
	resolver  *diff.Resolver
	log       ilog.Logger
	callback  RecordCallback
	interval  time.Duration
	dedupe    bool

	views map[string]viewState
	last  *rumctx.Recorded
	sent  map[string]struct{}
}

// Option configures a Processor.
type Option func(*Processor)

// WithFlattener replaces the default geometry.Flattener.
func WithFlattener(f Flattener) Option {
	return func(p *Processor) { p.flattener = f }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l ilog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithFullSnapshotInterval sets the full snapshot interval. Default: 1m.
// Non-positive values keep the default.
func WithFullSnapshotInterval(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRecordCallback registers a callback invoked after each record write.
func WithRecordCallback(cb RecordCallback) Option {
	return func(p *Processor) { p.callback = cb }
}

// WithResourceDedupe skips resources whose identifier was already written.
// Default: true.
func WithResourceDedupe(on bool) Option {
	return func(p *Processor) { p.dedupe = on }
}

// New creates a Processor writing records and resources to the given sinks.
// resources may be nil when no resource is ever processed.
func New(records RecordWriter, resources ResourceWriter, opts ...Option) *Processor {
	p := &Processor{
		records:   records,
		resources: resources,
		flattener: geometry.Flattener{},
		log:       ilog.Discard,
		interval:  DefaultFullSnapshotInterval,
		dedupe:    true,
		views:     make(map[string]viewState),
		sent:      make(map[string]struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	p.resolver = diff.New(p.log)
	return p
}

// ProcessScreen records one screen capture taken under tr.
func (p *Processor) ProcessScreen(ctx context.Context, tr rumctx.Transition, s Screen) {
	cur := tr.Current
	if !cur.IsValid() {
		p.log.Log(slog.LevelError, ilog.Maintainer, func() string {
			return "processor: screen event without a valid context, dropped"
		})
		return
	}

	var snapshot []segment.Wireframe
	for _, n := range s.Nodes {
		snapshot = append(snapshot, p.flattener.Flatten(n)...)
	}
	now := tr.CaptureNanos
	sys := s.System

	state, known := p.views[cur.ViewID]
	newView := !known || p.last == nil || !p.last.SameView(cur.Context)

	if newView {
		if prev := p.closeOutTarget(tr); prev != nil {
			p.write(ctx, *prev, segment.ViewEndRecord{Timestamp: cur.Timestamp})
			delete(p.views, prev.ViewID)
		}
		state = viewState{}
		p.write(ctx, cur,
			segment.MetaRecord{Timestamp: cur.Timestamp, Data: segment.MetaData{Width: sys.ScreenWidth, Height: sys.ScreenHeight}},
			segment.FocusRecord{Timestamp: cur.Timestamp, Data: segment.FocusData{HasFocus: true}},
			segment.FullSnapshotRecord{Timestamp: cur.Timestamp, Data: segment.FullSnapshotData{Wireframes: snapshot}},
		)
		state.lastFullNanos = now
	} else {
		switch {
		case state.orientation != sys.Orientation:
			var recs []segment.Record
			if state.width != sys.ScreenWidth || state.height != sys.ScreenHeight {
				recs = append(recs, segment.IncrementalSnapshotRecord{
					Timestamp: cur.Timestamp,
					Data:      segment.ViewportResizeData{Width: sys.ScreenWidth, Height: sys.ScreenHeight},
				})
			}
			recs = append(recs, segment.FullSnapshotRecord{Timestamp: cur.Timestamp, Data: segment.FullSnapshotData{Wireframes: snapshot}})
			p.write(ctx, cur, recs...)
			state.lastFullNanos = now
		case now-state.lastFullNanos >= int64(p.interval):
			p.write(ctx, cur, segment.FullSnapshotRecord{Timestamp: cur.Timestamp, Data: segment.FullSnapshotData{Wireframes: snapshot}})
			state.lastFullNanos = now
		default:
			if m := p.resolver.Resolve(state.snapshot, snapshot); m != nil {
				p.write(ctx, cur, segment.IncrementalSnapshotRecord{Timestamp: cur.Timestamp, Data: *m})
			}
		}
	}

	state.snapshot = snapshot
	state.orientation = sys.Orientation
	state.width = sys.ScreenWidth
	state.height = sys.ScreenHeight
	p.views[cur.ViewID] = state
	last := cur
	p.last = &last
}

// closeOutTarget returns the view to end before recording a new one: the
// view last recorded by this processor, or else the previous context seen
// by the tracker.
func (p *Processor) closeOutTarget(tr rumctx.Transition) *rumctx.Recorded {
	cur := tr.Current.Context
	if p.last != nil {
		if p.last.SameView(cur) {
			return nil
		}
		return p.last
	}
	if tr.Previous != nil && tr.Previous.IsValid() && !tr.Previous.SameView(cur) {
		return tr.Previous
	}
	return nil
}

// ProcessTouch writes pointer events as they are, under rec. View state is
// left untouched.
func (p *Processor) ProcessTouch(ctx context.Context, rec rumctx.Recorded, touches []Touch) {
	if !rec.IsValid() {
		p.log.Log(slog.LevelError, ilog.Maintainer, func() string {
			return "processor: touch event without a valid context, dropped"
		})
		return
	}
	if len(touches) == 0 {
		return
	}
	recs := make([]segment.Record, 0, len(touches))
	for _, t := range touches {
		ts := t.Timestamp
		if ts == 0 {
			ts = rec.Timestamp
		}
		recs = append(recs, segment.IncrementalSnapshotRecord{Timestamp: ts, Data: t.Data})
	}
	p.write(ctx, rec, recs...)
}

// ProcessResource sends a resource on the resource channel.
func (p *Processor) ProcessResource(ctx context.Context, applicationID string, r Resource) {
	if applicationID == "" {
		p.log.Log(slog.LevelError, ilog.Maintainer, func() string {
			return "processor: resource without application id, dropped"
		})
		return
	}
	if len(r.Data) == 0 {
		p.log.Log(slog.LevelWarn, ilog.Maintainer, func() string {
			return "processor: empty resource, dropped"
		}, ilog.Once())
		return
	}
	if p.resources == nil {
		p.log.Log(slog.LevelWarn, ilog.Maintainer, func() string {
			return "processor: no resource writer configured, resource dropped"
		}, ilog.Once())
		return
	}
	id := r.ID
	if id == "" {
		id = idgen.ContentHash(r.Data)
	}
	if p.dedupe {
		if _, ok := p.sent[id]; ok {
			return
		}
	}
	err := p.resources.WriteResource(ctx, segment.EnrichedResource{
		Resource:      r.Data,
		ApplicationID: applicationID,
		Filename:      id,
	})
	if err != nil {
		p.log.Log(slog.LevelError, ilog.Maintainer, func() string {
			return fmt.Sprintf("processor: write resource %s failed", id)
		}, ilog.WithError(err))
		return
	}
	if p.dedupe {
		p.sent[id] = struct{}{}
	}
}

func (p *Processor) write(ctx context.Context, to rumctx.Recorded, recs ...segment.Record) {
	env := segment.EnrichedRecord{
		ApplicationID: to.ApplicationID,
		SessionID:     to.SessionID,
		ViewID:        to.ViewID,
		Records:       recs,
	}
	if err := p.records.WriteRecord(ctx, env); err != nil {
		p.log.Log(slog.LevelError, ilog.Maintainer, func() string {
			return fmt.Sprintf("processor: write records for view %s failed", to.ViewID)
		}, ilog.WithError(err), ilog.WithProps(map[string]any{"records": len(recs)}))
		return
	}
	if p.callback != nil {
		p.callback.OnRecordForViewSent(to.ViewID)
	}
}
