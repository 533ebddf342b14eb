package processor

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/hazyhaar/srkit/idgen"
	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
	"github.com/hazyhaar/srkit/srwatch/internal/rumctx"
	"github.com/hazyhaar/srkit/srwatch/segment"
)

type recordingWriter struct {
	envs []segment.EnrichedRecord
	res  []segment.EnrichedResource
	err  error
}

func (w *recordingWriter) WriteRecord(_ context.Context, rec segment.EnrichedRecord) error {
	if w.err != nil {
		return w.err
	}
	w.envs = append(w.envs, rec)
	return nil
}

func (w *recordingWriter) WriteResource(_ context.Context, res segment.EnrichedResource) error {
	if w.err != nil {
		return w.err
	}
	w.res = append(w.res, res)
	return nil
}

type harness struct {
	w        *recordingWriter
	clock    *rumctx.ManualClock
	provider *rumctx.ReportedProvider
	tracker  *rumctx.Tracker
	logs     *ilog.Capture
	sentTo   []string
	p        *Processor
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		w:        &recordingWriter{},
		clock:    rumctx.NewManualClock(1_700_000_000_000),
		provider: &rumctx.ReportedProvider{},
		logs:     &ilog.Capture{},
	}
	h.tracker = rumctx.NewTracker(h.provider, h.clock, h.logs)
	base := []Option{
		WithLogger(h.logs),
		WithRecordCallback(RecordCallbackFunc(func(v string) { h.sentTo = append(h.sentTo, v) })),
	}
	h.p = New(h.w, h.w, append(base, opts...)...)
	return h
}

func (h *harness) transition(t *testing.T, view string) rumctx.Transition {
	t.Helper()
	h.provider.Set(rumctx.Context{ApplicationID: "app", SessionID: "sess", ViewID: view})
	tr, ok := h.tracker.Next()
	if !ok {
		t.Fatalf("context for view %q rejected", view)
	}
	return tr
}

func (h *harness) screen(t *testing.T, view string, s Screen) {
	t.Helper()
	h.p.ProcessScreen(context.Background(), h.transition(t, view), s)
}

func box(id, x int64) segment.Wireframe {
	return segment.Wireframe{
		ID: id, X: x, Y: 0, Width: 10, Height: 10,
		ShapeStyle: &segment.ShapeStyle{BackgroundColor: "#AA0000FF", Opacity: segment.Ptr(1.0)},
	}
}

func portrait(ws ...segment.Wireframe) Screen {
	return Screen{
		Nodes:  []segment.Node{{Wireframes: ws}},
		System: segment.SystemInformation{ScreenWidth: 1080, ScreenHeight: 1920, Orientation: segment.OrientationPortrait},
	}
}

func landscape(ws ...segment.Wireframe) Screen {
	return Screen{
		Nodes:  []segment.Node{{Wireframes: ws}},
		System: segment.SystemInformation{ScreenWidth: 1920, ScreenHeight: 1080, Orientation: segment.OrientationLandscape},
	}
}

func types(env segment.EnrichedRecord) []segment.RecordType { return env.RecordTypes() }

func wantTypes(t *testing.T, env segment.EnrichedRecord, want ...segment.RecordType) {
	t.Helper()
	if got := types(env); !slices.Equal(got, want) {
		t.Errorf("record types: got %v, want %v", got, want)
	}
}

func TestNewViewEmitsMetaFocusFull(t *testing.T) {
	h := newHarness()
	h.screen(t, "A", portrait(box(1, 0), box(2, 20)))

	if len(h.w.envs) != 1 {
		t.Fatalf("writes: got %d, want 1", len(h.w.envs))
	}
	env := h.w.envs[0]
	wantTypes(t, env, segment.RecordTypeMeta, segment.RecordTypeFocus, segment.RecordTypeFullSnapshot)
	if env.ViewID != "A" || env.ApplicationID != "app" || env.SessionID != "sess" {
		t.Errorf("envelope: got %s/%s/%s", env.ApplicationID, env.SessionID, env.ViewID)
	}
	meta := env.Records[0].(segment.MetaRecord)
	if meta.Data.Width != 1080 || meta.Data.Height != 1920 {
		t.Errorf("meta: got %+v", meta.Data)
	}
	if !env.Records[1].(segment.FocusRecord).Data.HasFocus {
		t.Error("focus: has_focus should be true")
	}
	full := env.Records[2].(segment.FullSnapshotRecord)
	if len(full.Data.Wireframes) != 2 {
		t.Errorf("full snapshot: got %d wireframes, want 2", len(full.Data.Wireframes))
	}
	if !slices.Equal(h.sentTo, []string{"A"}) {
		t.Errorf("callback: got %v, want [A]", h.sentTo)
	}
}

func TestEndToEndWriteCounts(t *testing.T) {
	h := newHarness()

	h.screen(t, "A", portrait(box(1, 0), box(2, 20)))
	if n := len(h.w.envs); n != 1 {
		t.Fatalf("snapshot1 writes: got %d, want 1", n)
	}

	h.clock.Advance(time.Second)
	h.screen(t, "A", portrait(box(1, 0), box(2, 40)))
	if n := len(h.w.envs) - 1; n != 1 {
		t.Fatalf("snapshot2 writes: got %d, want 1", n)
	}
	wantTypes(t, h.w.envs[1], segment.RecordTypeIncrementalSnapshot)
	inc := h.w.envs[1].Records[0].(segment.IncrementalSnapshotRecord)
	m, ok := inc.Data.(segment.MutationData)
	if !ok || len(m.Updates) != 1 || m.Updates[0].ID != 2 {
		t.Fatalf("mutation: got %+v", inc.Data)
	}

	h.clock.Advance(time.Second)
	h.screen(t, "B", portrait(box(1, 0)))
	if n := len(h.w.envs) - 2; n != 2 {
		t.Fatalf("snapshot1' writes: got %d, want 2", n)
	}
	end := h.w.envs[2]
	wantTypes(t, end, segment.RecordTypeViewEnd)
	if end.ViewID != "A" {
		t.Errorf("view end addressed to %q, want A", end.ViewID)
	}
	start := h.w.envs[3]
	wantTypes(t, start, segment.RecordTypeMeta, segment.RecordTypeFocus, segment.RecordTypeFullSnapshot)
	if start.ViewID != "B" {
		t.Errorf("new view addressed to %q, want B", start.ViewID)
	}
	if end.Records[0].Time() != start.Records[0].Time() {
		t.Errorf("view end timestamp: got %d, want current %d", end.Records[0].Time(), start.Records[0].Time())
	}
	if _, ok := h.p.views["A"]; ok {
		t.Error("state of ended view A kept")
	}
	if !slices.Equal(h.sentTo, []string{"A", "A", "A", "B"}) {
		t.Errorf("callback: got %v", h.sentTo)
	}
}

func TestUnchangedSnapshotWritesNothing(t *testing.T) {
	h := newHarness()
	h.screen(t, "A", portrait(box(1, 0)))
	h.clock.Advance(time.Second)
	h.screen(t, "A", portrait(box(1, 0)))
	if len(h.w.envs) != 1 {
		t.Errorf("writes: got %d, want 1", len(h.w.envs))
	}
}

func TestOrientationChange(t *testing.T) {
	h := newHarness()
	h.screen(t, "A", portrait(box(1, 0)))

	h.clock.Advance(time.Second)
	h.screen(t, "A", landscape(box(1, 0)))
	if len(h.w.envs) != 2 {
		t.Fatalf("writes: got %d, want 2", len(h.w.envs))
	}
	wantTypes(t, h.w.envs[1], segment.RecordTypeIncrementalSnapshot, segment.RecordTypeFullSnapshot)
	resize, ok := h.w.envs[1].Records[0].(segment.IncrementalSnapshotRecord).Data.(segment.ViewportResizeData)
	if !ok || resize.Width != 1920 || resize.Height != 1080 {
		t.Errorf("resize: got %+v", h.w.envs[1].Records[0])
	}

	// back to portrait compares against landscape, not the original state
	h.clock.Advance(time.Second)
	h.screen(t, "A", portrait(box(1, 0)))
	if len(h.w.envs) != 3 {
		t.Fatalf("writes: got %d, want 3", len(h.w.envs))
	}
	wantTypes(t, h.w.envs[2], segment.RecordTypeIncrementalSnapshot, segment.RecordTypeFullSnapshot)
}

func TestOrientationChangeSameSize(t *testing.T) {
	h := newHarness()
	square := func(o segment.Orientation) Screen {
		s := portrait(box(1, 0))
		s.System = segment.SystemInformation{ScreenWidth: 1000, ScreenHeight: 1000, Orientation: o}
		return s
	}
	h.screen(t, "A", square(segment.OrientationPortrait))
	h.screen(t, "A", square(segment.OrientationLandscape))
	if len(h.w.envs) != 2 {
		t.Fatalf("writes: got %d, want 2", len(h.w.envs))
	}
	wantTypes(t, h.w.envs[1], segment.RecordTypeFullSnapshot)
}

func TestFullSnapshotInterval(t *testing.T) {
	h := newHarness(WithFullSnapshotInterval(30 * time.Second))
	h.screen(t, "A", portrait(box(1, 0)))

	h.clock.Advance(10 * time.Second)
	h.screen(t, "A", portrait(box(1, 5)))
	wantTypes(t, h.w.envs[1], segment.RecordTypeIncrementalSnapshot)

	h.clock.Advance(20 * time.Second)
	h.screen(t, "A", portrait(box(1, 6)))
	if len(h.w.envs) != 3 {
		t.Fatalf("writes: got %d, want 3", len(h.w.envs))
	}
	wantTypes(t, h.w.envs[2], segment.RecordTypeFullSnapshot)

	// the interval restarts from the last full snapshot
	h.clock.Advance(10 * time.Second)
	h.screen(t, "A", portrait(box(1, 7)))
	wantTypes(t, h.w.envs[3], segment.RecordTypeIncrementalSnapshot)
}

func TestInvalidContextWritesNothing(t *testing.T) {
	h := newHarness()
	h.provider.Set(rumctx.Context{ApplicationID: "app", SessionID: "sess"})
	if _, ok := h.tracker.Next(); ok {
		t.Fatal("context without view id accepted")
	}
	h.p.ProcessScreen(context.Background(), rumctx.Transition{}, portrait(box(1, 0)))
	h.p.ProcessTouch(context.Background(), rumctx.Recorded{}, []Touch{{}})
	if len(h.w.envs) != 0 {
		t.Errorf("writes: got %d, want 0", len(h.w.envs))
	}
	if n := h.logs.Count(slog.LevelError); n != 3 {
		t.Errorf("error logs: got %d, want 3", n)
	}
}

func TestTouchBypassesViewState(t *testing.T) {
	h := newHarness()
	tr := h.transition(t, "A")
	h.p.ProcessTouch(context.Background(), tr.Current, []Touch{
		{Data: segment.PointerInteractionData{PointerEventType: "down", PointerType: "touch", X: 1, Y: 1}},
		{Timestamp: 5, Data: segment.PointerInteractionData{PointerEventType: "up", PointerType: "touch", X: 1, Y: 1}},
	})
	if len(h.w.envs) != 1 {
		t.Fatalf("writes: got %d, want 1", len(h.w.envs))
	}
	env := h.w.envs[0]
	wantTypes(t, env, segment.RecordTypeIncrementalSnapshot, segment.RecordTypeIncrementalSnapshot)
	if env.Records[0].Time() != tr.Current.Timestamp || env.Records[1].Time() != 5 {
		t.Errorf("timestamps: got %d,%d", env.Records[0].Time(), env.Records[1].Time())
	}
	if len(h.p.views) != 0 || h.p.last != nil {
		t.Error("touch event touched view state")
	}

	// the first screen of view A is still a new view
	h.screen(t, "A", portrait(box(1, 0)))
	wantTypes(t, h.w.envs[1], segment.RecordTypeMeta, segment.RecordTypeFocus, segment.RecordTypeFullSnapshot)
}

func TestCloseOutFromTrackerPrevious(t *testing.T) {
	h := newHarness()
	// view A was only seen through a touch event
	tr := h.transition(t, "A")
	h.p.ProcessTouch(context.Background(), tr.Current, []Touch{{Data: segment.PointerInteractionData{PointerEventType: "down"}}})

	h.screen(t, "B", portrait(box(1, 0)))
	if len(h.w.envs) != 3 {
		t.Fatalf("writes: got %d, want 3", len(h.w.envs))
	}
	wantTypes(t, h.w.envs[1], segment.RecordTypeViewEnd)
	if h.w.envs[1].ViewID != "A" {
		t.Errorf("view end addressed to %q, want A", h.w.envs[1].ViewID)
	}
	wantTypes(t, h.w.envs[2], segment.RecordTypeMeta, segment.RecordTypeFocus, segment.RecordTypeFullSnapshot)
}

func TestReturnToPreviousViewIsNewView(t *testing.T) {
	h := newHarness()
	h.screen(t, "A", portrait(box(1, 0)))
	h.screen(t, "B", portrait(box(1, 0)))
	h.screen(t, "A", portrait(box(1, 0)))
	if len(h.w.envs) != 5 {
		t.Fatalf("writes: got %d, want 5", len(h.w.envs))
	}
	wantTypes(t, h.w.envs[3], segment.RecordTypeViewEnd)
	if h.w.envs[3].ViewID != "B" {
		t.Errorf("view end addressed to %q, want B", h.w.envs[3].ViewID)
	}
	wantTypes(t, h.w.envs[4], segment.RecordTypeMeta, segment.RecordTypeFocus, segment.RecordTypeFullSnapshot)
}

func TestWriteErrorIsLogged(t *testing.T) {
	h := newHarness()
	h.w.err = errors.New("disk full")
	h.screen(t, "A", portrait(box(1, 0)))
	if len(h.sentTo) != 0 {
		t.Errorf("callback after failed write: %v", h.sentTo)
	}
	es := h.logs.Entries()
	if len(es) != 1 || es[0].Level != slog.LevelError || es[0].Target != ilog.Maintainer {
		t.Fatalf("logs: got %+v", es)
	}
	if !errors.Is(es[0].Err, h.w.err) {
		t.Errorf("logged error: got %v", es[0].Err)
	}
	// the snapshot is still the reference for the next diff
	h.w.err = nil
	h.screen(t, "A", portrait(box(1, 0)))
	if len(h.w.envs) != 0 {
		t.Errorf("writes: got %d, want 0", len(h.w.envs))
	}
}

func TestResources(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	data := []byte{0x89, 'P', 'N', 'G'}

	h.p.ProcessResource(ctx, "app", Resource{Data: data})
	h.p.ProcessResource(ctx, "app", Resource{Data: data})
	h.p.ProcessResource(ctx, "app", Resource{ID: "explicit", Data: []byte("x")})
	h.p.ProcessResource(ctx, "", Resource{Data: data})
	h.p.ProcessResource(ctx, "app", Resource{})

	if len(h.w.res) != 2 {
		t.Fatalf("resources: got %d, want 2", len(h.w.res))
	}
	if got, want := h.w.res[0].Filename, idgen.ContentHash(data); got != want {
		t.Errorf("filename: got %q, want %q", got, want)
	}
	if h.w.res[0].ApplicationID != "app" {
		t.Errorf("application id: got %q", h.w.res[0].ApplicationID)
	}
	if h.w.res[1].Filename != "explicit" {
		t.Errorf("filename: got %q, want explicit", h.w.res[1].Filename)
	}
	if len(h.w.envs) != 0 {
		t.Error("resources leaked into the record stream")
	}
}

func TestResourcesWithoutDedupe(t *testing.T) {
	h := newHarness(WithResourceDedupe(false))
	for range 2 {
		h.p.ProcessResource(context.Background(), "app", Resource{Data: []byte("img")})
	}
	if len(h.w.res) != 2 {
		t.Errorf("resources: got %d, want 2", len(h.w.res))
	}
}
