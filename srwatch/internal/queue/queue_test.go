package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/hazyhaar/srkit/srwatch/internal/ilog"
	"github.com/hazyhaar/srkit/srwatch/internal/processor"
	"github.com/hazyhaar/srkit/srwatch/internal/rumctx"
)

type call struct {
	kind string
	view string
	app  string
}

type fakeHandler struct {
	mu    sync.Mutex
	calls []call
}

func (h *fakeHandler) ProcessScreen(_ context.Context, tr rumctx.Transition, _ processor.Screen) {
	h.mu.Lock()
	h.calls = append(h.calls, call{kind: "screen", view: tr.Current.ViewID})
	h.mu.Unlock()
}

func (h *fakeHandler) ProcessTouch(_ context.Context, rec rumctx.Recorded, _ []processor.Touch) {
	h.mu.Lock()
	h.calls = append(h.calls, call{kind: "touch", view: rec.ViewID})
	h.mu.Unlock()
}

func (h *fakeHandler) ProcessResource(_ context.Context, app string, _ processor.Resource) {
	h.mu.Lock()
	h.calls = append(h.calls, call{kind: "resource", app: app})
	h.mu.Unlock()
}

func newQueue(h Handler, opts ...Option) (*Queue, *rumctx.ReportedProvider) {
	p := &rumctx.ReportedProvider{}
	tr := rumctx.NewTracker(p, rumctx.NewManualClock(0), nil)
	return New(h, tr, p, opts...), p
}

func setView(p *rumctx.ReportedProvider, view string) {
	p.Set(rumctx.Context{ApplicationID: "app", SessionID: "sess", ViewID: view})
}

func TestQueueOrderAndEnqueueTimeContext(t *testing.T) {
	h := &fakeHandler{}
	q, p := newQueue(h)

	setView(p, "A")
	if err := q.AddScreen(processor.Screen{}); err != nil {
		t.Fatal(err)
	}
	if err := q.AddTouch([]processor.Touch{{}}); err != nil {
		t.Fatal(err)
	}
	setView(p, "B")
	if err := q.AddResource(processor.Resource{Data: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	if err := q.AddScreen(processor.Screen{}); err != nil {
		t.Fatal(err)
	}

	// nothing runs before Start, and context was captured already
	q.Start(context.Background())
	q.Stop()

	want := []call{
		{kind: "screen", view: "A"},
		{kind: "touch", view: "A"},
		{kind: "resource", app: "app"},
		{kind: "screen", view: "B"},
	}
	if len(h.calls) != len(want) {
		t.Fatalf("calls: got %v, want %v", h.calls, want)
	}
	for i := range want {
		if h.calls[i] != want[i] {
			t.Errorf("call[%d]: got %+v, want %+v", i, h.calls[i], want[i])
		}
	}
}

func TestQueueFull(t *testing.T) {
	var logs ilog.Capture
	q, p := newQueue(&fakeHandler{}, WithSize(2), WithLogger(&logs))
	setView(p, "A")

	for i := range 2 {
		if err := q.AddScreen(processor.Screen{}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := q.AddScreen(processor.Screen{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("add on full queue: got %v, want ErrQueueFull", err)
	}
	if q.Len() != 2 {
		t.Errorf("len: got %d, want 2", q.Len())
	}
	if logs.Count(slog.LevelWarn) != 1 {
		t.Errorf("warn logs: got %d, want 1", logs.Count(slog.LevelWarn))
	}
	q.Stop()
}

func TestQueueStopped(t *testing.T) {
	h := &fakeHandler{}
	q, p := newQueue(h)
	setView(p, "A")
	q.Start(context.Background())
	q.Stop()
	q.Stop()

	if err := q.AddScreen(processor.Screen{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("add after stop: got %v, want ErrStopped", err)
	}
}

func TestQueueInvalidContext(t *testing.T) {
	h := &fakeHandler{}
	q, p := newQueue(h)
	p.Set(rumctx.Context{SessionID: "sess", ViewID: "A"})

	if err := q.AddScreen(processor.Screen{}); !errors.Is(err, ErrInvalidContext) {
		t.Errorf("screen: got %v, want ErrInvalidContext", err)
	}
	if err := q.AddResource(processor.Resource{}); !errors.Is(err, ErrInvalidContext) {
		t.Errorf("resource: got %v, want ErrInvalidContext", err)
	}
	q.Start(context.Background())
	q.Stop()
	if len(h.calls) != 0 {
		t.Errorf("calls: got %v, want none", h.calls)
	}
}

func TestQueueStopWithoutStart(t *testing.T) {
	q, _ := newQueue(&fakeHandler{})
	q.Stop()
}
