package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/srkit/srwatch/internal/queue"
)

// DefaultMaxBodyBytes caps a request body.
const DefaultMaxBodyBytes = 8 << 20

// Server is the HTTP ingest API.
//
//	POST /v1/events   one event object or a JSON array of events
//	GET  /healthz
type Server struct {
	sub     Submitter
	maxBody int64
	logger  *slog.Logger
	router  *chi.Mux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxBodyBytes caps request bodies. Default: 8 MiB.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithServerLogger sets a custom logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the ingest API submitting to sub.
func NewServer(sub Submitter, opts ...ServerOption) *Server {
	s := &Server{
		sub:     sub,
		maxBody: DefaultMaxBodyBytes,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/events", s.handleEvents)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("ingest: listening", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("ingest: serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ingest: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err, 0)
			return
		}
		writeError(w, http.StatusBadRequest, err, 0)
		return
	}

	events, err := decodeBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, 0)
		return
	}

	for i, ev := range events {
		if err := s.sub.Submit(ev); err != nil {
			s.logger.Warn("ingest: event rejected",
				"request_id", middleware.GetReqID(r.Context()), "kind", ev.Kind, "error", err)
			writeError(w, statusFor(err), err, i)
			return
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(events)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, queue.ErrInvalidContext):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownEventKind), errors.Is(err, ErrInvalidEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error, accepted int) {
	writeJSON(w, code, map[string]any{"error": err.Error(), "accepted": accepted})
}
