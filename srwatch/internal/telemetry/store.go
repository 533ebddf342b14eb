// CLAUDE:SUMMARY Buffered SQLite store for diagnostics addressed to the telemetry audience, flushed in batches off the hot path.
// Package telemetry persists the recorder's telemetry-targeted diagnostics
// (kind mismatches, dropped events) in SQLite.
//
// Events are written in batches by a background loop; a full buffer is
// flushed inline. Write failures are logged then dropped.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/srkit/idgen"
)

// Event is one diagnostic addressed to the telemetry audience.
type Event struct {
	Timestamp time.Time
	Level     slog.Level
	Message   string
	Error     string
	Props     map[string]any
}

// Store buffers events and flushes them to SQLite in batches.
type Store struct {
	db            *sql.DB
	newID         idgen.Generator
	bufferSize    int
	flushInterval time.Duration

	mu     sync.Mutex
	buffer []Event
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Option configures a Store.
type Option func(*Store)

// WithBufferSize sets how many events are kept before an inline flush.
// Default: 100.
func WithBufferSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithFlushInterval sets the background flush period. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.flushInterval = d
		}
	}
}

// WithIDGenerator sets the event id generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore starts a Store on db, whose schema must include Schema.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:            db,
		newID:         idgen.Prefixed("tel_", idgen.UUIDv7()),
		bufferSize:    100,
		flushInterval: 5 * time.Second,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.buffer = make([]Event, 0, s.bufferSize)
	go s.flushLoop()
	return s
}

// Record queues an event.
func (s *Store) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer, ev)
	if len(s.buffer) >= s.bufferSize {
		s.flushLocked()
	}
}

// Flush writes buffered events now.
func (s *Store) Flush() {
	s.mu.Lock()
	s.flushLocked()
	s.mu.Unlock()
}

// Query returns the most recent events, newest first. A level filter of
// nil returns every level.
func (s *Store) Query(ctx context.Context, level *slog.Level, limit int) ([]Event, error) {
	q := "SELECT timestamp, level, message, error, props FROM telemetry_events WHERE 1=1"
	var args []any
	if level != nil {
		q += " AND level = ?"
		args = append(args, level.String())
	}
	q += " ORDER BY timestamp DESC, event_id DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ts             int64
			lvl, msg       string
			errText, props sql.NullString
		)
		if err := rows.Scan(&ts, &lvl, &msg, &errText, &props); err != nil {
			return nil, fmt.Errorf("telemetry: scan: %w", err)
		}
		ev := Event{Timestamp: time.UnixMilli(ts), Message: msg, Error: errText.String}
		ev.Level.UnmarshalText([]byte(lvl))
		if props.Valid {
			json.Unmarshal([]byte(props.String), &ev.Props)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Cleanup deletes events older than retentionDays and returns the count removed.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()
	res, err := s.db.ExecContext(ctx, "DELETE FROM telemetry_events WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("telemetry: cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close flushes remaining events and stops the background goroutine. The
// database is left open.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *Store) flushLoop() {
	defer close(s.done)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

func (s *Store) flushLocked() {
	if len(s.buffer) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("telemetry: begin tx", "error", err)
		return
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO telemetry_events (event_id, timestamp, level, message, error, props) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("telemetry: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, ev := range s.buffer {
		var errText, props sql.NullString
		if ev.Error != "" {
			errText = sql.NullString{String: ev.Error, Valid: true}
		}
		if len(ev.Props) > 0 {
			if b, err := json.Marshal(ev.Props); err == nil {
				props = sql.NullString{String: string(b), Valid: true}
			}
		}
		if _, err := stmt.ExecContext(ctx, s.newID(), ev.Timestamp.UnixMilli(), ev.Level.String(), ev.Message, errText, props); err != nil {
			slog.Error("telemetry: insert", "error", err, "message", ev.Message)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("telemetry: commit", "error", err, "events", len(s.buffer))
	}
	s.buffer = s.buffer[:0]
}
