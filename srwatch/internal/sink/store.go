// CLAUDE:SUMMARY SQLite sink persisting enriched records and deduplicated resources, with read-back for replay tooling.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/srkit/dbopen"
	"github.com/hazyhaar/srkit/idgen"
	"github.com/hazyhaar/srkit/srwatch/segment"
)

// StoreSchema creates the tables used by Store.
const StoreSchema = `
CREATE TABLE IF NOT EXISTS records (
	id             TEXT PRIMARY KEY,
	application_id TEXT NOT NULL,
	session_id     TEXT NOT NULL,
	view_id        TEXT NOT NULL,
	record_count   INTEGER NOT NULL,
	first_ts       INTEGER NOT NULL,
	payload        TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_view ON records(session_id, view_id, id);

CREATE TABLE IF NOT EXISTS views (
	session_id     TEXT NOT NULL,
	view_id        TEXT NOT NULL,
	application_id TEXT NOT NULL,
	first_ts       INTEGER NOT NULL,
	last_ts        INTEGER NOT NULL,
	envelopes      INTEGER NOT NULL,
	ended          INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, view_id)
);

CREATE TABLE IF NOT EXISTS resources (
	filename       TEXT NOT NULL,
	application_id TEXT NOT NULL,
	data           BLOB NOT NULL,
	created_at     INTEGER NOT NULL,
	PRIMARY KEY (application_id, filename)
);
`

// Store persists records and resources in SQLite. Row ids are UUIDv7, so
// reading back by id preserves write order.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
	owned bool
}

// OpenStore opens (or creates) the database at path. opts tune the
// connection pragmas.
func OpenStore(path string, opts ...dbopen.Option) (*Store, error) {
	opts = append([]dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(StoreSchema)}, opts...)
	db, err := dbopen.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{db: db, newID: idgen.Prefixed("rec_", idgen.UUIDv7()), owned: true}, nil
}

// NewStore wraps an already opened database whose schema includes
// StoreSchema. Close leaves db open.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, newID: idgen.Prefixed("rec_", idgen.UUIDv7())}
}

func (s *Store) WriteRecord(ctx context.Context, rec segment.EnrichedRecord) error {
	payload, err := rec.ToJSON()
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	var first, last int64
	ended := 0
	if n := len(rec.Records); n > 0 {
		first = rec.Records[0].Time()
		last = rec.Records[n-1].Time()
	}
	for _, r := range rec.Records {
		if r.Type() == segment.RecordTypeViewEnd {
			ended = 1
		}
	}
	id := s.newID()

	err = dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, application_id, session_id, view_id, record_count, first_ts, payload, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rec.ApplicationID, rec.SessionID, rec.ViewID, len(rec.Records), first, string(payload), time.Now().UnixMilli()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO views (session_id, view_id, application_id, first_ts, last_ts, envelopes, ended)
			 VALUES (?, ?, ?, ?, ?, 1, ?)
			 ON CONFLICT (session_id, view_id) DO UPDATE SET
			   first_ts = MIN(first_ts, excluded.first_ts),
			   last_ts = MAX(last_ts, excluded.last_ts),
			   envelopes = envelopes + 1,
			   ended = MAX(ended, excluded.ended)`,
			rec.SessionID, rec.ViewID, rec.ApplicationID, first, last, ended)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: insert record: %w", err)
	}
	return nil
}

// ViewSummary is the per-view index maintained alongside records.
type ViewSummary struct {
	ViewID    string
	FirstTS   int64
	LastTS    int64
	Envelopes int
	Ended     bool
}

// Views lists the recorded views of a session, oldest first.
func (s *Store) Views(ctx context.Context, sessionID string) ([]ViewSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT view_id, first_ts, last_ts, envelopes, ended FROM views
		 WHERE session_id = ? ORDER BY first_ts, view_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: query views: %w", err)
	}
	defer rows.Close()

	var out []ViewSummary
	for rows.Next() {
		var v ViewSummary
		if err := rows.Scan(&v.ViewID, &v.FirstTS, &v.LastTS, &v.Envelopes, &v.Ended); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// WriteResource stores a resource once per application and filename.
func (s *Store) WriteResource(ctx context.Context, res segment.EnrichedResource) error {
	_, err := dbopen.Exec(ctx, s.db,
		`INSERT OR IGNORE INTO resources (filename, application_id, data, created_at) VALUES (?, ?, ?, ?)`,
		res.Filename, res.ApplicationID, res.Resource, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: insert resource: %w", err)
	}
	return nil
}

// Records returns the stored envelopes of a view in write order.
func (s *Store) Records(ctx context.Context, sessionID, viewID string) ([]segment.EnrichedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE session_id = ? AND view_id = ? ORDER BY id`, sessionID, viewID)
	if err != nil {
		return nil, fmt.Errorf("store: query records: %w", err)
	}
	defer rows.Close()

	var out []segment.EnrichedRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		var rec segment.EnrichedRecord
		if err := rec.UnmarshalJSON([]byte(payload)); err != nil {
			return nil, fmt.Errorf("store: decode: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Resource returns the bytes of a stored resource.
func (s *Store) Resource(ctx context.Context, applicationID, filename string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM resources WHERE application_id = ? AND filename = ?`, applicationID, filename).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("store: resource %s: %w", filename, err)
	}
	return data, nil
}

func (s *Store) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
