package telemetry

import (
	"database/sql"
	"fmt"
)

// Schema contains the DDL for the telemetry tables.
const Schema = `
CREATE TABLE IF NOT EXISTS telemetry_events (
    event_id   TEXT PRIMARY KEY,
    timestamp  INTEGER NOT NULL,
    level      TEXT NOT NULL,
    message    TEXT NOT NULL,
    error      TEXT,
    props      TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_telemetry_timestamp ON telemetry_events(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_telemetry_level ON telemetry_events(level, timestamp DESC);
`

// Init applies Schema to db.
func Init(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("telemetry: init schema: %w", err)
	}
	return nil
}
