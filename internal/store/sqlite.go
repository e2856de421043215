// Package store provides the optional SQLite-backed run journal.
//
// The journal is purely observational history for the `history`
// subcommand: filesystem timestamps remain the sole staleness signal,
// and no journal read ever influences a pipeline decision.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaV1 defines the initial journal schema.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	mode        TEXT NOT NULL,
	root        TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL DEFAULT 0,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	oversized   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS jobs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL,
	source      TEXT NOT NULL,
	tier        TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	attempts    INTEGER NOT NULL DEFAULT 0,
	size_bytes  INTEGER NOT NULL DEFAULT 0,
	limit_bytes INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_run ON jobs(run_id);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	// Limit connections to 1 for SQLite (WAL allows concurrent reads but single writer).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaV1); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal schema: %w", err)
	}
	return db, nil
}
