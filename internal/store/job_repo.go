package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stylebook/tiermill/internal/domain"
)

// JobRecord is one journaled compression job.
type JobRecord struct {
	ID        int64
	RunID     int64
	Source    string
	Tier      domain.Tier
	Outcome   domain.Outcome
	Attempts  int
	SizeBytes int
	LimitBytes int
	Error     string
	CreatedAt int64
}

// JobRepo handles persistence for JobRecord rows.
type JobRepo struct{}

// Append inserts one job row.
func (r *JobRepo) Append(ctx context.Context, db *sql.DB, rec JobRecord) error {
	const q = `INSERT INTO jobs (run_id, source, tier, outcome, attempts, size_bytes, limit_bytes, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		rec.RunID,
		rec.Source,
		string(rec.Tier),
		string(rec.Outcome),
		rec.Attempts,
		rec.SizeBytes,
		rec.LimitBytes,
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append job: %w", err)
	}
	return nil
}

// ListByRun returns the jobs of one run in insertion order.
func (r *JobRepo) ListByRun(ctx context.Context, db *sql.DB, runID int64) ([]JobRecord, error) {
	const q = `SELECT id, run_id, source, tier, outcome, attempts, size_bytes, limit_bytes, error, created_at
FROM jobs WHERE run_id = ? ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var recs []JobRecord
	for rows.Next() {
		var rec JobRecord
		var tier, outcome string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Source, &tier, &outcome,
			&rec.Attempts, &rec.SizeBytes, &rec.LimitBytes, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		rec.Tier = domain.Tier(tier)
		rec.Outcome = domain.Outcome(outcome)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
