package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RunRecord is one journaled pipeline run.
type RunRecord struct {
	ID         int64
	Mode       string
	Root       string
	StartedAt  int64
	FinishedAt int64
	Succeeded  int
	Oversized  int
	Failed     int
	Skipped    int
}

// RunRepo handles persistence for RunRecord rows.
type RunRepo struct{}

// Create inserts a new run row and returns its ID.
func (r *RunRepo) Create(ctx context.Context, db *sql.DB, mode, root string, startedAt int64) (int64, error) {
	const q = `INSERT INTO runs (mode, root, started_at) VALUES (?, ?, ?)`
	res, err := db.ExecContext(ctx, q, mode, root, startedAt)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// FinishTx records the final counters of a run within a transaction.
func (r *RunRepo) FinishTx(ctx context.Context, tx *sql.Tx, rec RunRecord) error {
	const q = `UPDATE runs SET finished_at = ?, succeeded = ?, oversized = ?, failed = ?, skipped = ?
WHERE id = ?`
	res, err := tx.ExecContext(ctx, q,
		rec.FinishedAt, rec.Succeeded, rec.Oversized, rec.Failed, rec.Skipped, rec.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: run %d not found", rec.ID)
	}
	return nil
}

// ListRecent returns the most recent runs, newest first.
func (r *RunRepo) ListRecent(ctx context.Context, db *sql.DB, limit int) ([]RunRecord, error) {
	const q = `SELECT id, mode, root, started_at, finished_at, succeeded, oversized, failed, skipped
FROM runs ORDER BY id DESC LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Mode, &rec.Root, &rec.StartedAt, &rec.FinishedAt,
			&rec.Succeeded, &rec.Oversized, &rec.Failed, &rec.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
