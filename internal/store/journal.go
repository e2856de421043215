package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/stylebook/tiermill/internal/domain"
)

// Journal is the façade the pipeline writes through. A nil *Journal is
// a valid no-op, so the pipeline carries no journal conditionals.
type Journal struct {
	DB      *sql.DB
	RunRepo *RunRepo
	JobRepo *JobRepo
}

// Open creates a Journal backed by the SQLite file at path.
func Open(path string) (*Journal, error) {
	db, err := NewDB(path)
	if err != nil {
		return nil, domain.WrapPipelineError(domain.ErrJournalInit.Code, path, err)
	}
	return &Journal{DB: db, RunRepo: &RunRepo{}, JobRepo: &JobRepo{}}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	if j == nil || j.DB == nil {
		return nil
	}
	return j.DB.Close()
}

// StartRun journals the beginning of a run and returns its ID.
func (j *Journal) StartRun(ctx context.Context, mode domain.RunMode, root string) (int64, error) {
	if j == nil {
		return 0, nil
	}
	id, err := j.RunRepo.Create(ctx, j.DB, string(mode), root, time.Now().Unix())
	if err != nil {
		return 0, domain.WrapPipelineError(domain.ErrJournalWrite.Code, "start run", err)
	}
	return id, nil
}

// RecordJob journals one terminal job result.
func (j *Journal) RecordJob(ctx context.Context, runID int64, res domain.JobResult) error {
	if j == nil {
		return nil
	}
	rec := JobRecord{
		RunID:      runID,
		Source:     res.Source,
		Tier:       res.Tier,
		Outcome:    res.Outcome,
		Attempts:   res.Attempts,
		SizeBytes:  res.Size,
		LimitBytes: res.Limit,
		CreatedAt:  time.Now().Unix(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := j.JobRepo.Append(ctx, j.DB, rec); err != nil {
		return domain.WrapPipelineError(domain.ErrJournalWrite.Code, "record job", err)
	}
	return nil
}

// FinishRun journals the final counters of a run.
func (j *Journal) FinishRun(ctx context.Context, runID int64, succeeded, oversized, failed, skipped int) error {
	if j == nil {
		return nil
	}
	tx, err := j.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapPipelineError(domain.ErrJournalWrite.Code, "finish run", err)
	}
	defer tx.Rollback()

	rec := RunRecord{
		ID:         runID,
		FinishedAt: time.Now().Unix(),
		Succeeded:  succeeded,
		Oversized:  oversized,
		Failed:     failed,
		Skipped:    skipped,
	}
	if err := j.RunRepo.FinishTx(ctx, tx, rec); err != nil {
		return domain.WrapPipelineError(domain.ErrJournalWrite.Code, "finish run", err)
	}
	return tx.Commit()
}
