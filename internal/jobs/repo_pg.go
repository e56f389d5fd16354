package jobs

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres. ClaimNext relies on
// FOR UPDATE SKIP LOCKED so concurrent workers never grab the same job.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `
id, document_id, status, current_step, current_step_number, step_progress,
attempts, max_attempts, priority, COALESCE(error_message, ''), started_at, finished_at, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO background_jobs (id, document_id, status, current_step, current_step_number, step_progress, attempts, max_attempts, priority, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		job.ID,
		job.DocumentID,
		job.Status,
		job.CurrentStep,
		job.CurrentStepNumber,
		job.StepProgress,
		job.Attempts,
		job.MaxAttempts,
		job.Priority,
		job.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM background_jobs WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, jobID))
}

func (r *PGRepo) GetByDocument(ctx context.Context, documentID string) (Job, error) {
	query := `
SELECT ` + jobColumns + `
FROM background_jobs
WHERE document_id = $1
ORDER BY created_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, documentID))
}

func (r *PGRepo) ClaimNext(ctx context.Context) (Job, bool, error) {
	query := `
UPDATE background_jobs SET
    status = 'processing',
    attempts = attempts + 1,
    started_at = now(),
    updated_at = now()
WHERE id = (
    SELECT id FROM background_jobs
    WHERE status = 'pending'
    ORDER BY priority DESC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING ` + jobColumns
	job, err := r.scanOne(r.DB.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Job{}, false, nil
		}
		return Job{}, false, err
	}
	return job, true, nil
}

func (r *PGRepo) UpdateStep(ctx context.Context, jobID, step string, stepNumber, progress int) error {
	const query = `
UPDATE background_jobs SET
    current_step = $1,
    current_step_number = $2,
    step_progress = $3,
    updated_at = now()
WHERE id = $4 AND status = 'processing'`
	return r.mustAffect(ctx, query, step, stepNumber, progress, jobID)
}

func (r *PGRepo) Complete(ctx context.Context, jobID string) error {
	const query = `
UPDATE background_jobs SET
    status = 'completed',
    current_step = 'completed',
    current_step_number = $1,
    step_progress = 100,
    error_message = NULL,
    finished_at = now(),
    updated_at = now()
WHERE id = $2 AND status = 'processing'`
	return r.mustAffect(ctx, query, len(Steps)+1, jobID)
}

func (r *PGRepo) Requeue(ctx context.Context, jobID, errMsg string) error {
	const query = `
UPDATE background_jobs SET
    status = 'pending',
    current_step = 'queued',
    current_step_number = 0,
    step_progress = 0,
    error_message = $1,
    updated_at = now()
WHERE id = $2 AND status = 'processing'`
	return r.mustAffect(ctx, query, errMsg, jobID)
}

func (r *PGRepo) Fail(ctx context.Context, jobID, errMsg string) error {
	const query = `
UPDATE background_jobs SET
    status = 'failed',
    error_message = $1,
    finished_at = now(),
    updated_at = now()
WHERE id = $2 AND status = 'processing'`
	return r.mustAffect(ctx, query, errMsg, jobID)
}

func (r *PGRepo) mustAffect(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) scanOne(row *sql.Row) (Job, error) {
	var job Job
	var started, finished sql.NullTime
	err := row.Scan(
		&job.ID, &job.DocumentID, &job.Status, &job.CurrentStep, &job.CurrentStepNumber, &job.StepProgress,
		&job.Attempts, &job.MaxAttempts, &job.Priority, &job.ErrorMessage, &started, &finished, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	if started.Valid {
		t := started.Time
		job.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return job, nil
}

var _ Repo = (*PGRepo)(nil)
