package tasks

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const taskColumns = `
id, user_id, request_type, request_id, kind, title, due_date, status, completed_at, created_at`

// Create inserts a new task.
func (r *PGRepo) Create(ctx context.Context, task Task) error {
	const query = `
INSERT INTO tasks (id, user_id, request_type, request_id, kind, title, due_date, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.RequestType,
		task.RequestID,
		task.Kind,
		task.Title,
		task.DueDate,
		task.Status,
		task.CreatedAt,
	)
	return err
}

// GetByID fetches a task.
func (r *PGRepo) GetByID(ctx context.Context, taskID string) (Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, taskID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

// ListByUser returns a user's tasks, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, pendingOnly bool, limit, offset int) ([]Task, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = $1 AND ($2 = false OR status = 'pending')
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`
	rows, err := r.DB.QueryContext(ctx, query, userID, pendingOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListByRequest returns all tasks attached to a request.
func (r *PGRepo) ListByRequest(ctx context.Context, requestType, requestID string) ([]Task, error) {
	query := `
SELECT ` + taskColumns + `
FROM tasks
WHERE request_type = $1 AND request_id = $2
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, requestType, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Complete marks one task done.
func (r *PGRepo) Complete(ctx context.Context, taskID string, at time.Time) error {
	const query = `
UPDATE tasks SET status = 'completed', completed_at = $1
WHERE id = $2 AND status <> 'completed'`
	res, err := r.DB.ExecContext(ctx, query, at, taskID)
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

// CompleteForUser closes the user's pending tasks on a request.
func (r *PGRepo) CompleteForUser(ctx context.Context, requestType, requestID, userID string, at time.Time) error {
	const query = `
UPDATE tasks SET status = 'completed', completed_at = $1
WHERE request_type = $2 AND request_id = $3 AND user_id = $4 AND status = 'pending'`
	_, err := r.DB.ExecContext(ctx, query, at, requestType, requestID, userID)
	return err
}

// CompleteAllForRequest closes every pending task on a request.
func (r *PGRepo) CompleteAllForRequest(ctx context.Context, requestType, requestID string, at time.Time) error {
	const query = `
UPDATE tasks SET status = 'completed', completed_at = $1
WHERE request_type = $2 AND request_id = $3 AND status = 'pending'`
	_, err := r.DB.ExecContext(ctx, query, at, requestType, requestID)
	return err
}

func scanTask(row *sql.Row) (Task, error) {
	var task Task
	var due, completed sql.NullTime
	err := row.Scan(&task.ID, &task.UserID, &task.RequestType, &task.RequestID, &task.Kind, &task.Title, &due, &task.Status, &completed, &task.CreatedAt)
	if err != nil {
		return Task{}, err
	}
	if due.Valid {
		task.DueDate = &due.Time
	}
	if completed.Valid {
		task.CompletedAt = &completed.Time
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var out []Task
	for rows.Next() {
		var task Task
		var due, completed sql.NullTime
		if err := rows.Scan(&task.ID, &task.UserID, &task.RequestType, &task.RequestID, &task.Kind, &task.Title, &due, &task.Status, &completed, &task.CreatedAt); err != nil {
			return nil, err
		}
		if due.Valid {
			task.DueDate = &due.Time
		}
		if completed.Valid {
			task.CompletedAt = &completed.Time
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
