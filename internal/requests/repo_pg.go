package requests

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

const requestColumns = `
id, ref_code, request_type, title, description, requester_id, amount_cents,
currency, risk_level, status, current_stage, current_cycle,
submitted_at, decided_at, created_at, updated_at`

// Create inserts a new request.
func (r *PGRepo) Create(ctx context.Context, req Request) error {
	const query = `
INSERT INTO requests (
    id, ref_code, request_type, title, description, requester_id, amount_cents,
    currency, risk_level, status, current_stage, current_cycle, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		req.ID,
		req.RefCode,
		req.Type,
		req.Title,
		req.Description,
		req.RequesterID,
		req.AmountCents,
		req.Currency,
		req.RiskLevel,
		string(req.Status),
		req.CurrentStage,
		req.CurrentCycle,
		req.CreatedAt,
	)
	return err
}

// GetByID fetches a request, excluding soft-deleted rows.
func (r *PGRepo) GetByID(ctx context.Context, requestType, id string) (Request, error) {
	query := `
SELECT ` + requestColumns + `
FROM requests
WHERE request_type = $1 AND id = $2 AND deleted_at IS NULL`
	return scanRequest(r.DB.QueryRowContext(ctx, query, requestType, id))
}

// List returns requests matching the filter, newest first.
func (r *PGRepo) List(ctx context.Context, filter Filter) ([]Request, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + requestColumns + `
FROM requests
WHERE deleted_at IS NULL
  AND ($1 = '' OR requester_id = $1)
  AND ($2 = '' OR request_type = $2)
  AND ($3 = '' OR status = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

	rows, err := r.DB.QueryContext(ctx, query, filter.RequesterID, filter.Type, string(filter.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequestRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields.
func (r *PGRepo) Update(ctx context.Context, req Request) error {
	const query = `
UPDATE requests
SET title = $1, description = $2, amount_cents = $3, currency = $4, risk_level = $5, updated_at = now()
WHERE request_type = $6 AND id = $7 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, req.Title, req.Description, req.AmountCents, req.Currency, req.RiskLevel, req.Type, req.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrNotFound)
}

// Submit flips draft -> pending at stage 1.
func (r *PGRepo) Submit(ctx context.Context, requestType, id string, at time.Time) error {
	const query = `
UPDATE requests
SET status = 'pending', current_stage = 1, submitted_at = $1, updated_at = now()
WHERE request_type = $2 AND id = $3 AND status = 'draft' AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, requestType, id)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrConflict)
}

// CASAdvance moves current_stage with an optimistic guard on the prior stage.
func (r *PGRepo) CASAdvance(ctx context.Context, requestType, id string, cycle, expectStage, newStage int, newStatus Status, decidedAt *time.Time) error {
	const query = `
UPDATE requests
SET current_stage = $1, status = $2, decided_at = COALESCE($3, decided_at), updated_at = now()
WHERE request_type = $4 AND id = $5
  AND current_cycle = $6 AND current_stage = $7
  AND status = 'pending' AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, newStage, string(newStatus), decidedAt, requestType, id, cycle, expectStage)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrConflict)
}

// SetDecision records reject / changes_requested from pending.
func (r *PGRepo) SetDecision(ctx context.Context, requestType, id string, cycle int, newStatus Status, at time.Time) error {
	const query = `
UPDATE requests
SET status = $1, decided_at = $2, updated_at = now()
WHERE request_type = $3 AND id = $4
  AND current_cycle = $5 AND status = 'pending' AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, string(newStatus), at, requestType, id, cycle)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrConflict)
}

// StartCycle bumps the cycle and re-enters pending at stage 1.
func (r *PGRepo) StartCycle(ctx context.Context, requestType, id string) (int, error) {
	const query = `
UPDATE requests
SET current_cycle = current_cycle + 1, current_stage = 1, status = 'pending',
    decided_at = NULL, updated_at = now()
WHERE request_type = $1 AND id = $2 AND status = 'changes_requested' AND deleted_at IS NULL
RETURNING current_cycle`
	var cycle int
	err := r.DB.QueryRowContext(ctx, query, requestType, id).Scan(&cycle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrConflict
		}
		return 0, err
	}
	return cycle, nil
}

// SoftDelete marks the request deleted.
func (r *PGRepo) SoftDelete(ctx context.Context, requestType, id string, at time.Time) error {
	const query = `
UPDATE requests
SET deleted_at = $1, updated_at = now()
WHERE request_type = $2 AND id = $3 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, requestType, id)
	if err != nil {
		return err
	}
	return mustAffect(res, ErrNotFound)
}

func mustAffect(res sql.Result, onZero error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return onZero
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row *sql.Row) (Request, error) {
	req, err := scanRequestRows(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

func scanRequestRows(row rowScanner) (Request, error) {
	var req Request
	var status string
	var submittedAt, decidedAt sql.NullTime
	err := row.Scan(
		&req.ID,
		&req.RefCode,
		&req.Type,
		&req.Title,
		&req.Description,
		&req.RequesterID,
		&req.AmountCents,
		&req.Currency,
		&req.RiskLevel,
		&status,
		&req.CurrentStage,
		&req.CurrentCycle,
		&submittedAt,
		&decidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return Request{}, err
	}
	req.Status = Status(status)
	if submittedAt.Valid {
		req.SubmittedAt = &submittedAt.Time
	}
	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	return req, nil
}

var _ Repo = (*PGRepo)(nil)
