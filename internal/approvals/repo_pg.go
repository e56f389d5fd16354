package approvals

import (
	"context"
	"database/sql"
	"strings"
)

// PGRepo implements Repo using Postgres. The partial unique index on
// (request_type, request_id, stage) over live-cycle rows serializes
// concurrent decisions at the same stage.
type PGRepo struct {
	DB *sql.DB
}

const approvalColumns = `
id, request_type, request_id, cycle, stage, approver_id, outcome, comments, is_current_cycle, decided_at, created_at`

func (r *PGRepo) Create(ctx context.Context, approval Approval) error {
	const query = `
INSERT INTO approvals (id, request_type, request_id, cycle, stage, approver_id, outcome, comments, is_current_cycle, decided_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		approval.ID,
		approval.RequestType,
		approval.RequestID,
		approval.Cycle,
		approval.Stage,
		approval.ApproverID,
		approval.Outcome,
		approval.Comments,
		approval.IsCurrentCycle,
		approval.DecidedAt,
		approval.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "uq_approvals_current_stage") {
		return ErrConflict
	}
	return err
}

func (r *PGRepo) ListCurrentCycle(ctx context.Context, requestType, requestID string) ([]Approval, error) {
	query := `
SELECT ` + approvalColumns + `
FROM approvals
WHERE request_type = $1 AND request_id = $2 AND is_current_cycle
ORDER BY stage ASC`
	return r.list(ctx, query, requestType, requestID)
}

func (r *PGRepo) ListAllCycles(ctx context.Context, requestType, requestID string) ([]Approval, error) {
	query := `
SELECT ` + approvalColumns + `
FROM approvals
WHERE request_type = $1 AND request_id = $2
ORDER BY cycle ASC, stage ASC`
	return r.list(ctx, query, requestType, requestID)
}

func (r *PGRepo) MarkCycleHistorical(ctx context.Context, requestType, requestID string) error {
	const query = `
UPDATE approvals SET is_current_cycle = false
WHERE request_type = $1 AND request_id = $2 AND is_current_cycle`
	_, err := r.DB.ExecContext(ctx, query, requestType, requestID)
	return err
}

func (r *PGRepo) list(ctx context.Context, query, requestType, requestID string) ([]Approval, error) {
	rows, err := r.DB.QueryContext(ctx, query, requestType, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		var a Approval
		if err := rows.Scan(&a.ID, &a.RequestType, &a.RequestID, &a.Cycle, &a.Stage, &a.ApproverID, &a.Outcome, &a.Comments, &a.IsCurrentCycle, &a.DecidedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
