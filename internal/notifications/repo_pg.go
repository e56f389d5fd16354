package notifications

import (
	"context"
	"database/sql"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, n Notification) error {
	const query = `
INSERT INTO notifications (id, user_id, title, body, kind, request_type, request_id, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)`
	_, err := r.DB.ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Body, n.Kind, n.RequestType, n.RequestID, n.CreatedAt)
	return err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, title, body, kind, COALESCE(request_type, ''), COALESCE(request_id, ''), read_at, created_at
FROM notifications
WHERE user_id = $1 AND ($2 = false OR read_at IS NULL)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`
	rows, err := r.DB.QueryContext(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Kind, &n.RequestType, &n.RequestID, &readAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PGRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`
	var count int
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *PGRepo) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error {
	const query = `
UPDATE notifications SET read_at = $1
WHERE id = $2 AND user_id = $3 AND read_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, notificationID, userID)
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

func (r *PGRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) error {
	const query = `UPDATE notifications SET read_at = $1 WHERE user_id = $2 AND read_at IS NULL`
	_, err := r.DB.ExecContext(ctx, query, at, userID)
	return err
}

var _ Repo = (*PGRepo)(nil)
