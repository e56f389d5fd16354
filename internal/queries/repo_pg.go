package queries

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres. Document IDs are stored as a
// JSONB array.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, entry Entry) error {
	ids := entry.DocumentIDs
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO query_history (id, user_id, kind, query, answer, document_ids, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.DB.ExecContext(ctx, query, entry.ID, entry.UserID, entry.Kind, entry.Query, entry.Answer, payload, entry.CreatedAt)
	return err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID, kind string, limit, offset int) ([]Entry, error) {
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
SELECT id, user_id, kind, query, answer, document_ids, created_at
FROM query_history
WHERE user_id = $1 AND ($2 = '' OR kind = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`
	rows, err := r.DB.QueryContext(ctx, query, userID, kind, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var rawIDs []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Kind, &entry.Query, &entry.Answer, &rawIDs, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawIDs, &entry.DocumentIDs); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
