package sequence

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Next atomically increments and returns the counter for name, creating it at 1.
// The single upsert statement is the atomicity guarantee: two concurrent calls
// serialize on the row and observe distinct values.
func (r *PGRepo) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, errors.New("sequence name is required")
	}
	const query = `
INSERT INTO sequences (name, value)
VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
RETURNING value`
	var value int64
	if err := r.DB.QueryRowContext(ctx, query, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

var _ Repo = (*PGRepo)(nil)
