package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new user.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, role, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		user.ID,
		strings.ToLower(user.Email),
		user.FullName,
		user.Role,
		string(user.PasswordHash),
		user.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "users_email_key") {
		return ErrEmailExists
	}
	return err
}

// GetByID fetches a user by ID.
func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, full_name, role, password_hash, created_at, updated_at
FROM users
WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID))
}

// GetByEmail fetches a user by email (case-insensitive).
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT id, email, full_name, role, password_hash, created_at, updated_at
FROM users
WHERE email = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, strings.ToLower(email)))
}

// ListByRole returns all users holding the given role.
func (r *PGRepo) ListByRole(ctx context.Context, role string) ([]User, error) {
	const query = `
SELECT id, email, full_name, role, password_hash, created_at, updated_at
FROM users
WHERE role = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var user User
		var hash string
		if err := rows.Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &hash, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.PasswordHash = []byte(hash)
		out = append(out, user)
	}
	return out, rows.Err()
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	var hash string
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &hash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.PasswordHash = []byte(hash)
	return user, nil
}

var _ Repo = (*PGRepo)(nil)
