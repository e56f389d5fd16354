package templates

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const templateColumns = `id, name, type, body, created_by, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, tpl Template) error {
	const query = `
INSERT INTO templates (id, name, type, body, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`
	_, err := r.DB.ExecContext(ctx, query, tpl.ID, tpl.Name, tpl.Type, []byte(tpl.Body), tpl.CreatedBy, tpl.CreatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, templateID string) (Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, templateID)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return tpl, nil
}

func (r *PGRepo) List(ctx context.Context, templateType string) ([]Template, error) {
	query := `
SELECT ` + templateColumns + `
FROM templates
WHERE ($1 = '' OR type = $1)
ORDER BY name ASC`
	rows, err := r.DB.QueryContext(ctx, query, templateType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var tpl Template
		var body []byte
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.Type, &body, &tpl.CreatedBy, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
			return nil, err
		}
		tpl.Body = body
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, tpl Template) error {
	const query = `
UPDATE templates SET name = $1, type = $2, body = $3, updated_at = now()
WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, tpl.Name, tpl.Type, []byte(tpl.Body), tpl.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *PGRepo) Delete(ctx context.Context, templateID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, templateID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTemplate(row *sql.Row) (Template, error) {
	var tpl Template
	var body []byte
	if err := row.Scan(&tpl.ID, &tpl.Name, &tpl.Type, &body, &tpl.CreatedBy, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
		return Template{}, err
	}
	tpl.Body = body
	return tpl, nil
}

var _ Repo = (*PGRepo)(nil)
