package documents

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

const documentColumns = `
id, request_type, request_id, uploader_id, file_name, mime_type, size_bytes,
storage_key, fingerprint, COALESCE(external_file_id, ''), analysis_status,
COALESCE(summary, ''), COALESCE(insights, ''), created_at, deleted_at`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, request_type, request_id, uploader_id, file_name, mime_type, size_bytes, storage_key, fingerprint, external_file_id, analysis_status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.RequestType,
		doc.RequestID,
		doc.UploaderID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.Fingerprint,
		doc.ExternalFileID,
		doc.AnalysisStatus,
		doc.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted_at IS NULL`
	return scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
}

func (r *PGRepo) ListByRequest(ctx context.Context, requestType, requestID string) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE request_type = $1 AND request_id = $2 AND deleted_at IS NULL
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, requestType, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) FindByFingerprint(ctx context.Context, fingerprint string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE fingerprint = $1 AND deleted_at IS NULL
ORDER BY (external_file_id IS NOT NULL) DESC, created_at ASC
LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, fingerprint))
}

func (r *PGRepo) SetExternalFileID(ctx context.Context, documentID, fileID string) error {
	const query = `UPDATE documents SET external_file_id = $1 WHERE id = $2 AND deleted_at IS NULL`
	return r.mustAffect(ctx, query, fileID, documentID)
}

func (r *PGRepo) SetAnalysisStatus(ctx context.Context, documentID, status string) error {
	const query = `UPDATE documents SET analysis_status = $1 WHERE id = $2 AND deleted_at IS NULL`
	return r.mustAffect(ctx, query, status, documentID)
}

func (r *PGRepo) SetAnalysisResults(ctx context.Context, documentID, summary, insights, status string) error {
	const query = `
UPDATE documents SET summary = $1, insights = $2, analysis_status = $3
WHERE id = $4 AND deleted_at IS NULL`
	return r.mustAffect(ctx, query, summary, insights, status, documentID)
}

func (r *PGRepo) SoftDelete(ctx context.Context, documentID string, at time.Time) error {
	const query = `UPDATE documents SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	return r.mustAffect(ctx, query, at, documentID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (Document, error) {
	doc, err := scanDocumentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func scanDocumentRow(row rowScanner) (Document, error) {
	var doc Document
	var deleted sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.RequestType, &doc.RequestID, &doc.UploaderID, &doc.FileName, &doc.MimeType, &doc.SizeBytes,
		&doc.StorageKey, &doc.Fingerprint, &doc.ExternalFileID, &doc.AnalysisStatus,
		&doc.Summary, &doc.Insights, &doc.CreatedAt, &deleted,
	)
	if err != nil {
		return Document{}, err
	}
	if deleted.Valid {
		doc.DeletedAt = &deleted.Time
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
