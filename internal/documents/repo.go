package documents

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("document not found")

type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByRequest(ctx context.Context, requestType, requestID string) ([]Document, error)
	// FindByFingerprint returns any live document with the same content
	// hash, preferring one that already has an external file ID.
	FindByFingerprint(ctx context.Context, fingerprint string) (Document, error)
	SetExternalFileID(ctx context.Context, documentID, fileID string) error
	SetAnalysisStatus(ctx context.Context, documentID, status string) error
	// SetAnalysisResults stores the generated summary and insights and
	// flips the status in one write.
	SetAnalysisResults(ctx context.Context, documentID, summary, insights, status string) error
	SoftDelete(ctx context.Context, documentID string, at time.Time) error
}
