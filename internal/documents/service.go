package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"approval-backend/internal/jobs"
	"approval-backend/internal/requests"
	"approval-backend/internal/shared/storage/object"
	"approval-backend/internal/shared/telemetry"
	"approval-backend/internal/shared/util"
)

var (
	ErrBadFileName     = errors.New("invalid file name")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds the size limit")
	ErrForbidden       = errors.New("not allowed")
)

// MaxUploadBytes caps a single document upload.
const MaxUploadBytes = 20 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// QueueNotifier wakes workers after a job is enqueued. The jobs table
// stays the source of truth; a lost notification only delays pickup
// until the next poll.
type QueueNotifier interface {
	JobQueued(ctx context.Context, jobID, documentID string)
}

// Service handles document upload, retrieval, and deletion, and
// enqueues the analysis pipeline for every upload.
type Service struct {
	Docs        Repo
	Jobs        jobs.Repo
	Store       object.ObjectStore
	Requests    requests.Repo
	Notify      QueueNotifier
	MaxAttempts int
}

// Upload stores the file, records the document, and queues an analysis
// job. Re-uploaded content (same fingerprint) reuses the existing
// gateway file ID so the pipeline skips the upload step.
func (s *Service) Upload(ctx context.Context, requestType, requestID, uploaderID, fileName string, content io.Reader) (Document, jobs.Job, error) {
	if _, err := s.Requests.GetByID(ctx, requestType, requestID); err != nil {
		return Document{}, jobs.Job{}, err
	}

	fileName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, jobs.Job{}, ErrBadFileName
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return Document{}, jobs.Job{}, ErrUnsupportedType
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(content, MaxUploadBytes+1))
	if err != nil {
		return Document{}, jobs.Job{}, err
	}
	if n > MaxUploadBytes {
		return Document{}, jobs.Job{}, ErrTooLarge
	}

	fingerprint, err := util.Fingerprint(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Document{}, jobs.Job{}, err
	}
	externalFileID := ""
	if existing, err := s.Docs.FindByFingerprint(ctx, fingerprint); err == nil && existing.ExternalFileID != "" {
		externalFileID = existing.ExternalFileID
	}

	scope := requestType + "/" + requestID
	storageKey, size, mime, err := s.Store.Save(ctx, scope, fileName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Document{}, jobs.Job{}, err
	}

	now := time.Now()
	doc := Document{
		ID:             uuid.NewString(),
		RequestType:    requestType,
		RequestID:      requestID,
		UploaderID:     uploaderID,
		FileName:       fileName,
		MimeType:       mime,
		SizeBytes:      size,
		StorageKey:     storageKey,
		Fingerprint:    fingerprint,
		ExternalFileID: externalFileID,
		AnalysisStatus: AnalysisPending,
		CreatedAt:      now,
	}
	if err := s.Docs.Create(ctx, doc); err != nil {
		// Keep storage consistent with the catalogue.
		if derr := s.Store.Delete(ctx, storageKey); derr != nil {
			telemetry.Error("documents.store_cleanup", map[string]any{"storage_key": storageKey, "error": derr.Error()})
		}
		return Document{}, jobs.Job{}, err
	}

	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	job := jobs.Job{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		Status:      jobs.StatusPending,
		CurrentStep: jobs.StepQueued,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
	}
	if err := s.Jobs.Create(ctx, job); err != nil {
		return Document{}, jobs.Job{}, err
	}
	if s.Notify != nil {
		s.Notify.JobQueued(ctx, job.ID, doc.ID)
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"document_id":  doc.ID,
		"request_type": requestType,
		"request_id":   requestID,
		"size_bytes":   size,
		"deduplicated": externalFileID != "",
		"job_id":       job.ID,
	})
	return doc, job, nil
}

func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	return s.Docs.GetByID(ctx, documentID)
}

func (s *Service) ListForRequest(ctx context.Context, requestType, requestID string) ([]Document, error) {
	return s.Docs.ListByRequest(ctx, requestType, requestID)
}

// OpenContent returns the document and a reader over its stored bytes.
// The caller closes the reader.
func (s *Service) OpenContent(ctx context.Context, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

// Status returns the document together with its latest pipeline job,
// if one exists.
func (s *Service) Status(ctx context.Context, documentID string) (Document, *jobs.Job, error) {
	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	job, err := s.Jobs.GetByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return doc, nil, nil
		}
		return Document{}, nil, err
	}
	return doc, &job, nil
}

// Delete soft-deletes the catalogue row and removes the stored object.
// Only the uploader or an admin may delete.
func (s *Service) Delete(ctx context.Context, documentID, actorID, actorRole string) error {
	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UploaderID != actorID && actorRole != "admin" {
		return ErrForbidden
	}
	if err := s.Docs.SoftDelete(ctx, documentID, time.Now()); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Error("documents.store_delete", map[string]any{"storage_key": doc.StorageKey, "error": err.Error()})
	}
	return nil
}
