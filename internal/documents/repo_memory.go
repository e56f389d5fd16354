package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.DeletedAt != nil {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByRequest(_ context.Context, requestType, requestID string) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.DeletedAt == nil && doc.RequestType == requestType && doc.RequestID == requestID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) FindByFingerprint(_ context.Context, fingerprint string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var match Document
	found := false
	for _, doc := range r.docs {
		if doc.DeletedAt != nil || doc.Fingerprint != fingerprint {
			continue
		}
		if doc.ExternalFileID != "" {
			return doc, nil
		}
		if !found || doc.CreatedAt.Before(match.CreatedAt) {
			match = doc
			found = true
		}
	}
	if !found {
		return Document{}, ErrNotFound
	}
	return match, nil
}

func (r *MemoryRepo) SetExternalFileID(_ context.Context, documentID, fileID string) error {
	return r.mutate(documentID, func(doc *Document) {
		doc.ExternalFileID = fileID
	})
}

func (r *MemoryRepo) SetAnalysisStatus(_ context.Context, documentID, status string) error {
	return r.mutate(documentID, func(doc *Document) {
		doc.AnalysisStatus = status
	})
}

func (r *MemoryRepo) SetAnalysisResults(_ context.Context, documentID, summary, insights, status string) error {
	return r.mutate(documentID, func(doc *Document) {
		doc.Summary = summary
		doc.Insights = insights
		doc.AnalysisStatus = status
	})
}

func (r *MemoryRepo) SoftDelete(_ context.Context, documentID string, at time.Time) error {
	return r.mutate(documentID, func(doc *Document) {
		doc.DeletedAt = &at
	})
}

func (r *MemoryRepo) mutate(documentID string, fn func(*Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	fn(&doc)
	r.docs[documentID] = doc
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
