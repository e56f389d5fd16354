package templates

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{templates: make(map[string]Template)}
}

func (r *MemoryRepo) Create(_ context.Context, tpl Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl.UpdatedAt = tpl.CreatedAt
	r.templates[tpl.ID] = tpl
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, templateID string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[templateID]
	if !ok {
		return Template{}, ErrNotFound
	}
	return tpl, nil
}

func (r *MemoryRepo) List(_ context.Context, templateType string) ([]Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Template
	for _, tpl := range r.templates {
		if templateType == "" || tpl.Type == templateType {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) Update(_ context.Context, tpl Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.templates[tpl.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = tpl.Name
	existing.Type = tpl.Type
	existing.Body = tpl.Body
	existing.UpdatedAt = time.Now()
	r.templates[tpl.ID] = existing
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, templateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[templateID]; !ok {
		return ErrNotFound
	}
	delete(r.templates, templateID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
