package requests

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Request // key: type/id
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Request)}
}

func key(requestType, id string) string {
	return requestType + "/" + id
}

// Create stores a new request.
func (r *MemoryRepo) Create(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key(req.Type, req.ID)] = req
	return nil
}

// GetByID returns a request, excluding soft-deleted ones.
func (r *MemoryRepo) GetByID(ctx context.Context, requestType, id string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.data[key(requestType, id)]
	if !ok || req.DeletedAt != nil {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// List returns requests matching the filter, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Request
	for _, req := range r.data {
		if req.DeletedAt != nil {
			continue
		}
		if filter.RequesterID != "" && req.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Type != "" && req.Type != filter.Type {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Request{}, nil
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

// Update rewrites the editable fields.
func (r *MemoryRepo) Update(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[key(req.Type, req.ID)]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	existing.Title = req.Title
	existing.Description = req.Description
	existing.AmountCents = req.AmountCents
	existing.Currency = req.Currency
	existing.RiskLevel = req.RiskLevel
	existing.UpdatedAt = time.Now().UTC()
	r.data[key(req.Type, req.ID)] = existing
	return nil
}

// Submit flips draft -> pending at stage 1.
func (r *MemoryRepo) Submit(ctx context.Context, requestType, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[key(requestType, id)]
	if !ok || req.DeletedAt != nil || req.Status != StatusDraft {
		return ErrConflict
	}
	req.Status = StatusPending
	req.CurrentStage = 1
	req.SubmittedAt = &at
	req.UpdatedAt = at
	r.data[key(requestType, id)] = req
	return nil
}

// CASAdvance moves current_stage with an optimistic guard on the prior stage.
func (r *MemoryRepo) CASAdvance(ctx context.Context, requestType, id string, cycle, expectStage, newStage int, newStatus Status, decidedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[key(requestType, id)]
	if !ok || req.DeletedAt != nil ||
		req.CurrentCycle != cycle || req.CurrentStage != expectStage || req.Status != StatusPending {
		return ErrConflict
	}
	req.CurrentStage = newStage
	req.Status = newStatus
	if decidedAt != nil {
		req.DecidedAt = decidedAt
	}
	req.UpdatedAt = time.Now().UTC()
	r.data[key(requestType, id)] = req
	return nil
}

// SetDecision records reject / changes_requested from pending.
func (r *MemoryRepo) SetDecision(ctx context.Context, requestType, id string, cycle int, newStatus Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[key(requestType, id)]
	if !ok || req.DeletedAt != nil || req.CurrentCycle != cycle || req.Status != StatusPending {
		return ErrConflict
	}
	req.Status = newStatus
	req.DecidedAt = &at
	req.UpdatedAt = at
	r.data[key(requestType, id)] = req
	return nil
}

// StartCycle bumps the cycle and re-enters pending at stage 1.
func (r *MemoryRepo) StartCycle(ctx context.Context, requestType, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[key(requestType, id)]
	if !ok || req.DeletedAt != nil || req.Status != StatusChangesRequested {
		return 0, ErrConflict
	}
	req.CurrentCycle++
	req.CurrentStage = 1
	req.Status = StatusPending
	req.DecidedAt = nil
	req.UpdatedAt = time.Now().UTC()
	r.data[key(requestType, id)] = req
	return req.CurrentCycle, nil
}

// SoftDelete marks the request deleted.
func (r *MemoryRepo) SoftDelete(ctx context.Context, requestType, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[key(requestType, id)]
	if !ok || req.DeletedAt != nil {
		return ErrNotFound
	}
	req.DeletedAt = &at
	req.UpdatedAt = at
	r.data[key(requestType, id)] = req
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
