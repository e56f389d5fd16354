package tasks

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: make(map[string]Task)}
}

func (r *MemoryRepo) Create(_ context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, taskID string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID string, pendingOnly bool, limit, offset int) ([]Task, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Task
	for _, task := range r.tasks {
		if task.UserID != userID {
			continue
		}
		if pendingOnly && task.Status != StatusPending {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListByRequest(_ context.Context, requestType, requestID string) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Task
	for _, task := range r.tasks {
		if task.RequestType == requestType && task.RequestID == requestID {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Complete(_ context.Context, taskID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok || task.Status == StatusCompleted {
		return ErrNotFound
	}
	task.Status = StatusCompleted
	task.CompletedAt = &at
	r.tasks[taskID] = task
	return nil
}

func (r *MemoryRepo) CompleteForUser(_ context.Context, requestType, requestID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.RequestType == requestType && task.RequestID == requestID && task.UserID == userID && task.Status == StatusPending {
			task.Status = StatusCompleted
			task.CompletedAt = &at
			r.tasks[id] = task
		}
	}
	return nil
}

func (r *MemoryRepo) CompleteAllForRequest(_ context.Context, requestType, requestID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.RequestType == requestType && task.RequestID == requestID && task.Status == StatusPending {
			task.Status = StatusCompleted
			task.CompletedAt = &at
			r.tasks[id] = task
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
