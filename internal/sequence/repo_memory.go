package sequence

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{values: make(map[string]int64)}
}

// Next increments and returns the counter for name, creating it at 1.
func (r *MemoryRepo) Next(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, errors.New("sequence name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name]++
	return r.values[name], nil
}

var _ Repo = (*MemoryRepo)(nil)
