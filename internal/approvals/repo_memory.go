package approvals

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
// It enforces the same one-live-decision-per-stage rule the Postgres
// unique index provides.
type MemoryRepo struct {
	mu    sync.Mutex
	items []Approval
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(_ context.Context, approval Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if approval.IsCurrentCycle {
		for _, a := range r.items {
			if a.IsCurrentCycle && a.RequestType == approval.RequestType && a.RequestID == approval.RequestID && a.Stage == approval.Stage {
				return ErrConflict
			}
		}
	}
	r.items = append(r.items, approval)
	return nil
}

func (r *MemoryRepo) ListCurrentCycle(_ context.Context, requestType, requestID string) ([]Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Approval
	for _, a := range r.items {
		if a.IsCurrentCycle && a.RequestType == requestType && a.RequestID == requestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out, nil
}

func (r *MemoryRepo) ListAllCycles(_ context.Context, requestType, requestID string) ([]Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Approval
	for _, a := range r.items {
		if a.RequestType == requestType && a.RequestID == requestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cycle != out[j].Cycle {
			return out[i].Cycle < out[j].Cycle
		}
		return out[i].Stage < out[j].Stage
	})
	return out, nil
}

func (r *MemoryRepo) MarkCycleHistorical(_ context.Context, requestType, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].RequestType == requestType && r.items[i].RequestID == requestID {
			r.items[i].IsCurrentCycle = false
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
