package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[string]Job)}
}

func (r *MemoryRepo) Create(_ context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.ID] = job
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, jobID string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) GetByDocument(_ context.Context, documentID string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []Job
	for _, job := range r.jobs {
		if job.DocumentID == documentID {
			matches = append(matches, job)
		}
	}
	if len(matches) == 0 {
		return Job{}, ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return matches[0], nil
}

func (r *MemoryRepo) ClaimNext(_ context.Context) (Job, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []Job
	for _, job := range r.jobs {
		if job.Status == StatusPending {
			pending = append(pending, job)
		}
	}
	if len(pending) == 0 {
		return Job{}, false, nil
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	job := pending[0]
	now := time.Now()
	job.Status = StatusProcessing
	job.Attempts++
	job.StartedAt = &now
	job.UpdatedAt = now
	r.jobs[job.ID] = job
	return job, true, nil
}

func (r *MemoryRepo) UpdateStep(_ context.Context, jobID, step string, stepNumber, progress int) error {
	return r.mutateProcessing(jobID, func(job *Job) {
		job.CurrentStep = step
		job.CurrentStepNumber = stepNumber
		job.StepProgress = progress
	})
}

func (r *MemoryRepo) Complete(_ context.Context, jobID string) error {
	return r.mutateProcessing(jobID, func(job *Job) {
		now := time.Now()
		job.Status = StatusCompleted
		job.CurrentStep = StepCompleted
		job.CurrentStepNumber = len(Steps) + 1
		job.StepProgress = 100
		job.ErrorMessage = ""
		job.FinishedAt = &now
	})
}

func (r *MemoryRepo) Requeue(_ context.Context, jobID, errMsg string) error {
	return r.mutateProcessing(jobID, func(job *Job) {
		job.Status = StatusPending
		job.CurrentStep = StepQueued
		job.CurrentStepNumber = 0
		job.StepProgress = 0
		job.ErrorMessage = errMsg
		job.StartedAt = nil
	})
}

func (r *MemoryRepo) Fail(_ context.Context, jobID, errMsg string) error {
	return r.mutateProcessing(jobID, func(job *Job) {
		now := time.Now()
		job.Status = StatusFailed
		job.ErrorMessage = errMsg
		job.FinishedAt = &now
	})
}

func (r *MemoryRepo) mutateProcessing(jobID string, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status != StatusProcessing {
		return ErrNotFound
	}
	fn(&job)
	job.UpdatedAt = time.Now()
	r.jobs[jobID] = job
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
