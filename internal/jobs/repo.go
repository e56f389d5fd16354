package jobs

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("job not found")

type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	// GetByDocument returns the most recent job for a document.
	GetByDocument(ctx context.Context, documentID string) (Job, error)
	// ClaimNext atomically moves the highest-priority pending job to
	// processing and increments its attempt counter. ok is false when
	// the queue is empty.
	ClaimNext(ctx context.Context) (job Job, ok bool, err error)
	// UpdateStep records pipeline progress on a processing job.
	UpdateStep(ctx context.Context, jobID, step string, stepNumber, progress int) error
	Complete(ctx context.Context, jobID string) error
	// Requeue puts a failed attempt back in the queue for a retry.
	Requeue(ctx context.Context, jobID, errMsg string) error
	// Fail marks a job terminally failed.
	Fail(ctx context.Context, jobID, errMsg string) error
}
