package tasks

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("task not found")

type Repo interface {
	Create(ctx context.Context, task Task) error
	GetByID(ctx context.Context, taskID string) (Task, error)
	ListByUser(ctx context.Context, userID string, pendingOnly bool, limit, offset int) ([]Task, error)
	ListByRequest(ctx context.Context, requestType, requestID string) ([]Task, error)
	// Complete marks one task done; no-op error if absent.
	Complete(ctx context.Context, taskID string, at time.Time) error
	// CompleteForUser closes the user's pending tasks on a request.
	CompleteForUser(ctx context.Context, requestType, requestID, userID string, at time.Time) error
	// CompleteAllForRequest closes every pending task on a request,
	// used when a decision makes further action impossible.
	CompleteAllForRequest(ctx context.Context, requestType, requestID string, at time.Time) error
}
