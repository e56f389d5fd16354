package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"approval-backend/internal/users"
)

// ErrForbidden is returned when a user acts on a task they do not own.
var ErrForbidden = errors.New("task does not belong to user")

// Service wraps task reads and completion with ownership checks.
type Service struct {
	Repo Repo
}

// DefaultDueIn is how far out newly assigned tasks are due.
const DefaultDueIn = 72 * time.Hour

// New builds a task assigned to a user for a request.
func New(userID, requestType, requestID, kind, title string, now time.Time) Task {
	due := now.Add(DefaultDueIn)
	return Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		RequestType: requestType,
		RequestID:   requestID,
		Kind:        kind,
		Title:       title,
		DueDate:     &due,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

// ListMine returns the caller's tasks with overdue status computed.
func (s *Service) ListMine(ctx context.Context, userID string, pendingOnly bool, limit, offset int) ([]Task, error) {
	out, err := s.Repo.ListByUser(ctx, userID, pendingOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range out {
		out[i].Status = out[i].EffectiveStatus(now)
	}
	return out, nil
}

// ListForRequest returns all tasks on a request, overdue status computed.
func (s *Service) ListForRequest(ctx context.Context, requestType, requestID string) ([]Task, error) {
	out, err := s.Repo.ListByRequest(ctx, requestType, requestID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range out {
		out[i].Status = out[i].EffectiveStatus(now)
	}
	return out, nil
}

// Complete marks a task done. Only the assignee or an admin may complete it.
func (s *Service) Complete(ctx context.Context, taskID, actorID, actorRole string) error {
	task, err := s.Repo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID != actorID && actorRole != users.RoleAdmin {
		return ErrForbidden
	}
	return s.Repo.Complete(ctx, taskID, time.Now())
}
