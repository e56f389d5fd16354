package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"approval-backend/internal/shared/telemetry"
)

// Service creates and serves notifications. Notify is best-effort:
// failures are logged, never propagated to the triggering operation.
type Service struct {
	Repo Repo
}

// Notify records a notification for a user. Errors are swallowed so a
// notification failure cannot fail an approval or an analysis job.
func (s *Service) Notify(ctx context.Context, userID, kind, title, body, requestType, requestID string) {
	n := Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Body:        body,
		Kind:        kind,
		RequestType: requestType,
		RequestID:   requestID,
		CreatedAt:   time.Now(),
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		telemetry.Error("notifications.create", map[string]any{
			"user_id": userID,
			"kind":    kind,
			"error":   err.Error(),
		})
	}
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.Repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.Repo.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.Repo.MarkRead(ctx, notificationID, userID, time.Now())
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.Repo.MarkAllRead(ctx, userID, time.Now())
}
