// Package notifications stores and serves per-user in-app notifications.
package notifications

import (
	"context"
	"errors"
	"time"
)

// Notification kinds.
const (
	KindApprovalNeeded    = "approval_needed"
	KindDecision          = "decision"
	KindChangesRequested  = "changes_requested"
	KindAnalysisCompleted = "analysis_completed"
	KindAnalysisFailed    = "analysis_failed"
)

type Notification struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Kind        string     `json:"kind"`
	RequestType string     `json:"requestType,omitempty"`
	RequestID   string     `json:"requestId,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

var ErrNotFound = errors.New("notification not found")

// Repo is the storage contract for notifications.
type Repo interface {
	Create(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID, userID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) error
}
