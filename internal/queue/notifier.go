package queue

import (
	"context"
	"time"

	"approval-backend/internal/shared/telemetry"
)

const messageVersion = 1

// Notifier adapts a queue Client to the best-effort wake-up hook the
// document service calls after enqueueing a job.
type Notifier struct {
	Client Client
}

// JobQueued sends a wake-up message. Failures are logged and dropped.
func (n *Notifier) JobQueued(ctx context.Context, jobID, documentID string) {
	if n == nil || n.Client == nil {
		return
	}
	msg := Message{
		JobID:      jobID,
		DocumentID: documentID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    messageVersion,
	}
	if err := n.Client.Send(ctx, msg); err != nil {
		telemetry.Error("queue.notify", map[string]any{
			"job_id":      jobID,
			"document_id": documentID,
			"error":       err.Error(),
		})
	}
}
