package tasks

import "time"

const (
	KindApproval = "approval"
	KindChanges  = "changes"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

// Task is a denormalized reminder row pointing at an actionable approval
// or change request. Overdue is computed against DueDate at read time.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	RequestType string     `json:"requestType"`
	RequestID   string     `json:"requestId"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// EffectiveStatus returns the status with overdue computed at read time.
func (t Task) EffectiveStatus(now time.Time) string {
	if t.Status == StatusPending && t.DueDate != nil && now.After(*t.DueDate) {
		return StatusOverdue
	}
	return t.Status
}
