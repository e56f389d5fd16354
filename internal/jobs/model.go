// Package jobs is the database-backed queue for document analysis work.
// The table is the source of truth; SQS, when configured, only wakes
// workers up faster than the poll interval would.
package jobs

import "time"

// Job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Pipeline steps, in execution order.
const (
	StepQueued             = "queued"
	StepPreparing          = "preparing"
	StepUploading          = "uploading"
	StepAnalyzing          = "analyzing"
	StepGeneratingSummary  = "generating_summary"
	StepGeneratingInsights = "generating_insights"
	StepCompleted          = "completed"
)

// Steps lists the pipeline steps a worker runs through, in order.
// StepQueued and StepCompleted bracket the list and are not run.
var Steps = []string{
	StepPreparing,
	StepUploading,
	StepAnalyzing,
	StepGeneratingSummary,
	StepGeneratingInsights,
}

// StepNumber returns the 1-based position of a step, 0 for queued.
func StepNumber(step string) int {
	for i, s := range Steps {
		if s == step {
			return i + 1
		}
	}
	if step == StepCompleted {
		return len(Steps) + 1
	}
	return 0
}

// Job is one unit of analysis work tied to a document.
type Job struct {
	ID                string     `json:"id"`
	DocumentID        string     `json:"documentId"`
	Status            string     `json:"status"`
	CurrentStep       string     `json:"currentStep"`
	CurrentStepNumber int        `json:"currentStepNumber"`
	StepProgress      int        `json:"stepProgress"`
	Attempts          int        `json:"attempts"`
	MaxAttempts       int        `json:"maxAttempts"`
	Priority          int        `json:"priority"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	FinishedAt        *time.Time `json:"finishedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
