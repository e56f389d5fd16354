package approvals

import (
	"context"
	"errors"
)

// ErrConflict means an approval already exists for the request's
// current stage in the live cycle: another approver got there first.
var ErrConflict = errors.New("stage already decided")

type Repo interface {
	// Create inserts a decision. Returns ErrConflict when the live
	// cycle already holds a decision for the same stage.
	Create(ctx context.Context, approval Approval) error
	ListCurrentCycle(ctx context.Context, requestType, requestID string) ([]Approval, error)
	ListAllCycles(ctx context.Context, requestType, requestID string) ([]Approval, error)
	// MarkCycleHistorical flips the live cycle's rows to historical so a
	// new cycle can collect decisions at the same stages.
	MarkCycleHistorical(ctx context.Context, requestType, requestID string) error
}
