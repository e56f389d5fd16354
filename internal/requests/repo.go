package requests

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("request not found")
	// ErrConflict means a guarded update lost a race: the request's
	// status or stage moved between read and write.
	ErrConflict = errors.New("request state changed concurrently")
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	RequesterID string
	Type        string
	Status      Status
	Limit       int
	Offset      int
}

type Repo interface {
	Create(ctx context.Context, req Request) error
	GetByID(ctx context.Context, requestType, id string) (Request, error)
	List(ctx context.Context, filter Filter) ([]Request, error)
	// Update rewrites the editable fields (title, description, amount,
	// currency, risk level). Callers enforce status rules.
	Update(ctx context.Context, req Request) error
	// Submit flips draft -> pending at stage 1; ErrConflict if not draft.
	Submit(ctx context.Context, requestType, id string, at time.Time) error
	// CASAdvance moves the stage pointer from expectStage with an optimistic
	// guard; ErrConflict when another approver advanced it first.
	CASAdvance(ctx context.Context, requestType, id string, cycle, expectStage, newStage int, newStatus Status, decidedAt *time.Time) error
	// SetDecision records a terminal or changes-requested outcome from pending.
	SetDecision(ctx context.Context, requestType, id string, cycle int, newStatus Status, at time.Time) error
	// StartCycle re-enters the workflow after changes_requested: cycle+1,
	// stage 1, pending. Returns the new cycle number.
	StartCycle(ctx context.Context, requestType, id string) (int, error)
	SoftDelete(ctx context.Context, requestType, id string, at time.Time) error
}
