package requests

import "errors"

// Status is the request lifecycle state. Stage progression within
// StatusPending is tracked separately by Request.CurrentStage.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusChangesRequested Status = "changes_requested"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitions is the explicit state machine: legal moves only.
// approved and rejected are terminal; changes_requested re-enters
// pending through resubmission only.
var transitions = map[Status][]Status{
	StatusDraft:            {StatusPending},
	StatusPending:          {StatusApproved, StatusRejected, StatusChangesRequested},
	StatusChangesRequested: {StatusPending},
	StatusApproved:         {},
	StatusRejected:         {},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// ValidStatus reports whether raw names a known status.
func ValidStatus(raw string) bool {
	_, ok := transitions[Status(raw)]
	return ok
}
