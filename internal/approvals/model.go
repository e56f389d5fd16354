package approvals

import "time"

// Approval outcomes.
const (
	OutcomeApproved         = "approved"
	OutcomeRejected         = "rejected"
	OutcomeChangesRequested = "changes_requested"
)

// ValidOutcome reports whether raw names a known outcome.
func ValidOutcome(raw string) bool {
	return raw == OutcomeApproved || raw == OutcomeRejected || raw == OutcomeChangesRequested
}

// Approval is one approver's decision at one stage of one review cycle.
// IsCurrentCycle rows belong to the live cycle; resubmission flips them
// to historical before the new cycle starts collecting decisions.
type Approval struct {
	ID             string    `json:"id"`
	RequestType    string    `json:"requestType"`
	RequestID      string    `json:"requestId"`
	Cycle          int       `json:"cycle"`
	Stage          int       `json:"stage"`
	ApproverID     string    `json:"approverId"`
	Outcome        string    `json:"outcome"`
	Comments       string    `json:"comments"`
	IsCurrentCycle bool      `json:"isCurrentCycle"`
	DecidedAt      time.Time `json:"decidedAt"`
	CreatedAt      time.Time `json:"createdAt"`
}
