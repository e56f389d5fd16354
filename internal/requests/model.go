package requests

import "time"

const (
	TypeInvestment = "investment"
	TypeCash       = "cash"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Request is an investment or cash request moving through the approval workflow.
// Amount is stored in cents to avoid float drift.
type Request struct {
	ID           string     `json:"id"`
	RefCode      string     `json:"refCode"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	RequesterID  string     `json:"requesterId"`
	AmountCents  int64      `json:"amountCents"`
	Currency     string     `json:"currency"`
	RiskLevel    string     `json:"riskLevel"`
	Status       Status     `json:"status"`
	CurrentStage int        `json:"currentStage"`
	CurrentCycle int        `json:"currentCycle"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// ValidType reports whether raw names a known request type.
func ValidType(raw string) bool {
	return raw == TypeInvestment || raw == TypeCash
}

// ValidRisk reports whether raw names a known risk level.
func ValidRisk(raw string) bool {
	return raw == RiskLow || raw == RiskMedium || raw == RiskHigh
}

// RefPrefix returns the sequence prefix for a request type.
func RefPrefix(requestType string) string {
	if requestType == TypeCash {
		return "cash"
	}
	return "inv"
}
