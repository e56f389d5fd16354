package users

import "time"

// Roles double as approval-stage assignments; see the approvals package
// for the stage ordering per workflow type.
const (
	RoleRequester = "requester"
	RoleManager   = "manager"
	RoleRisk      = "risk"
	RoleCommittee = "committee"
	RoleFinance   = "finance"
	RoleAdmin     = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleRequester, RoleManager, RoleRisk, RoleCommittee, RoleFinance, RoleAdmin:
		return true
	default:
		return false
	}
}
