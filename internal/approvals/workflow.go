package approvals

import "approval-backend/internal/users"

// stageRoles maps each request type to its ordered approval chain.
// Stages are 1-based; a request is fully approved once the last
// stage's approver signs off.
var stageRoles = map[string][]string{
	"investment": {users.RoleManager, users.RoleRisk, users.RoleCommittee, users.RoleFinance},
	"cash":       {users.RoleManager, users.RoleFinance},
}

// StageCount returns the number of approval stages for a request type.
func StageCount(requestType string) int {
	return len(stageRoles[requestType])
}

// RoleForStage returns the role that decides the given 1-based stage,
// or "" when the stage is out of range.
func RoleForStage(requestType string, stage int) string {
	roles := stageRoles[requestType]
	if stage < 1 || stage > len(roles) {
		return ""
	}
	return roles[stage-1]
}
