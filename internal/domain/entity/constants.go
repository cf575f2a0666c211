package entity

import "strings"

// UserRole is the role the console user currently acts as
type UserRole string

const (
	RoleApplicant UserRole = "APPLICANT" // 申请人
	RoleApprover  UserRole = "APPROVER"  // 审批员
)

// ParseUserRole accepts the role case-insensitively
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleApplicant:
		return RoleApplicant, true
	case RoleApprover:
		return RoleApprover, true
	default:
		return "", false
	}
}

// ApprovalAction is an operation recorded against an approval form
type ApprovalAction string

const (
	ActionCreate   ApprovalAction = "CREATE"
	ActionUpdate   ApprovalAction = "UPDATE"
	ActionWithdraw ApprovalAction = "WITHDRAW"
	ActionApprove  ApprovalAction = "APPROVE"
	ActionReject   ApprovalAction = "REJECT"
)

var actionText = map[ApprovalAction]string{
	ActionCreate:   "创建",
	ActionUpdate:   "更新",
	ActionWithdraw: "撤回",
	ActionApprove:  "审批通过",
	ActionReject:   "审批拒绝",
}

// Text returns the display label of the action
func (a ApprovalAction) Text() string {
	return actionText[a]
}

// ParseApprovalAction maps the lower-case route segment (approve, reject,
// withdraw) onto an action
func ParseApprovalAction(s string) (ApprovalAction, bool) {
	a := ApprovalAction(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := actionText[a]; !ok {
		return "", false
	}
	return a, true
}

// User is the acting console user
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	Department  string   `json:"department,omitempty"`
	Role        UserRole `json:"role"`
}

// Default schema keys served by the form-schema provider
const (
	SchemaBasicApproval         = "basic_approval"
	SchemaNoTimeVersionApproval = "no_time_version_approval"
	SchemaSimpleApproval        = "simple_approval"
)
