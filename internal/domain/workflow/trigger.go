package workflow

import "github.com/garyjia/approval-console/internal/domain/entity"

// Trigger represents a user action that can cause a state transition
type Trigger string

const (
	TriggerEdit     Trigger = "EDIT"
	TriggerWithdraw Trigger = "WITHDRAW"
	TriggerApprove  Trigger = "APPROVE"
	TriggerReject   Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerFor maps a record action onto its trigger. CREATE has no trigger:
// a record does not exist before it.
func TriggerFor(action entity.ApprovalAction) (Trigger, bool) {
	switch action {
	case entity.ActionUpdate:
		return TriggerEdit, true
	case entity.ActionWithdraw:
		return TriggerWithdraw, true
	case entity.ActionApprove:
		return TriggerApprove, true
	case entity.ActionReject:
		return TriggerReject, true
	default:
		return "", false
	}
}

// Action is the inverse of TriggerFor
func (t Trigger) Action() entity.ApprovalAction {
	switch t {
	case TriggerEdit:
		return entity.ActionUpdate
	case TriggerWithdraw:
		return entity.ActionWithdraw
	case TriggerApprove:
		return entity.ActionApprove
	case TriggerReject:
		return entity.ActionReject
	default:
		return ""
	}
}
