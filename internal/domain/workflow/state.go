package workflow

import "github.com/garyjia/approval-console/internal/domain/entity"

// State represents a workflow state in the approval lifecycle
type State string

const (
	StatePending   State = "PENDING"
	StateApproved  State = "APPROVED"
	StateRejected  State = "REJECTED"
	StateWithdrawn State = "WITHDRAWN"
)

var statusStates = map[entity.ApprovalStatus]State{
	entity.StatusPending:  StatePending,
	entity.StatusApproved: StateApproved,
	entity.StatusRejected: StateRejected,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return s != StatePending
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateWithdrawn:
		return true
	default:
		return false
	}
}

// StateFromStatus maps a record status onto a workflow state
func StateFromStatus(status entity.ApprovalStatus) (State, bool) {
	s, ok := statusStates[status]
	return s, ok
}
