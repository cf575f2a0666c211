package workflow

import (
	"context"
	"sync"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

type roleKey struct{}

// WithRole attaches the acting role to ctx for role guards
func WithRole(ctx context.Context, role entity.UserRole) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFrom returns the acting role carried by ctx
func RoleFrom(ctx context.Context) (entity.UserRole, bool) {
	role, ok := ctx.Value(roleKey{}).(entity.UserRole)
	return role, ok
}

// RoleIs guards a transition on the acting role
func RoleIs(role entity.UserRole) GuardFunc {
	return func(ctx context.Context) bool {
		got, ok := RoleFrom(ctx)
		return ok && got == role
	}
}

var (
	approvalOnce    sync.Once
	approvalBuilder StateMachineBuilder
)

// lifecycle returns the shared builder, configured on first use
func lifecycle() StateMachineBuilder {
	approvalOnce.Do(func() {
		approvalBuilder = newApprovalBuilder()
	})
	return approvalBuilder
}

// newApprovalBuilder configures the record lifecycle: applicants edit or
// withdraw a pending record, approvers approve or reject it.
func newApprovalBuilder() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		PermitIf(TriggerEdit, StatePending, RoleIs(entity.RoleApplicant)).
		PermitIf(TriggerWithdraw, StateWithdrawn, RoleIs(entity.RoleApplicant)).
		PermitIf(TriggerApprove, StateApproved, RoleIs(entity.RoleApprover)).
		PermitIf(TriggerReject, StateRejected, RoleIs(entity.RoleApprover))
	return b
}

// NewApprovalMachine builds a lifecycle machine positioned at the record status
func NewApprovalMachine(status entity.ApprovalStatus) (StateMachine, error) {
	state, ok := StateFromStatus(status)
	if !ok {
		return nil, ErrInvalidState
	}
	return lifecycle().Build(state), nil
}

// CheckAction returns nil when role may perform action on a record in status
func CheckAction(role entity.UserRole, status entity.ApprovalStatus, action entity.ApprovalAction) error {
	trigger, ok := TriggerFor(action)
	if !ok {
		return ErrInvalidTransition
	}
	m, err := NewApprovalMachine(status)
	if err != nil {
		return err
	}
	return m.Fire(WithRole(context.Background(), role), trigger)
}

// PermittedActions lists the actions role may take on a record in status
func PermittedActions(role entity.UserRole, status entity.ApprovalStatus) []entity.ApprovalAction {
	m, err := NewApprovalMachine(status)
	if err != nil {
		return nil
	}
	triggers := m.PermittedTriggers(WithRole(context.Background(), role))
	actions := make([]entity.ApprovalAction, 0, len(triggers))
	for _, t := range triggers {
		actions = append(actions, t.Action())
	}
	return actions
}
