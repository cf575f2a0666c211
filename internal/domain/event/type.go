package event

// Type identifies the type of console event
type Type string

const (
	TypeApprovalCreated   Type = "approval.created"
	TypeApprovalUpdated   Type = "approval.updated"
	TypeApprovalApproved  Type = "approval.approved"
	TypeApprovalRejected  Type = "approval.rejected"
	TypeApprovalWithdrawn Type = "approval.withdrawn"
	TypeApprovalImported  Type = "approval.imported"
	TypeAttachmentRemoved Type = "attachment.removed"
	TypeOperationFailed   Type = "operation.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeApprovalCreated,
		TypeApprovalUpdated,
		TypeApprovalApproved,
		TypeApprovalRejected,
		TypeApprovalWithdrawn,
		TypeApprovalImported,
		TypeAttachmentRemoved,
		TypeOperationFailed:
		return true
	default:
		return false
	}
}

// Level is the severity the shell uses to style the transient notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)
