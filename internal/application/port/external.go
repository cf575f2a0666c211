package port

import (
	"context"
	"io"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// ListQuery is one page request of the approval list
type ListQuery struct {
	Page     int
	PageSize int
	Role     entity.UserRole
	Params   map[string]interface{}
}

// BatchResult is the outcome of a bulk create. Message is the upstream
// message, empty when it sent none.
type BatchResult struct {
	Created int
	Message string
}

// ApprovalAPI defines the record operations of the upstream approval service
type ApprovalAPI interface {
	ListApprovals(ctx context.Context, q ListQuery) (*entity.Page, error)
	CreateApproval(ctx context.Context, payload map[string]interface{}) (entity.ApprovalRecord, error)
	BatchCreateApprovals(ctx context.Context, payloads []map[string]interface{}) (*BatchResult, error)
	UpdateApproval(ctx context.Context, id int64, payload map[string]interface{}) (entity.ApprovalRecord, error)
	Approve(ctx context.Context, id int64, role entity.UserRole) error
	Reject(ctx context.Context, id int64, role entity.UserRole) error
	Withdraw(ctx context.Context, id int64) error
}

// SchemaProvider fetches a named field schema
type SchemaProvider interface {
	FetchFormSchema(ctx context.Context, key string) (entity.Schema, error)
}

// DepartmentProvider fetches the department tree and single departments
type DepartmentProvider interface {
	FetchDepartments(ctx context.Context) ([]entity.DepartmentNode, error)
	FindDepartmentByName(ctx context.Context, name string) (*entity.DepartmentNode, error)
}

// AttachmentAPI defines the attachment lifecycle of a form
type AttachmentAPI interface {
	UploadAttachment(ctx context.Context, formID int64, fileName string, content io.Reader) (*entity.Attachment, error)
	DeleteAttachment(ctx context.Context, formID, attachmentID int64) error
}
