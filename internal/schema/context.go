// Package schema turns field descriptors into table columns, form inputs,
// validation rules, filter inputs and query parameters. Every entry point is
// a pure function of its descriptor and Context.
package schema

import (
	"time"

	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

// Context carries what generation needs beyond the descriptor itself
type Context struct {
	// Index resolves department ids; nil behaves as an empty index
	Index *department.Index
	// Location is used to parse and format timestamps; nil means time.Local
	Location *time.Location
	// Role selects the row actions of the operations column
	Role entity.UserRole
	// SubmitOnEnter marks text filters that trigger a search on enter
	SubmitOnEnter bool
}

func (c Context) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Context) options() []department.Option {
	return c.Index.Options()
}

// Fields excluded from the dynamic form: attachments have their own widget
var attachmentFields = map[string]bool{
	"images":           true,
	"imageAttachments": true,
}

// IsAttachmentField reports whether field is rendered by the upload widget
func IsAttachmentField(field string) bool {
	return attachmentFields[field]
}
