package entity

import (
	"github.com/spf13/cast"
)

// ApprovalStatus is the fixed three-value status domain of an approval form
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "0"
	StatusApproved ApprovalStatus = "1"
	StatusRejected ApprovalStatus = "2"
)

var statusText = map[ApprovalStatus]string{
	StatusPending:  "待审批",
	StatusApproved: "审批通过",
	StatusRejected: "审批拒绝",
}

var statusColor = map[ApprovalStatus]string{
	StatusPending:  "orange",
	StatusApproved: "green",
	StatusRejected: "red",
}

// IsValid returns true if the status is one of the three known values
func (s ApprovalStatus) IsValid() bool {
	_, ok := statusText[s]
	return ok
}

// Text returns the display label, empty for unknown statuses
func (s ApprovalStatus) Text() string {
	return statusText[s]
}

// Color returns the tag color, gray for unknown statuses
func (s ApprovalStatus) Color() string {
	if c, ok := statusColor[s]; ok {
		return c
	}
	return "gray"
}

// Well-known record attributes. Every other attribute is schema-defined.
const (
	AttrID             = "id"
	AttrStatus         = "status"
	AttrDepartmentID   = "departmentId"
	AttrDepartmentPath = "departmentPath"
	AttrDepartmentName = "departmentName"
	AttrCreatedAt      = "createdAt"
	AttrUpdatedAt      = "updatedAt"
	AttrApprovalAt     = "approvalAt"
	AttrExecuteDate    = "executeDate"
	AttrProjectName    = "projectName"
	AttrContent        = "content"
	AttrApplicantID    = "applicantId"
	AttrAttachments    = "attachments"
)

// ApprovalRecord is an approval form as returned by the approval API.
// Attributes are open-ended because the schema is data, so the record is a
// camelCase keyed map with typed accessors for the fields the console relies on.
type ApprovalRecord map[string]interface{}

// Get returns the raw attribute stored under field
func (r ApprovalRecord) Get(field string) interface{} {
	if r == nil {
		return nil
	}
	return r[field]
}

// Has reports whether field holds a non-empty value
func (r ApprovalRecord) Has(field string) bool {
	v := r.Get(field)
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// String returns the attribute coerced to a string ("" when absent)
func (r ApprovalRecord) String(field string) string {
	return cast.ToString(r.Get(field))
}

// ID returns the record id, 0 when absent or malformed
func (r ApprovalRecord) ID() int64 {
	return cast.ToInt64(r.Get(AttrID))
}

// Status returns the record status
func (r ApprovalRecord) Status() ApprovalStatus {
	return ApprovalStatus(r.String(AttrStatus))
}

// DepartmentID returns the department id, 0 when absent
func (r ApprovalRecord) DepartmentID() int64 {
	return cast.ToInt64(r.Get(AttrDepartmentID))
}

// DepartmentPath returns the backend-supplied full department path
func (r ApprovalRecord) DepartmentPath() string {
	return r.String(AttrDepartmentPath)
}

// DepartmentName returns the backend-supplied department name
func (r ApprovalRecord) DepartmentName() string {
	return r.String(AttrDepartmentName)
}

// Attachments decodes the attachment list embedded in a detailed record
func (r ApprovalRecord) Attachments() []Attachment {
	raw, ok := r.Get(AttrAttachments).([]interface{})
	if !ok {
		return nil
	}
	out := make([]Attachment, 0, len(raw))
	for _, item := range raw {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			continue
		}
		out = append(out, Attachment{
			ID:       cast.ToInt64(m["id"]),
			FormID:   cast.ToInt64(m["formId"]),
			FileName: cast.ToString(m["fileName"]),
			FileURL:  cast.ToString(m["fileUrl"]),
			FileType: FileType(cast.ToString(m["fileType"])),
		})
	}
	return out
}

// Page is one page of the approval list
type Page struct {
	List  []ApprovalRecord `json:"list"`
	Total int64            `json:"total"`
}
