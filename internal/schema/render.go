package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

// Empty is rendered for missing values of formatted fields
const Empty = "--"

// Display layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// RenderKind selects how a column cell is rendered
type RenderKind int

const (
	RenderRaw RenderKind = iota
	RenderDepartment
	RenderDate
	RenderDateTime
)

// fieldRenderKinds binds well-known field keys to renderers regardless of component
var fieldRenderKinds = map[string]RenderKind{
	entity.AttrDepartmentID: RenderDepartment,
	entity.AttrExecuteDate:  RenderDate,
	entity.AttrApprovalAt:   RenderDateTime,
	entity.AttrCreatedAt:    RenderDateTime,
}

// RenderKindOf resolves the renderer of fd: the field table first, then the
// component kind. Unknown components render raw.
func RenderKindOf(fd entity.FieldDescriptor) RenderKind {
	if k, ok := fieldRenderKinds[fd.Field]; ok {
		return k
	}
	switch fd.Kind() {
	case entity.KindDepartment:
		return RenderDepartment
	case entity.KindDate:
		return RenderDate
	case entity.KindDateTime:
		return RenderDateTime
	case entity.KindText, entity.KindTextarea, entity.KindUnknown:
		return RenderRaw
	default:
		return RenderRaw
	}
}

// DepartmentTier names the source a department cell was resolved from
type DepartmentTier int

const (
	TierRecordPath DepartmentTier = iota + 1
	TierIndexPath
	TierRecordName
	TierFallback
)

// String returns the tier name
func (t DepartmentTier) String() string {
	switch t {
	case TierRecordPath:
		return "record_path"
	case TierIndexPath:
		return "index_path"
	case TierRecordName:
		return "record_name"
	case TierFallback:
		return "fallback"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// departmentAttrs returns the path and name attributes that accompany a
// department id field: departmentId pairs with departmentPath/departmentName.
func departmentAttrs(field string) (pathAttr, nameAttr string) {
	base := strings.TrimSuffix(field, "Id")
	return base + "Path", base + "Name"
}

// RecordPathTier returns the full path the backend put on the record
func RecordPathTier(field string, record entity.ApprovalRecord) (string, bool) {
	pathAttr, _ := departmentAttrs(field)
	v := record.String(pathAttr)
	return v, v != ""
}

// IndexPathTier looks the record's department id up in idx
func IndexPathTier(field string, record entity.ApprovalRecord, idx *department.Index) (string, bool) {
	id, err := cast.ToInt64E(record.Get(field))
	if err != nil || id == 0 {
		return "", false
	}
	v := idx.PathOf(id)
	return v, v != ""
}

// RecordNameTier returns the plain department name the backend put on the record
func RecordNameTier(field string, record entity.ApprovalRecord) (string, bool) {
	_, nameAttr := departmentAttrs(field)
	v := record.String(nameAttr)
	return v, v != ""
}

// ResolveDepartment walks the four tiers in order and reports which one answered
func ResolveDepartment(field string, record entity.ApprovalRecord, idx *department.Index) (string, DepartmentTier) {
	if v, ok := RecordPathTier(field, record); ok {
		return v, TierRecordPath
	}
	if v, ok := IndexPathTier(field, record, idx); ok {
		return v, TierIndexPath
	}
	if v, ok := RecordNameTier(field, record); ok {
		return v, TierRecordName
	}
	return Empty, TierFallback
}

// ParseTime reads a record timestamp. Strings without a zone are read in loc;
// numbers are epoch milliseconds.
func ParseTime(v interface{}, loc *time.Location) (time.Time, bool) {
	switch n := v.(type) {
	case nil:
		return time.Time{}, false
	case float64, float32, int, int64, int32, uint, uint64, uint32, json.Number:
		ms, err := cast.ToInt64E(n)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).In(loc), true
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	t, err := cast.ToTimeInDefaultLocationE(v, loc)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// FormatTime renders v with layout, Empty when v is empty. A value that does
// not parse is shown as it came.
func FormatTime(v interface{}, layout string, loc *time.Location) string {
	if isEmptyValue(v) {
		return Empty
	}
	t, ok := ParseTime(v, loc)
	if !ok {
		return RawString(v)
	}
	return t.Format(layout)
}

// RawString formats an attribute without interpretation
func RawString(v interface{}) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// RenderCell renders one record attribute according to fd
func RenderCell(fd entity.FieldDescriptor, record entity.ApprovalRecord, ctx Context) string {
	switch RenderKindOf(fd) {
	case RenderDepartment:
		v, _ := ResolveDepartment(fd.Field, record, ctx.Index)
		return v
	case RenderDate:
		return FormatTime(record.Get(fd.Field), DateLayout, ctx.location())
	case RenderDateTime:
		return FormatTime(record.Get(fd.Field), DateTimeLayout, ctx.location())
	case RenderRaw:
		return RawString(record.Get(fd.Field))
	default:
		return RawString(record.Get(fd.Field))
	}
}

// isEmptyValue treats nil, "" and empty slices as absent
func isEmptyValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case []int64:
		return len(val) == 0
	case []int:
		return len(val) == 0
	case []float64:
		return len(val) == 0
	default:
		return false
	}
}
