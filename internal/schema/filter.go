package schema

import (
	"net/url"
	"sort"

	"github.com/spf13/cast"

	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

// FilterSpec is a renderable filter-panel input
type FilterSpec struct {
	Field             string              `json:"field"`
	Label             string              `json:"label"`
	Widget            string              `json:"widget"`
	Placeholder       string              `json:"placeholder,omitempty"`
	RangePlaceholders []string            `json:"rangePlaceholders,omitempty"`
	Range             bool                `json:"range,omitempty"`
	ShowTime          bool                `json:"showTime,omitempty"`
	Format            string              `json:"format,omitempty"`
	SubmitOnEnter     bool                `json:"submitOnEnter,omitempty"`
	Options           []department.Option `json:"options,omitempty"`
	ShowSearch        bool                `json:"showSearch,omitempty"`
	AllowClear        bool                `json:"allowClear"`
}

var rangePlaceholders = []string{"开始时间", "结束时间"}

// ToFilterInput builds the filter input of one schema field. Date kinds
// become range pickers; unknown components fall back to a text input.
func ToFilterInput(fd entity.FieldDescriptor, ctx Context) FilterSpec {
	f := FilterSpec{
		Field:      fd.Field,
		Label:      fd.Name,
		AllowClear: true,
	}

	switch fd.Kind() {
	case entity.KindDepartment:
		f.Widget = WidgetCascader
		f.Placeholder = "请选择" + fd.Name
		f.Options = ctx.options()
		f.ShowSearch = true
	case entity.KindDate:
		f.Widget = WidgetRangePicker
		f.Range = true
		f.Format = DateFormat
		f.RangePlaceholders = append([]string(nil), rangePlaceholders...)
	case entity.KindDateTime:
		f.Widget = WidgetRangePicker
		f.Range = true
		f.ShowTime = true
		f.Format = DateTimeFormat
		f.RangePlaceholders = append([]string(nil), rangePlaceholders...)
	case entity.KindText, entity.KindTextarea, entity.KindUnknown:
		f.Widget = WidgetInput
		f.Placeholder = "请输入" + fd.Name
		f.SubmitOnEnter = ctx.SubmitOnEnter
	default:
		f.Widget = WidgetInput
		f.Placeholder = "请输入" + fd.Name
		f.SubmitOnEnter = ctx.SubmitOnEnter
	}
	return f
}

// Filters builds the filter panel for every schema field except attachments
func Filters(s entity.Schema, ctx Context) []FilterSpec {
	out := make([]FilterSpec, 0, len(s.Fields))
	for _, fd := range s.Fields {
		if IsAttachmentField(fd.Field) {
			continue
		}
		out = append(out, ToFilterInput(fd, ctx))
	}
	return out
}

// RangeParams names the start/end query parameters of a date-range field
type RangeParams struct {
	Start string
	End   string
}

// DateRangeParams maps range fields to their query parameter pair. A range
// field missing here sends no parameters.
var DateRangeParams = map[string]RangeParams{
	entity.AttrApprovalAt:  {Start: "approvalTimeStart", End: "approvalTimeEnd"},
	entity.AttrCreatedAt:   {Start: "createTimeStart", End: "createTimeEnd"},
	entity.AttrExecuteDate: {Start: "executeDateStart", End: "executeDateEnd"},
}

// QueryParams accumulates outgoing list query parameters
type QueryParams map[string]interface{}

// Values encodes the parameters for a URL query string
func (q QueryParams) Values() url.Values {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := url.Values{}
	for _, k := range keys {
		v.Set(k, RawString(q[k]))
	}
	return v
}

// ToQueryParam folds one filter value into q. Nil, empty strings and empty
// selections leave q untouched.
func ToQueryParam(fd entity.FieldDescriptor, value interface{}, q QueryParams) {
	if isEmptyValue(value) {
		return
	}

	switch fd.Kind() {
	case entity.KindDepartment:
		q[entity.AttrDepartmentID] = lastSelected(value)
	case entity.KindDate, entity.KindDateTime:
		bounds, ok := rangeBounds(value)
		if !ok {
			return
		}
		params, mapped := DateRangeParams[fd.Field]
		if !mapped {
			return
		}
		q[params.Start] = bounds[0]
		q[params.End] = bounds[1]
	case entity.KindText, entity.KindTextarea, entity.KindUnknown:
		q[fd.Field] = value
	default:
		q[fd.Field] = value
	}
}

// BuildQuery folds the filter values of every schema field into new params
func BuildQuery(s entity.Schema, values map[string]interface{}) QueryParams {
	q := QueryParams{}
	for _, fd := range s.Fields {
		ToQueryParam(fd, values[fd.Field], q)
	}
	return q
}

// lastSelected returns the most specific node of a cascader path. Numeric ids
// are normalized to int64.
func lastSelected(value interface{}) interface{} {
	last := value
	if path, ok := asSlice(value); ok && len(path) > 0 {
		last = path[len(path)-1]
	}
	if id, err := cast.ToInt64E(last); err == nil {
		return id
	}
	return last
}

func rangeBounds(value interface{}) ([]interface{}, bool) {
	bounds, ok := asSlice(value)
	if !ok || len(bounds) != 2 {
		return nil, false
	}
	return bounds, true
}

func asSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []string:
		return toInterfaces(v), true
	case []int64:
		return toInterfaces(v), true
	case []int:
		return toInterfaces(v), true
	case []float64:
		return toInterfaces(v), true
	default:
		return nil, false
	}
}

func toInterfaces[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
