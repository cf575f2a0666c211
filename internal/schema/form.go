package schema

import (
	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

// Widget names understood by the browser shell
const (
	WidgetInput       = "Input"
	WidgetTextArea    = "TextArea"
	WidgetCascader    = "Cascader"
	WidgetDatePicker  = "DatePicker"
	WidgetRangePicker = "RangePicker"
)

// Picker display formats, in the shell's date library tokens
const (
	DateFormat     = "YYYY-MM-DD"
	DateTimeFormat = "YYYY-MM-DD HH:mm:ss"
)

// AutoSize bounds the rows of a growing text area
type AutoSize struct {
	MinRows int `json:"minRows"`
	MaxRows int `json:"maxRows"`
}

// InputSpec is a renderable form input
type InputSpec struct {
	Field         string              `json:"field"`
	Label         string              `json:"label"`
	Widget        string              `json:"widget"`
	Placeholder   string              `json:"placeholder,omitempty"`
	MaxLength     int                 `json:"maxLength,omitempty"`
	ShowWordLimit bool                `json:"showWordLimit,omitempty"`
	AutoSize      *AutoSize           `json:"autoSize,omitempty"`
	Options       []department.Option `json:"options,omitempty"`
	ShowSearch    bool                `json:"showSearch,omitempty"`
	AllowClear    bool                `json:"allowClear,omitempty"`
	ShowTime      bool                `json:"showTime,omitempty"`
	Format        string              `json:"format,omitempty"`
	Disabled      bool                `json:"disabled,omitempty"`
	Rules         []Rule              `json:"rules"`
}

// ToFormInput builds the input of one schema field. Unknown components fall
// back to a bare text input that still carries the field's rules.
func ToFormInput(fd entity.FieldDescriptor, ctx Context) InputSpec {
	in := InputSpec{
		Field: fd.Field,
		Label: fd.Name,
		Rules: ToValidationRules(fd),
	}

	switch fd.Kind() {
	case entity.KindText:
		in.Widget = WidgetInput
		in.Placeholder = "请输入" + fd.Name
		in.MaxLength = fd.MaxCount()
		in.ShowWordLimit = in.MaxLength > 0
	case entity.KindTextarea:
		in.Widget = WidgetTextArea
		in.Placeholder = "请输入" + fd.Name
		in.MaxLength = fd.MaxCount()
		in.ShowWordLimit = in.MaxLength > 0
		in.AutoSize = &AutoSize{MinRows: 4, MaxRows: 8}
	case entity.KindDepartment:
		in.Widget = WidgetCascader
		in.Placeholder = "请选择部门"
		in.Options = ctx.options()
		in.ShowSearch = true
		in.AllowClear = true
	case entity.KindDate:
		in.Widget = WidgetDatePicker
		in.Placeholder = "请选择日期"
		in.Format = DateFormat
	case entity.KindDateTime:
		in.Widget = WidgetDatePicker
		in.Placeholder = "请选择日期时间"
		in.ShowTime = true
		in.Format = DateTimeFormat
	case entity.KindUnknown:
		in.Widget = WidgetInput
	default:
		in.Widget = WidgetInput
	}
	return in
}

// FormMode is the purpose the form modal is opened for
type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
	ModeView   FormMode = "view"
)

// ParseFormMode defaults to ModeCreate
func ParseFormMode(s string) FormMode {
	switch FormMode(s) {
	case ModeEdit, ModeView:
		return FormMode(s)
	default:
		return ModeCreate
	}
}

var modeTitles = map[FormMode][2]string{
	ModeCreate: {"新建审批单", "提交"},
	ModeEdit:   {"审批单修改", "保存"},
	ModeView:   {"审批单详情", "确定"},
}

// Title returns the modal title
func (m FormMode) Title() string {
	return modeTitles[m][0]
}

// SubmitText returns the label of the confirm button
func (m FormMode) SubmitText() string {
	return modeTitles[m][1]
}

// FormSpec is the whole modal: title, button text and inputs in schema order
type FormSpec struct {
	Mode       FormMode    `json:"mode"`
	Title      string      `json:"title"`
	SubmitText string      `json:"submitText"`
	ReadOnly   bool        `json:"readOnly"`
	Inputs     []InputSpec `json:"inputs"`
}

// Form builds the modal for mode. Attachment fields are skipped; view mode
// disables every input.
func Form(s entity.Schema, mode FormMode, ctx Context) FormSpec {
	spec := FormSpec{
		Mode:       mode,
		Title:      mode.Title(),
		SubmitText: mode.SubmitText(),
		ReadOnly:   mode == ModeView,
		Inputs:     make([]InputSpec, 0, len(s.Fields)),
	}
	for _, fd := range s.Fields {
		if IsAttachmentField(fd.Field) {
			continue
		}
		in := ToFormInput(fd, ctx)
		in.Disabled = spec.ReadOnly
		spec.Inputs = append(spec.Inputs, in)
	}
	return spec
}
