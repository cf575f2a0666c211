package schema

import (
	"github.com/garyjia/approval-console/internal/domain/entity"
	"github.com/garyjia/approval-console/internal/domain/workflow"
)

// DefaultColumnWidth applies to fields without an entry in the width table
const DefaultColumnWidth = 200

// Fixed column keys
const (
	StatusColumnKey    = "status"
	OperationColumnKey = "operation"
)

type columnConfig struct {
	width    int
	ellipsis bool
}

// columnConfigs is the width table keyed by field name
var columnConfigs = map[string]columnConfig{
	entity.AttrProjectName: {width: 250, ellipsis: true},
	entity.AttrContent:     {width: 300, ellipsis: true},
	entity.AttrCreatedAt:   {width: 180},
}

// ColumnSpec is a renderable table column
type ColumnSpec struct {
	Title    string `json:"title"`
	Key      string `json:"key"`
	Width    int    `json:"width"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
	Sortable bool   `json:"sortable,omitempty"`
	Fixed    string `json:"fixed,omitempty"`

	Render  func(entity.ApprovalRecord) string       `json:"-"`
	Less    func(a, b entity.ApprovalRecord) bool    `json:"-"`
	Actions func(entity.ApprovalRecord) []ActionSpec `json:"-"`
}

// ToColumn builds the column of one schema field
func ToColumn(fd entity.FieldDescriptor, ctx Context) ColumnSpec {
	col := ColumnSpec{
		Title: fd.Name,
		Key:   fd.Field,
		Width: DefaultColumnWidth,
	}
	if cfg, ok := columnConfigs[fd.Field]; ok {
		col.Width = cfg.width
		col.Ellipsis = cfg.ellipsis
	}

	col.Render = func(r entity.ApprovalRecord) string {
		return RenderCell(fd, r, ctx)
	}

	if fd.Field == entity.AttrCreatedAt {
		loc := ctx.location()
		col.Sortable = true
		col.Less = func(a, b entity.ApprovalRecord) bool {
			ta, _ := ParseTime(a.Get(fd.Field), loc)
			tb, _ := ParseTime(b.Get(fd.Field), loc)
			return ta.Before(tb)
		}
	}
	return col
}

// StatusColumn is the fixed left column showing the status tag
func StatusColumn() ColumnSpec {
	return ColumnSpec{
		Title: "审批状态",
		Key:   StatusColumnKey,
		Width: 120,
		Fixed: "left",
		Render: func(r entity.ApprovalRecord) string {
			return r.Status().Text()
		},
	}
}

// OperationColumn is the fixed right column listing row actions for role
func OperationColumn(role entity.UserRole) ColumnSpec {
	return ColumnSpec{
		Title: "操作",
		Key:   OperationColumnKey,
		Width: 280,
		Fixed: "right",
		Actions: func(r entity.ApprovalRecord) []ActionSpec {
			return RowActions(role, r.Status())
		},
	}
}

// Columns builds the full table: status, schema fields in order, operations
func Columns(s entity.Schema, ctx Context) []ColumnSpec {
	cols := make([]ColumnSpec, 0, len(s.Fields)+2)
	cols = append(cols, StatusColumn())
	for _, fd := range s.Fields {
		cols = append(cols, ToColumn(fd, ctx))
	}
	return append(cols, OperationColumn(ctx.Role))
}

// ActionView opens the read-only form; it is not a workflow action
const ActionView entity.ApprovalAction = "VIEW"

// ActionSpec is one button of the operations column
type ActionSpec struct {
	Action   entity.ApprovalAction `json:"action"`
	Label    string                `json:"label"`
	Danger   bool                  `json:"danger,omitempty"`
	Confirm  string                `json:"confirm,omitempty"`
	Disabled bool                  `json:"disabled"`
}

var roleButtons = map[entity.UserRole][]ActionSpec{
	entity.RoleApplicant: {
		{Action: entity.ActionUpdate, Label: "修改"},
		{Action: entity.ActionWithdraw, Label: "撤回", Danger: true, Confirm: "确认撤回"},
	},
	entity.RoleApprover: {
		{Action: entity.ActionApprove, Label: "通过", Confirm: "确认通过"},
		{Action: entity.ActionReject, Label: "驳回", Danger: true, Confirm: "确认驳回"},
	},
}

// RowActions lists the buttons shown to role. Buttons the workflow does not
// permit for status stay visible but disabled.
func RowActions(role entity.UserRole, status entity.ApprovalStatus) []ActionSpec {
	permitted := make(map[entity.ApprovalAction]bool)
	for _, a := range workflow.PermittedActions(role, status) {
		permitted[a] = true
	}

	buttons := roleButtons[role]
	out := make([]ActionSpec, 0, len(buttons)+1)
	out = append(out, ActionSpec{Action: ActionView, Label: "查看"})
	for _, b := range buttons {
		b.Disabled = !permitted[b.Action]
		out = append(out, b)
	}
	return out
}

// StatusTag is the rendered status cell
type StatusTag struct {
	Value string `json:"value"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Row is one rendered table row
type Row struct {
	ID      int64             `json:"id"`
	Status  StatusTag         `json:"status"`
	Cells   map[string]string `json:"cells"`
	Actions []ActionSpec      `json:"actions"`
}

// RenderRow applies every column renderer to record
func RenderRow(cols []ColumnSpec, record entity.ApprovalRecord) Row {
	status := record.Status()
	row := Row{
		ID: record.ID(),
		Status: StatusTag{
			Value: string(status),
			Text:  status.Text(),
			Color: status.Color(),
		},
		Cells: make(map[string]string, len(cols)),
	}
	for _, col := range cols {
		if col.Actions != nil {
			row.Actions = col.Actions(record)
			continue
		}
		if col.Render != nil {
			row.Cells[col.Key] = col.Render(record)
		}
	}
	return row
}

// RenderRows renders a page of records
func RenderRows(cols []ColumnSpec, records []entity.ApprovalRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, RenderRow(cols, r))
	}
	return rows
}
