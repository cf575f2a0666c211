package schema

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

var shanghai = time.FixedZone("CST", 8*3600)

func field(key, name string, c entity.ComponentKind, v *entity.Validator) entity.FieldDescriptor {
	return entity.FieldDescriptor{Field: key, Name: name, Component: c, Validator: v}
}

func basicSchema() entity.Schema {
	return entity.Schema{Key: entity.SchemaBasicApproval, Fields: []entity.FieldDescriptor{
		field("projectName", "审批项目", entity.ComponentInput, &entity.Validator{Required: true, MaxCount: 20}),
		field("content", "审批内容", entity.ComponentTextarea, &entity.Validator{Required: true, MaxCount: 300}),
		field("departmentId", "申请部门", entity.ComponentCascader, &entity.Validator{Required: true}),
		field("executeDate", "执行日期", entity.ComponentDatePicker, &entity.Validator{Required: true}),
		field("approvalAt", "审批时间", entity.ComponentDateTimePicker, nil),
		field("createdAt", "创建时间", entity.ComponentDateTimePicker, nil),
	}}
}

func testIndex() *department.Index {
	return department.BuildIndex([]entity.DepartmentNode{
		{ID: 1, Name: "A", Path: "A", Children: []entity.DepartmentNode{
			{ID: 2, Name: "B", Path: "A / B", Children: []entity.DepartmentNode{
				{ID: 7, Name: "C"},
			}},
		}},
	})
}

func countRules(rules []Rule, typ RuleType) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func TestToValidationRules_Required(t *testing.T) {
	for _, c := range []entity.ComponentKind{
		entity.ComponentInput, entity.ComponentTextarea, entity.ComponentDepartmentSelect,
		entity.ComponentCascader, entity.ComponentDatePicker, entity.ComponentDateTimePicker,
		entity.ComponentKind("Rate"),
	} {
		t.Run(string(c), func(t *testing.T) {
			fd := field("f", "字段名", c, &entity.Validator{Required: true})

			required := countRules(ToValidationRules(fd), RuleRequired)

			require.Len(t, required, 1)
			assert.Contains(t, required[0].Message, "字段名")
		})
	}
}

func TestToValidationRules_RequiredVerbByKind(t *testing.T) {
	text := ToValidationRules(field("a", "项目", entity.ComponentInput, &entity.Validator{Required: true}))
	dept := ToValidationRules(field("b", "部门", entity.ComponentDepartmentSelect, &entity.Validator{Required: true}))
	date := ToValidationRules(field("c", "日期", entity.ComponentDatePicker, &entity.Validator{Required: true}))

	assert.Equal(t, "请输入项目", text[0].Message)
	assert.Equal(t, "请选择部门", dept[0].Message)
	assert.Equal(t, "请选择日期", date[0].Message)
}

func TestToValidationRules_MaxCount(t *testing.T) {
	for _, n := range []int{1, 20, 300} {
		fd := field("projectName", "审批项目", entity.ComponentInput, &entity.Validator{MaxCount: n})

		maxRules := countRules(ToValidationRules(fd), RuleMaxLength)

		require.Len(t, maxRules, 1)
		assert.Equal(t, n, maxRules[0].MaxLength)
		assert.Contains(t, maxRules[0].Message, "审批项目")
		assert.Contains(t, maxRules[0].Message, fmt.Sprint(n))
	}
}

func TestToValidationRules_NoValidator(t *testing.T) {
	assert.Empty(t, ToValidationRules(field("x", "X", entity.ComponentInput, nil)))
	assert.Empty(t, ToValidationRules(field("x", "X", entity.ComponentInput, &entity.Validator{MaxCount: -3})))
}

func TestToValidationRules_Pattern(t *testing.T) {
	fd := field("phone", "电话", entity.ComponentInput, &entity.Validator{Pattern: `^\d{11}$`})

	rules := ToValidationRules(fd)

	require.Len(t, rules, 1)
	assert.Equal(t, RulePattern, rules[0].Type)
	assert.Equal(t, "电话格式不正确", rules[0].Message)
}

func TestValidateValues(t *testing.T) {
	s := basicSchema()

	errs := ValidateValues(s, map[string]interface{}{
		"projectName":  "这是一个超过二十个字符长度限制的审批项目名称示例",
		"content":      "",
		"departmentId": []interface{}{},
		"executeDate":  "2025-12-01",
	})

	require.NotNil(t, errs)
	assert.Equal(t, []string{"审批项目不能超过20个字符"}, errs["projectName"])
	assert.Equal(t, []string{"请输入审批内容"}, errs["content"])
	assert.Equal(t, []string{"请选择申请部门"}, errs["departmentId"])
	assert.NotContains(t, errs, "executeDate")
	assert.Contains(t, errs.Error(), "projectName")
}

func TestValidateValues_MaxCountsRunes(t *testing.T) {
	s := entity.Schema{Fields: []entity.FieldDescriptor{
		field("projectName", "审批项目", entity.ComponentInput, &entity.Validator{Required: true, MaxCount: 20}),
	}}

	assert.Nil(t, ValidateValues(s, map[string]interface{}{"projectName": "2025年度预算申请"}))
	assert.Nil(t, ValidateValues(s, map[string]interface{}{"projectName": strings.Repeat("审", 20)}))
	assert.NotNil(t, ValidateValues(s, map[string]interface{}{"projectName": strings.Repeat("审", 21)}))
}

func TestValidateValues_PatternSkipsEmpty(t *testing.T) {
	s := entity.Schema{Fields: []entity.FieldDescriptor{
		field("phone", "电话", entity.ComponentInput, &entity.Validator{Pattern: `^\d{11}$`, Message: "手机号格式错误"}),
	}}

	assert.Nil(t, ValidateValues(s, map[string]interface{}{}))
	assert.Nil(t, ValidateValues(s, map[string]interface{}{"phone": "13800000000"}))
	assert.Equal(t, []string{"手机号格式错误"}, ValidateValues(s, map[string]interface{}{"phone": "12ab"})["phone"])
}

func TestToColumn_WidthTable(t *testing.T) {
	tests := []struct {
		field    string
		width    int
		ellipsis bool
	}{
		{"projectName", 250, true},
		{"content", 300, true},
		{"createdAt", 180, false},
		{"executeDate", DefaultColumnWidth, false},
		{"whatever", DefaultColumnWidth, false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			col := ToColumn(field(tt.field, "T", entity.ComponentInput, nil), Context{})
			assert.Equal(t, tt.width, col.Width)
			assert.Equal(t, tt.ellipsis, col.Ellipsis)
			assert.Equal(t, "T", col.Title)
			assert.Equal(t, tt.field, col.Key)
		})
	}
}

func TestDepartmentColumn_EmptyIndexFallsBack(t *testing.T) {
	s := entity.Schema{Fields: []entity.FieldDescriptor{
		field("projectName", "审批项目", entity.ComponentInput, &entity.Validator{Required: true, MaxCount: 20}),
	}}
	record := entity.ApprovalRecord{"projectName": "2025年度预算申请", "departmentId": 3}
	deptCol := ToColumn(field("departmentId", "申请部门", entity.ComponentInput, nil), Context{Index: department.BuildIndex(nil)})

	row := RenderRow(append(Columns(s, Context{}), deptCol), record)

	assert.Equal(t, "--", row.Cells["departmentId"])
	assert.Equal(t, "2025年度预算申请", row.Cells["projectName"])
}

func TestResolveDepartment_Tiers(t *testing.T) {
	idx := testIndex()

	tests := []struct {
		name   string
		record entity.ApprovalRecord
		want   string
		tier   DepartmentTier
	}{
		{"record path wins", entity.ApprovalRecord{"departmentId": 7, "departmentPath": "X / Y", "departmentName": "Y"}, "X / Y", TierRecordPath},
		{"index lookup", entity.ApprovalRecord{"departmentId": float64(7), "departmentName": "C"}, "A / B / C", TierIndexPath},
		{"record name", entity.ApprovalRecord{"departmentId": 99, "departmentName": "孤儿部门"}, "孤儿部门", TierRecordName},
		{"fallback", entity.ApprovalRecord{"departmentId": 99}, "--", TierFallback},
		{"no id", entity.ApprovalRecord{}, "--", TierFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tier := ResolveDepartment("departmentId", tt.record, idx)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.tier, tier)
		})
	}
}

func TestRenderCell_Dates(t *testing.T) {
	ctx := Context{Location: shanghai}
	record := entity.ApprovalRecord{
		"executeDate": "2025-12-01T00:00:00+08:00",
		"approvalAt":  "2025-11-30T02:03:04Z",
		"createdAt":   "",
		"note":        42,
	}

	assert.Equal(t, "2025-12-01", RenderCell(field("executeDate", "", entity.ComponentDatePicker, nil), record, ctx))
	assert.Equal(t, "2025-11-30 10:03:04", RenderCell(field("approvalAt", "", entity.ComponentDateTimePicker, nil), record, ctx))
	assert.Equal(t, "--", RenderCell(field("createdAt", "", entity.ComponentDateTimePicker, nil), record, ctx))
	assert.Equal(t, "--", RenderCell(field("missing", "", entity.ComponentDatePicker, nil), record, ctx))
	assert.Equal(t, "42", RenderCell(field("note", "", entity.ComponentKind("Rate"), nil), record, ctx))
}

func TestRenderCell_EpochMillis(t *testing.T) {
	ctx := Context{Location: shanghai}
	// 2025-11-30T02:03:04Z
	const ms = 1764468184000
	record := entity.ApprovalRecord{
		"approvalAt": float64(ms),
		"createdAt":  int64(ms),
	}

	assert.Equal(t, "2025-11-30 10:03:04", RenderCell(field("approvalAt", "", entity.ComponentDateTimePicker, nil), record, ctx))
	assert.Equal(t, "2025-11-30 10:03:04", RenderCell(field("createdAt", "", entity.ComponentDateTimePicker, nil), record, ctx))
}

func TestRenderKindOf(t *testing.T) {
	assert.Equal(t, RenderDepartment, RenderKindOf(field("departmentId", "", entity.ComponentInput, nil)))
	assert.Equal(t, RenderDepartment, RenderKindOf(field("ownerDeptId", "", entity.ComponentDepartmentSelect, nil)))
	assert.Equal(t, RenderDate, RenderKindOf(field("dueDate", "", entity.ComponentDatePicker, nil)))
	assert.Equal(t, RenderDateTime, RenderKindOf(field("createdAt", "", entity.ComponentInput, nil)))
	assert.Equal(t, RenderRaw, RenderKindOf(field("x", "", entity.ComponentKind("Unknown"), nil)))
}

func TestCreatedAtColumn_SortsAscending(t *testing.T) {
	col := ToColumn(field("createdAt", "创建时间", entity.ComponentDateTimePicker, nil), Context{Location: shanghai})
	records := []entity.ApprovalRecord{
		{"id": 1, "createdAt": "2025-11-03 09:00:00"},
		{"id": 2, "createdAt": "2025-11-01 09:00:00"},
		{"id": 3, "createdAt": "2025-11-02 09:00:00"},
	}

	require.True(t, col.Sortable)
	sort.SliceStable(records, func(i, j int) bool { return col.Less(records[i], records[j]) })

	assert.Equal(t, []int64{2, 3, 1}, []int64{records[0].ID(), records[1].ID(), records[2].ID()})
}

func TestColumns_FixedColumnsAndActions(t *testing.T) {
	cols := Columns(basicSchema(), Context{Role: entity.RoleApprover})

	require.Len(t, cols, 8)
	assert.Equal(t, StatusColumnKey, cols[0].Key)
	assert.Equal(t, 120, cols[0].Width)
	assert.Equal(t, "left", cols[0].Fixed)
	assert.Equal(t, OperationColumnKey, cols[7].Key)
	assert.Equal(t, 280, cols[7].Width)

	pending := RenderRow(cols, entity.ApprovalRecord{"id": 5, "status": "0"})
	assert.Equal(t, StatusTag{Value: "0", Text: "待审批", Color: "orange"}, pending.Status)
	require.Len(t, pending.Actions, 3)
	assert.Equal(t, ActionView, pending.Actions[0].Action)
	assert.False(t, pending.Actions[1].Disabled)
	assert.Equal(t, "通过", pending.Actions[1].Label)

	approved := RenderRow(cols, entity.ApprovalRecord{"id": 6, "status": "1"})
	assert.False(t, approved.Actions[0].Disabled)
	assert.True(t, approved.Actions[1].Disabled)
	assert.True(t, approved.Actions[2].Disabled)
}

func TestRowActions_Applicant(t *testing.T) {
	actions := RowActions(entity.RoleApplicant, entity.StatusPending)

	require.Len(t, actions, 3)
	assert.Equal(t, entity.ActionUpdate, actions[1].Action)
	assert.Equal(t, entity.ActionWithdraw, actions[2].Action)
	assert.Equal(t, "确认撤回", actions[2].Confirm)
	assert.False(t, actions[2].Disabled)

	unknown := RowActions(entity.RoleApplicant, entity.ApprovalStatus("9"))
	assert.Equal(t, "gray", entity.ApprovalStatus("9").Color())
	assert.True(t, unknown[1].Disabled)
}

func TestToFormInput(t *testing.T) {
	ctx := Context{Index: testIndex()}

	text := ToFormInput(field("projectName", "审批项目", entity.ComponentInput, &entity.Validator{MaxCount: 20}), ctx)
	assert.Equal(t, WidgetInput, text.Widget)
	assert.Equal(t, "请输入审批项目", text.Placeholder)
	assert.Equal(t, 20, text.MaxLength)
	assert.True(t, text.ShowWordLimit)

	area := ToFormInput(field("content", "审批内容", entity.ComponentTextarea, nil), ctx)
	assert.Equal(t, WidgetTextArea, area.Widget)
	assert.Equal(t, &AutoSize{MinRows: 4, MaxRows: 8}, area.AutoSize)
	assert.False(t, area.ShowWordLimit)

	dept := ToFormInput(field("departmentId", "申请部门", entity.ComponentDepartmentSelect, nil), ctx)
	assert.Equal(t, WidgetCascader, dept.Widget)
	assert.Equal(t, "请选择部门", dept.Placeholder)
	require.Len(t, dept.Options, 1)
	assert.Equal(t, "A / B", dept.Options[0].Children[0].Path)

	dt := ToFormInput(field("approvalAt", "审批时间", entity.ComponentDateTimePicker, nil), ctx)
	assert.Equal(t, DateTimeFormat, dt.Format)
	assert.True(t, dt.ShowTime)
	assert.Equal(t, "请选择日期时间", dt.Placeholder)

	unknown := ToFormInput(field("x", "X", entity.ComponentKind("Rate"), &entity.Validator{Required: true}), ctx)
	assert.Equal(t, WidgetInput, unknown.Widget)
	assert.Len(t, unknown.Rules, 1)
}

func TestForm_SkipsAttachmentsAndDisablesInView(t *testing.T) {
	s := basicSchema()
	s.Fields = append(s.Fields, field("images", "图片", entity.ComponentInput, nil))

	view := Form(s, ModeView, Context{})
	create := Form(s, ParseFormMode("bogus"), Context{})

	assert.Equal(t, "审批单详情", view.Title)
	assert.Equal(t, "确定", view.SubmitText)
	assert.Len(t, view.Inputs, 6)
	for _, in := range view.Inputs {
		assert.True(t, in.Disabled, in.Field)
	}
	assert.Equal(t, ModeCreate, create.Mode)
	assert.Equal(t, "新建审批单", create.Title)
	assert.Equal(t, "提交", create.SubmitText)
	assert.Equal(t, "保存", ModeEdit.SubmitText())
}

func TestToFilterInput(t *testing.T) {
	ctx := Context{Index: testIndex(), SubmitOnEnter: true}

	text := ToFilterInput(field("projectName", "审批项目", entity.ComponentInput, nil), ctx)
	assert.Equal(t, "请输入审批项目", text.Placeholder)
	assert.True(t, text.SubmitOnEnter)

	dept := ToFilterInput(field("departmentId", "申请部门", entity.ComponentCascader, nil), ctx)
	assert.Equal(t, "请选择申请部门", dept.Placeholder)
	assert.False(t, dept.SubmitOnEnter)
	assert.NotEmpty(t, dept.Options)

	rng := ToFilterInput(field("executeDate", "执行日期", entity.ComponentDatePicker, nil), ctx)
	assert.True(t, rng.Range)
	assert.Equal(t, []string{"开始时间", "结束时间"}, rng.RangePlaceholders)
	assert.Equal(t, DateFormat, rng.Format)

	fallback := ToFilterInput(field("x", "X", entity.ComponentKind("Rate"), nil), Context{})
	assert.Equal(t, WidgetInput, fallback.Widget)
	assert.False(t, fallback.SubmitOnEnter)
}

func TestToQueryParam_DateRange(t *testing.T) {
	q := QueryParams{}

	ToQueryParam(field("approvalAt", "审批时间", entity.ComponentDateTimePicker, nil),
		[]interface{}{"2025-11-01", "2025-11-30"}, q)

	assert.Equal(t, QueryParams{"approvalTimeStart": "2025-11-01", "approvalTimeEnd": "2025-11-30"}, q)
}

func TestToQueryParam_DepartmentLastElement(t *testing.T) {
	q := QueryParams{}

	ToQueryParam(field("departmentId", "申请部门", entity.ComponentCascader, nil), []interface{}{float64(1), float64(2), float64(7)}, q)

	assert.Equal(t, QueryParams{"departmentId": int64(7)}, q)

	q = QueryParams{}
	ToQueryParam(field("departmentId", "申请部门", entity.ComponentDepartmentSelect, nil), []int64{1, 2, 7}, q)
	assert.Equal(t, QueryParams{"departmentId": int64(7)}, q)
}

func TestToQueryParam_UnmappedRangeIsDropped(t *testing.T) {
	// Known gap: a range field outside DateRangeParams sends nothing.
	q := QueryParams{}

	ToQueryParam(field("dueDate", "截止日期", entity.ComponentDatePicker, nil), []string{"2025-11-01", "2025-11-30"}, q)

	assert.Empty(t, q)
}

func TestToQueryParam_EmptyValuesAreAbsent(t *testing.T) {
	fd := field("projectName", "审批项目", entity.ComponentInput, nil)

	for _, v := range []interface{}{nil, "", []interface{}{}} {
		q := QueryParams{}
		ToQueryParam(fd, v, q)
		assert.Empty(t, q, "%#v", v)
	}

	q := QueryParams{}
	ToQueryParam(fd, "预算", q)
	assert.Equal(t, QueryParams{"projectName": "预算"}, q)
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(basicSchema(), map[string]interface{}{
		"projectName":  "预算",
		"content":      "",
		"departmentId": []interface{}{1, 2},
		"executeDate":  []interface{}{"2025-12-01"},
		"createdAt":    []interface{}{"2025-11-01 00:00:00", "2025-11-30 23:59:59"},
		"ignored":      "x",
	})

	assert.Equal(t, QueryParams{
		"projectName":     "预算",
		"departmentId":    int64(2),
		"createTimeStart": "2025-11-01 00:00:00",
		"createTimeEnd":   "2025-11-30 23:59:59",
	}, q)
	assert.Equal(t, "2", q.Values().Get("departmentId"))
}
