package service

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/attachment"
	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain"
	"github.com/garyjia/approval-console/internal/domain/entity"
	"github.com/garyjia/approval-console/internal/domain/event"
	"github.com/garyjia/approval-console/internal/domain/workflow"
	"github.com/garyjia/approval-console/internal/schema"
	"github.com/garyjia/approval-console/internal/store"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// User-facing result messages
const (
	MsgCreated       = "审批单创建成功！"
	MsgUpdated       = "审批单修改成功！"
	MsgFailed        = "操作失败"
	MsgListFailed    = "获取审批列表失败"
	MsgActionDefault = "操作成功"
)

var actionMessages = map[entity.ApprovalAction]string{
	entity.ActionApprove:  "审批已通过",
	entity.ActionReject:   "审批已驳回",
	entity.ActionWithdraw: "审批单已撤回",
}

var actionEvents = map[entity.ApprovalAction]event.Type{
	entity.ActionApprove:  event.TypeApprovalApproved,
	entity.ActionReject:   event.TypeApprovalRejected,
	entity.ActionWithdraw: event.TypeApprovalWithdrawn,
}

// ActionMessage returns the success message shown after action
func ActionMessage(action entity.ApprovalAction) string {
	if msg, ok := actionMessages[action]; ok {
		return msg
	}
	return MsgActionDefault
}

// ListResult is one rendered page of the approval list
type ListResult struct {
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
	Total    int64                   `json:"total"`
	Rows     []schema.Row            `json:"rows"`
	Records  []entity.ApprovalRecord `json:"records"`
}

// SubmitRequest is a create or edit form submission
type SubmitRequest struct {
	Mode        schema.FormMode        `json:"mode"`
	RecordID    int64                  `json:"recordId,omitempty"`
	Values      map[string]interface{} `json:"values"`
	Attachments attachment.FileList    `json:"images,omitempty"`
}

// Prefill holds the form values of a saved record plus its upload list
type Prefill struct {
	Form   schema.FormSpec        `json:"form"`
	Values map[string]interface{} `json:"values"`
	Images attachment.FileList    `json:"images"`
}

// Result is the outcome of a mutation
type Result struct {
	Message string                `json:"message"`
	Record  entity.ApprovalRecord `json:"record,omitempty"`
}

// ApprovalService drives the console session: schema selection, the list,
// the form modal and the row actions
type ApprovalService interface {
	CurrentUser() entity.User
	ActiveSchema() entity.Schema
	SwitchRole(role entity.UserRole) bool
	LoadSchema(ctx context.Context, key string) (entity.Schema, error)
	Departments(ctx context.Context) ([]department.Option, error)
	Columns(ctx context.Context) []schema.ColumnSpec
	Form(ctx context.Context, mode schema.FormMode) schema.FormSpec
	Filters(ctx context.Context) []schema.FilterSpec
	List(ctx context.Context) (*ListResult, error)
	Search(ctx context.Context, filterValues map[string]interface{}) (*ListResult, error)
	ChangePage(ctx context.Context, page, size int) (*ListResult, error)
	ResetFilters(ctx context.Context) (*ListResult, error)
	Prefill(ctx context.Context, id int64, mode schema.FormMode) (*Prefill, error)
	Submit(ctx context.Context, req SubmitRequest) (*Result, error)
	Act(ctx context.Context, id int64, action entity.ApprovalAction) (*Result, error)
}

type approvalServiceImpl struct {
	approvals port.ApprovalAPI
	store     *store.Store
	list      *store.ListState
	session   *store.Session
	notifier  Notifier
	location  *time.Location
	logger    Logger
}

// NewApprovalService creates a new ApprovalService. loc is the zone dates are
// read and written in; nil means time.Local.
func NewApprovalService(
	approvals port.ApprovalAPI,
	st *store.Store,
	list *store.ListState,
	session *store.Session,
	notifier Notifier,
	loc *time.Location,
	logger Logger,
) ApprovalService {
	if loc == nil {
		loc = time.Local
	}
	return &approvalServiceImpl{
		approvals: approvals,
		store:     st,
		list:      list,
		session:   session,
		notifier:  notifier,
		location:  loc,
		logger:    logger,
	}
}

func (s *approvalServiceImpl) schemaContext() schema.Context {
	return schema.Context{
		Index:         s.store.Index(),
		Location:      s.location,
		Role:          s.session.Role(),
		SubmitOnEnter: true,
	}
}

func (s *approvalServiceImpl) publish(e *event.Event) {
	if s.notifier != nil {
		s.notifier.Publish(e)
	}
}

// ensureDepartments loads the department tree once. A failure is logged and
// rendering continues with an empty index.
func (s *approvalServiceImpl) ensureDepartments(ctx context.Context) {
	if s.store.DepartmentsLoaded() {
		return
	}
	if _, err := s.store.LoadDepartments(ctx); err != nil {
		s.logger.Error("Failed to load departments", "error", err)
	}
}

// CurrentUser returns the acting user with the current role
func (s *approvalServiceImpl) CurrentUser() entity.User {
	return s.session.User()
}

// ActiveSchema returns the schema the console currently renders
func (s *approvalServiceImpl) ActiveSchema() entity.Schema {
	return s.store.Schema()
}

// SwitchRole changes the role and clears the list state when it changed
func (s *approvalServiceImpl) SwitchRole(role entity.UserRole) bool {
	changed := s.session.SwitchRole(role)
	if changed {
		s.list.Reset()
		s.logger.Info("Role switched", "role", role)
	}
	return changed
}

// LoadSchema activates the schema registered under key. A response overtaken
// by a newer request is not an error: the caller gets the schema that won.
func (s *approvalServiceImpl) LoadSchema(ctx context.Context, key string) (entity.Schema, error) {
	previous := s.store.SchemaKey()
	loaded, err := s.store.LoadSchema(ctx, key)
	if errors.Is(err, domain.ErrStaleResponse) {
		s.logger.Info("Schema response superseded", "key", key, "active", s.store.SchemaKey())
		return s.store.Schema(), nil
	}
	if err != nil {
		s.logger.Error("Failed to load schema", "error", err, "key", key)
		return entity.Schema{}, err
	}
	if previous != "" && previous != loaded.Key {
		s.list.Reset()
	}
	return loaded, nil
}

// Departments returns the cascader options of the department tree
func (s *approvalServiceImpl) Departments(ctx context.Context) ([]department.Option, error) {
	if _, err := s.store.LoadDepartments(ctx); err != nil {
		s.logger.Error("Failed to load departments", "error", err)
		return nil, err
	}
	return s.store.Index().Options(), nil
}

// Columns builds the table columns of the active schema
func (s *approvalServiceImpl) Columns(ctx context.Context) []schema.ColumnSpec {
	s.ensureDepartments(ctx)
	return schema.Columns(s.store.Schema(), s.schemaContext())
}

// Form builds the modal inputs of the active schema
func (s *approvalServiceImpl) Form(ctx context.Context, mode schema.FormMode) schema.FormSpec {
	s.ensureDepartments(ctx)
	return schema.Form(s.store.Schema(), mode, s.schemaContext())
}

// Filters builds the filter panel of the active schema
func (s *approvalServiceImpl) Filters(ctx context.Context) []schema.FilterSpec {
	s.ensureDepartments(ctx)
	return schema.Filters(s.store.Schema(), s.schemaContext())
}

// List fetches the page the list state points at and renders it
func (s *approvalServiceImpl) List(ctx context.Context) (*ListResult, error) {
	s.ensureDepartments(ctx)

	query := s.list.Query(s.session.Role())
	page, err := s.approvals.ListApprovals(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list approvals", "error", err, "page", query.Page, "role", query.Role)
		wrapped := &domain.Error{Kind: domain.ErrRecordFetch, Op: "list approvals", Message: MsgListFailed, Err: err}
		s.publish(event.Failure(0, MsgListFailed, err))
		return nil, wrapped
	}
	s.list.Remember(page)

	cols := schema.Columns(s.store.Schema(), s.schemaContext())
	return &ListResult{
		Page:     query.Page,
		PageSize: query.PageSize,
		Total:    page.Total,
		Rows:     schema.RenderRows(cols, page.List),
		Records:  page.List,
	}, nil
}

// Search applies filter values from page 1
func (s *approvalServiceImpl) Search(ctx context.Context, filterValues map[string]interface{}) (*ListResult, error) {
	params := schema.BuildQuery(s.store.Schema(), filterValues)
	s.list.SetFilters(params)
	return s.List(ctx)
}

// ChangePage moves the list to page. A new page size starts again at page 1.
func (s *approvalServiceImpl) ChangePage(ctx context.Context, page, size int) (*ListResult, error) {
	s.list.SetPage(page, size)
	return s.List(ctx)
}

// ResetFilters clears the filters and returns to page 1
func (s *approvalServiceImpl) ResetFilters(ctx context.Context) (*ListResult, error) {
	s.list.Reset()
	return s.List(ctx)
}

// Prefill returns the form of a record from the current page
func (s *approvalServiceImpl) Prefill(ctx context.Context, id int64, mode schema.FormMode) (*Prefill, error) {
	record, ok := s.list.Find(id)
	if !ok {
		return nil, domain.Newf(domain.ErrRecordFetch, "prefill", "审批单不存在，请刷新后重试")
	}
	s.ensureDepartments(ctx)

	sctx := s.schemaContext()
	return &Prefill{
		Form:   schema.Form(s.store.Schema(), mode, sctx),
		Values: schema.PrefillValues(s.store.Schema(), record, sctx),
		Images: attachment.FromAttachments(record.Attachments()),
	}, nil
}

// Submit validates and sends a create or edit form
func (s *approvalServiceImpl) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	if req.Mode != schema.ModeCreate && req.Mode != schema.ModeEdit {
		return nil, domain.Newf(domain.ErrInvalidTransition, "submit", "当前模式不可提交")
	}
	if req.Mode == schema.ModeEdit {
		if err := s.checkRecordAction(req.RecordID, entity.ActionUpdate); err != nil {
			return nil, err
		}
	}

	current := s.store.Schema()
	if verrs := schema.ValidateValues(current, req.Values); verrs != nil {
		return nil, &domain.Error{Kind: domain.ErrValidation, Op: "submit", Message: "表单校验失败", Err: verrs}
	}

	payload := schema.BuildPayload(current, req.Values, s.schemaContext())
	payload[schema.AttrAttachmentIDs] = req.Attachments.IDs()

	var (
		record entity.ApprovalRecord
		err    error
		msg    string
		evType event.Type
	)
	if req.Mode == schema.ModeCreate {
		payload[entity.AttrApplicantID] = s.applicantID()
		record, err = s.approvals.CreateApproval(ctx, payload)
		msg, evType = MsgCreated, event.TypeApprovalCreated
	} else {
		record, err = s.approvals.UpdateApproval(ctx, req.RecordID, payload)
		msg, evType = MsgUpdated, event.TypeApprovalUpdated
	}
	if err != nil {
		s.logger.Error("Failed to submit approval", "error", err, "mode", req.Mode, "id", req.RecordID)
		s.publish(event.Failure(req.RecordID, MsgFailed, err))
		return nil, &domain.Error{Kind: domain.ErrRecordMutation, Op: "submit " + string(req.Mode), Message: MsgFailed, Err: err}
	}

	id := record.ID()
	if id == 0 {
		id = req.RecordID
	}
	s.logger.Info("Approval submitted", "mode", req.Mode, "id", id)
	s.publish(event.Success(evType, id, msg))
	return &Result{Message: msg, Record: record}, nil
}

func (s *approvalServiceImpl) applicantID() int64 {
	if id := s.session.User().ID; id > 0 {
		return id
	}
	return store.DefaultApplicantID
}

// Act runs a workflow action on a record of the current page
func (s *approvalServiceImpl) Act(ctx context.Context, id int64, action entity.ApprovalAction) (*Result, error) {
	if err := s.checkRecordAction(id, action); err != nil {
		return nil, err
	}

	role := s.session.Role()
	var err error
	switch action {
	case entity.ActionApprove:
		err = s.approvals.Approve(ctx, id, role)
	case entity.ActionReject:
		err = s.approvals.Reject(ctx, id, role)
	case entity.ActionWithdraw:
		err = s.approvals.Withdraw(ctx, id)
	default:
		return nil, domain.Newf(domain.ErrInvalidTransition, "act", "不支持的操作：%s", action)
	}
	if err != nil {
		s.logger.Error("Approval action failed", "error", err, "id", id, "action", action)
		s.publish(event.Failure(id, MsgFailed, err))
		return nil, &domain.Error{Kind: domain.ErrRecordMutation, Op: "act " + string(action), Message: MsgFailed, Err: err}
	}

	msg := ActionMessage(action)
	s.logger.Info("Approval action applied", "id", id, "action", action, "role", role)
	s.publish(event.Success(actionEvents[action], id, msg))
	return &Result{Message: msg}, nil
}

// checkRecordAction asks the workflow whether the current role may run
// action on record id of the current page
func (s *approvalServiceImpl) checkRecordAction(id int64, action entity.ApprovalAction) error {
	record, ok := s.list.Find(id)
	if !ok {
		return domain.Newf(domain.ErrInvalidTransition, "check action", "审批单不存在，请刷新后重试")
	}
	role := s.session.Role()
	if err := workflow.CheckAction(role, record.Status(), action); err != nil {
		s.logger.Info("Action rejected by workflow", "id", id, "action", action, "role", role, "status", record.Status())
		return &domain.Error{Kind: domain.ErrInvalidTransition, Op: "check action", Message: "当前状态不可执行该操作", Err: err}
	}
	return nil
}
