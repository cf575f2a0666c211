package http

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/approval-console/internal/application/service"
	"github.com/garyjia/approval-console/internal/attachment"
	"github.com/garyjia/approval-console/internal/domain/entity"
	"github.com/garyjia/approval-console/internal/domain/event"
	"github.com/garyjia/approval-console/internal/importer"
	"github.com/garyjia/approval-console/internal/schema"
	"github.com/garyjia/approval-console/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	approvals   service.ApprovalService
	attachments *attachment.Manager
	importer    *importer.Importer
	feed        *service.EventFeed
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, logger Logger) *Handlers {
	return &Handlers{
		approvals:   deps.Approvals,
		attachments: deps.Attachments,
		importer:    deps.Importer,
		feed:        deps.Feed,
		logger:      logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	SchemaKey string `json:"schemaKey"`
}

// SessionResponse is the acting user plus the active schema
type SessionResponse struct {
	User      entity.User `json:"user"`
	SchemaKey string      `json:"schemaKey"`
	Fields    int         `json:"fields"`
}

// RoleRequest switches the acting role
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SchemaRequest selects a schema; the key may also come as ?key=
type SchemaRequest struct {
	Key string `json:"key" form:"key"`
}

// PageRequest holds the paging query of GET /approvals
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// SearchRequest carries raw filter values keyed by field
type SearchRequest struct {
	Values map[string]interface{} `json:"values"`
}

// FormRequest is a create or edit submission
type FormRequest struct {
	Values map[string]interface{} `json:"values"`
	Images attachment.FileList    `json:"images"`
}

// CheckRequest asks whether a file may join the upload list
type CheckRequest struct {
	Name  string `json:"name" binding:"required"`
	Size  int64  `json:"size"`
	Count int    `json:"count"`
}

// RemoveRequest removes uid from the upload list of form FormID (0 in create mode)
type RemoveRequest struct {
	FormID   int64               `json:"formId"`
	UID      string              `json:"uid" binding:"required"`
	FileList attachment.FileList `json:"fileList"`
}

// ImportResponse reports a finished import
type ImportResponse struct {
	Imported int `json:"imported"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, "", HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SchemaKey: h.approvals.ActiveSchema().Key,
	})
}

// GetSession handles GET /api/console/session
func (h *Handlers) GetSession(c *gin.Context) {
	active := h.approvals.ActiveSchema()
	ok(c, "", SessionResponse{
		User:      h.approvals.CurrentUser(),
		SchemaKey: active.Key,
		Fields:    len(active.Fields),
	})
}

// SwitchRole handles POST /api/console/role
func (h *Handlers) SwitchRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数错误", nil)
		return
	}
	role, valid := entity.ParseUserRole(req.Role)
	if !valid {
		fail(c, http.StatusBadRequest, "未知角色："+req.Role, nil)
		return
	}

	h.approvals.SwitchRole(role)
	ok(c, "", h.approvals.CurrentUser())
}

// LoadSchema handles POST /api/console/schema
func (h *Handlers) LoadSchema(c *gin.Context) {
	var req SchemaRequest
	_ = c.ShouldBindQuery(&req)
	if req.Key == "" && c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&req)
	}
	if req.Key == "" {
		fail(c, http.StatusBadRequest, "缺少表单配置 key", nil)
		return
	}

	loaded, err := h.approvals.LoadSchema(c.Request.Context(), req.Key)
	if err != nil {
		h.writeError(c, "load schema", err)
		return
	}
	ok(c, "", loaded)
}

// GetColumns handles GET /api/console/columns
func (h *Handlers) GetColumns(c *gin.Context) {
	ok(c, "", h.approvals.Columns(c.Request.Context()))
}

// GetForm handles GET /api/console/form?mode=
func (h *Handlers) GetForm(c *gin.Context) {
	mode := schema.ParseFormMode(c.Query("mode"))
	ok(c, "", h.approvals.Form(c.Request.Context(), mode))
}

// GetFilters handles GET /api/console/filters
func (h *Handlers) GetFilters(c *gin.Context) {
	ok(c, "", h.approvals.Filters(c.Request.Context()))
}

// GetDepartments handles GET /api/console/departments
func (h *Handlers) GetDepartments(c *gin.Context) {
	options, err := h.approvals.Departments(c.Request.Context())
	if err != nil {
		h.writeError(c, "departments", err)
		return
	}
	ok(c, "", options)
}

// ListApprovals handles GET /api/console/approvals. Without paging params it
// re-fetches the current page.
func (h *Handlers) ListApprovals(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "分页参数错误", nil)
		return
	}

	var (
		res *service.ListResult
		err error
	)
	if req.Page > 0 || req.PageSize > 0 {
		res, err = h.approvals.ChangePage(c.Request.Context(), req.Page, req.PageSize)
	} else {
		res, err = h.approvals.List(c.Request.Context())
	}
	if err != nil {
		h.writeError(c, "list approvals", err)
		return
	}
	ok(c, "", res)
}

// SearchApprovals handles POST /api/console/approvals/search
func (h *Handlers) SearchApprovals(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数错误", nil)
		return
	}

	res, err := h.approvals.Search(c.Request.Context(), req.Values)
	if err != nil {
		h.writeError(c, "search approvals", err)
		return
	}
	ok(c, "", res)
}

// ResetFilters handles POST /api/console/approvals/reset
func (h *Handlers) ResetFilters(c *gin.Context) {
	res, err := h.approvals.ResetFilters(c.Request.Context())
	if err != nil {
		h.writeError(c, "reset filters", err)
		return
	}
	ok(c, "", res)
}

// CreateApproval handles POST /api/console/approvals
func (h *Handlers) CreateApproval(c *gin.Context) {
	h.submit(c, schema.ModeCreate, 0)
}

// UpdateApproval handles PUT /api/console/approvals/:id
func (h *Handlers) UpdateApproval(c *gin.Context) {
	id, valid := h.recordID(c)
	if !valid {
		return
	}
	h.submit(c, schema.ModeEdit, id)
}

func (h *Handlers) submit(c *gin.Context, mode schema.FormMode, id int64) {
	var req FormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数错误", nil)
		return
	}

	res, err := h.approvals.Submit(c.Request.Context(), service.SubmitRequest{
		Mode:        mode,
		RecordID:    id,
		Values:      req.Values,
		Attachments: req.Images,
	})
	if err != nil {
		h.writeError(c, "submit "+string(mode), err)
		return
	}
	ok(c, res.Message, res)
}

// GetRecordForm handles GET /api/console/approvals/:id/form?mode=
func (h *Handlers) GetRecordForm(c *gin.Context) {
	id, valid := h.recordID(c)
	if !valid {
		return
	}
	mode := schema.ParseFormMode(c.DefaultQuery("mode", string(schema.ModeView)))

	prefill, err := h.approvals.Prefill(c.Request.Context(), id, mode)
	if err != nil {
		h.writeError(c, "prefill", err)
		return
	}
	ok(c, "", prefill)
}

// ActOnApproval handles POST /api/console/approvals/:id/:action
func (h *Handlers) ActOnApproval(c *gin.Context) {
	id, valid := h.recordID(c)
	if !valid {
		return
	}
	action, known := entity.ParseApprovalAction(c.Param("action"))
	if !known {
		fail(c, http.StatusNotFound, "未知操作："+c.Param("action"), nil)
		return
	}

	res, err := h.approvals.Act(c.Request.Context(), id, action)
	if err != nil {
		h.writeError(c, "act", err)
		return
	}
	ok(c, res.Message, res)
}

// ImportApprovals handles POST /api/console/import (multipart field "file")
func (h *Handlers) ImportApprovals(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "请选择要导入的文件", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "导入失败，请检查文件格式", nil)
		return
	}
	defer f.Close()

	res, err := h.importer.Import(c.Request.Context(), f)
	if err != nil {
		h.feed.Publish(event.Failure(0, "导入失败", err))
		h.writeError(c, "import", err)
		return
	}

	h.feed.Publish(event.Success(event.TypeApprovalImported, 0, res.Message).WithPayload("count", res.Imported))
	ok(c, res.Message, ImportResponse{Imported: res.Imported})
}

// DownloadTemplate handles GET /api/console/import/template
func (h *Handlers) DownloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(importer.TemplateFileName))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := importer.WriteTemplate(c.Writer); err != nil {
		h.logger.Error("Failed to write import template", "error", err)
	}
}

// CheckAttachment handles POST /api/console/attachments/check
func (h *Handlers) CheckAttachment(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数错误", nil)
		return
	}
	if err := h.attachments.CheckCount(req.Count); err != nil {
		h.writeError(c, "check attachment", err)
		return
	}
	if err := h.attachments.CheckFile(req.Name, req.Size); err != nil {
		h.writeError(c, "check attachment", err)
		return
	}
	ok(c, "", gin.H{"accepted": true})
}

// UploadAttachment handles POST /api/console/attachments (multipart field
// "file", optional formId and count)
func (h *Handlers) UploadAttachment(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "请选择要上传的文件", nil)
		return
	}
	if err := utils.ValidateFileName(fh.Filename); err != nil {
		fail(c, http.StatusBadRequest, "文件名不合法", nil)
		return
	}
	if err := h.attachments.CheckFile(fh.Filename, fh.Size); err != nil {
		h.writeError(c, "upload attachment", err)
		return
	}

	formID, _ := strconv.ParseInt(c.PostForm("formId"), 10, 64)
	count, _ := strconv.Atoi(c.PostForm("count"))

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, fh.Filename+" 上传失败", nil)
		return
	}
	defer f.Close()

	item, err := h.attachments.Upload(c.Request.Context(), formID, count, utils.SanitizeString(fh.Filename), f)
	if err != nil {
		h.writeError(c, "upload attachment", err)
		return
	}
	ok(c, "上传成功", item)
}

// RemoveAttachment handles POST /api/console/attachments/remove. On failure
// the unchanged list comes back so the shell keeps the item.
func (h *Handlers) RemoveAttachment(c *gin.Context) {
	var req RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "请求参数错误", nil)
		return
	}

	item, _ := req.FileList.Find(req.UID)
	upstream := attachment.DeletesUpstream(req.FormID, item)

	list, err := h.attachments.Remove(c.Request.Context(), req.FormID, req.FileList, req.UID)
	if err != nil {
		h.feed.Publish(event.Failure(req.FormID, "删除附件失败", err))
		status := statusFor(err)
		h.logger.Error("Request failed", "op", "remove attachment", "status", status, "error", err)
		fail(c, status, "删除附件失败", gin.H{"fileList": list})
		return
	}

	msg := ""
	if upstream {
		msg = "附件记录删除成功"
		h.feed.Publish(event.Success(event.TypeAttachmentRemoved, req.FormID, msg).WithPayload("uid", req.UID))
	}
	ok(c, msg, gin.H{"fileList": list})
}

// ListNotifications handles GET /api/console/notifications?limit=
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	ok(c, "", h.feed.Recent(limit))
}

func (h *Handlers) recordID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error("Invalid approval ID", "id", idStr, "error", err)
		fail(c, http.StatusBadRequest, "审批单 ID 不合法", nil)
		return 0, false
	}
	return id, true
}
