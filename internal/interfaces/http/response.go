package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/approval-console/internal/domain"
	"github.com/garyjia/approval-console/internal/schema"
)

// Response is the envelope of every console response. Code is 0 on success
// and the HTTP status otherwise.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c *gin.Context, message string, data interface{}) {
	if message == "" {
		message = "success"
	}
	c.JSON(http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

// statusFor maps the error taxonomy onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrImportParse), errors.Is(err, domain.ErrAttachment):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSchemaLoad),
		errors.Is(err, domain.ErrDepartmentLoad),
		errors.Is(err, domain.ErrRecordFetch),
		errors.Is(err, domain.ErrRecordMutation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var fallbackMessages = map[int]string{
	http.StatusUnprocessableEntity: "表单校验失败",
	http.StatusConflict:            "当前状态不可执行该操作",
	http.StatusBadRequest:          "请求参数错误",
	http.StatusBadGateway:          "操作失败",
	http.StatusInternalServerError: "服务器内部错误",
}

// writeError responds with the status and user message of err. Validation
// failures carry the per-field messages as data.
func (h *Handlers) writeError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	h.logger.Error("Request failed", "op", op, "status", status, "error", err)

	var data interface{}
	var verrs schema.ValidationErrors
	if errors.As(err, &verrs) {
		data = verrs
	}
	fail(c, status, domain.UserMessage(err, fallbackMessages[status]), data)
}
