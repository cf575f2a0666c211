package approvalapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

// Upstream paths, relative to the base URL
const (
	pathApprovals        = "/approvals"
	pathApprovalsBatch   = "/approvals/batch"
	pathDepartments      = "/departments"
	pathDepartmentByName = "/departments/byname/"
	pathFormSchema       = "/form/schema"
	pathUpload           = "/attachments/upload"
	pathDelete           = "/attachments/delete"
)

// UploadFieldName is the multipart field carrying the file
const UploadFieldName = "file"

// ListApprovals fetches one page of records
func (c *Client) ListApprovals(ctx context.Context, q port.ListQuery) (*entity.Page, error) {
	query := url.Values{}
	for k, v := range q.Params {
		query.Set(k, cast.ToString(v))
	}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Role != "" {
		query.Set("role", string(q.Role))
	}

	var page entity.Page
	if _, err := c.do(ctx, request{method: http.MethodGet, path: pathApprovals, query: query}, &page); err != nil {
		return nil, err
	}
	if page.List == nil {
		page.List = []entity.ApprovalRecord{}
	}
	return &page, nil
}

// CreateApproval creates one record. The returned record is nil when the
// upstream answers without data.
func (c *Client) CreateApproval(ctx context.Context, payload map[string]interface{}) (entity.ApprovalRecord, error) {
	var rec entity.ApprovalRecord
	if _, err := c.do(ctx, request{method: http.MethodPost, path: pathApprovals, body: payload}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// BatchCreateApprovals creates records in one call
func (c *Client) BatchCreateApprovals(ctx context.Context, payloads []map[string]interface{}) (*port.BatchResult, error) {
	var data interface{}
	msg, err := c.do(ctx, request{method: http.MethodPost, path: pathApprovalsBatch, body: payloads}, &data)
	if err != nil {
		return nil, err
	}
	return &port.BatchResult{Created: createdCount(data, len(payloads)), Message: msg}, nil
}

// createdCount reads {count}, {created} or a list from the batch response
func createdCount(data interface{}, fallback int) int {
	switch v := data.(type) {
	case []interface{}:
		return len(v)
	case map[string]interface{}:
		for _, key := range []string{"count", "created", "total"} {
			if n, err := cast.ToIntE(v[key]); err == nil && v[key] != nil {
				return n
			}
		}
		if list, ok := v["list"].([]interface{}); ok {
			return len(list)
		}
	}
	return fallback
}

// UpdateApproval updates record id
func (c *Client) UpdateApproval(ctx context.Context, id int64, payload map[string]interface{}) (entity.ApprovalRecord, error) {
	var rec entity.ApprovalRecord
	path := fmt.Sprintf("%s/%d", pathApprovals, id)
	if _, err := c.do(ctx, request{method: http.MethodPut, path: path, body: payload}, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Approve approves record id acting as role
func (c *Client) Approve(ctx context.Context, id int64, role entity.UserRole) error {
	return c.transition(ctx, id, "approve", map[string]interface{}{"role": role})
}

// Reject rejects record id acting as role
func (c *Client) Reject(ctx context.Context, id int64, role entity.UserRole) error {
	return c.transition(ctx, id, "reject", map[string]interface{}{"role": role})
}

// Withdraw withdraws record id. It sends no role.
func (c *Client) Withdraw(ctx context.Context, id int64) error {
	return c.transition(ctx, id, "withdraw", nil)
}

func (c *Client) transition(ctx context.Context, id int64, action string, body map[string]interface{}) error {
	path := fmt.Sprintf("%s/%d/%s", pathApprovals, id, action)
	req := request{method: http.MethodPost, path: path}
	if body != nil {
		req.body = body
	}
	if _, err := c.do(ctx, req, nil); err != nil {
		return err
	}
	c.logger.Info("Approval transition sent",
		zap.Int64("id", id),
		zap.String("action", action))
	return nil
}

// FetchDepartments fetches the department tree in options format, where
// every node carries its precomputed path
func (c *Client) FetchDepartments(ctx context.Context) ([]entity.DepartmentNode, error) {
	query := url.Values{"format": []string{"options"}}
	var tree []entity.DepartmentNode
	if _, err := c.do(ctx, request{method: http.MethodGet, path: pathDepartments, query: query}, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// FindDepartmentByName looks a department up by exact name
func (c *Client) FindDepartmentByName(ctx context.Context, name string) (*entity.DepartmentNode, error) {
	var node *entity.DepartmentNode
	path := pathDepartmentByName + url.PathEscape(name)
	if _, err := c.do(ctx, request{method: http.MethodGet, path: path}, &node); err != nil {
		return nil, err
	}
	if node == nil || node.ID == 0 {
		return nil, fmt.Errorf("department %q: %w", name, ErrNotFound)
	}
	return node, nil
}

// FetchFormSchema fetches the field schema registered under key. The data is
// either the field list itself or an object holding it under "fields".
func (c *Client) FetchFormSchema(ctx context.Context, key string) (entity.Schema, error) {
	query := url.Values{"key": []string{key}}
	var data json.RawMessage
	if _, err := c.do(ctx, request{method: http.MethodGet, path: pathFormSchema, query: query}, &data); err != nil {
		return entity.Schema{}, err
	}

	schema := entity.Schema{Key: key}
	if len(data) == 0 {
		return schema, nil
	}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &schema.Fields); err != nil {
			return entity.Schema{}, fmt.Errorf("decode schema fields: %w", err)
		}
		return schema, nil
	}
	var wrapped struct {
		Fields []entity.FieldDescriptor `json:"fields"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return entity.Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	schema.Fields = wrapped.Fields
	return schema, nil
}

// UploadAttachment uploads one file as multipart form data. formID 0 uploads
// without a form, as in create mode.
func (c *Client) UploadAttachment(ctx context.Context, formID int64, fileName string, content io.Reader) (*entity.Attachment, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(UploadFieldName, fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	query := url.Values{}
	if formID > 0 {
		query.Set("formId", strconv.FormatInt(formID, 10))
	}

	var att entity.Attachment
	req := request{method: http.MethodPost, path: pathUpload, query: query, rawBody: pr, contentType: mw.FormDataContentType()}
	if _, err := c.do(ctx, req, &att); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	if att.FileName == "" {
		att.FileName = fileName
	}
	if att.FormID == 0 {
		att.FormID = formID
	}
	return &att, nil
}

// DeleteAttachment deletes an attachment by id
func (c *Client) DeleteAttachment(ctx context.Context, formID, attachmentID int64) error {
	body := map[string]interface{}{
		"formId":       formID,
		"attachmentId": attachmentID,
	}
	_, err := c.do(ctx, request{method: http.MethodPost, path: pathDelete, body: body}, nil)
	return err
}
