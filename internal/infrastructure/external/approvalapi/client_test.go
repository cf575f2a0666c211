package approvalapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second}, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestListApprovals_QueryAndCamelCase(t *testing.T) {
	var gotQuery map[string][]string
	var gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/approvals", r.URL.Path)
		gotQuery = r.URL.Query()
		gotRequestID = r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, `{"code":200,"message":"ok","data":{"list":[{"id":3,"status":"0","project_name":"预算","department_id":7,"department_path":"A / B"}],"total":21}}`)
	})

	page, err := client.ListApprovals(context.Background(), port.ListQuery{
		Page:     2,
		PageSize: 10,
		Role:     entity.RoleApprover,
		Params:   map[string]interface{}{"departmentId": int64(7), "approvalTimeStart": "2025-11-01"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"10"}, gotQuery["pageSize"])
	assert.Equal(t, []string{"APPROVER"}, gotQuery["role"])
	assert.Equal(t, []string{"7"}, gotQuery["departmentId"])
	assert.Equal(t, []string{"2025-11-01"}, gotQuery["approvalTimeStart"])
	assert.NotEmpty(t, gotRequestID)

	require.Len(t, page.List, 1)
	assert.Equal(t, int64(21), page.Total)
	rec := page.List[0]
	assert.Equal(t, int64(3), rec.ID())
	assert.Equal(t, "预算", rec.String("projectName"))
	assert.Equal(t, int64(7), rec.DepartmentID())
	assert.Equal(t, "A / B", rec.DepartmentPath())
}

func TestDo_RequestIDFromContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-42", r.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusOK, `{"code":0,"data":null}`)
	})

	err := client.Withdraw(WithRequestID(context.Background(), "req-42"), 9)

	require.NoError(t, err)
}

func TestDo_EnvelopeCodes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		code    int
	}{
		{"code 200", http.StatusOK, `{"code":200,"data":null}`, false, 0},
		{"code 0", http.StatusOK, `{"code":0,"msg":"ok"}`, false, 0},
		{"no code", http.StatusOK, `{"data":{}}`, false, 0},
		{"business error", http.StatusOK, `{"code":4001,"message":"审批单不存在"}`, true, 4001},
		{"http error", http.StatusInternalServerError, `{"code":500,"msg":"db down"}`, true, 500},
		{"http error without body", http.StatusBadGateway, ``, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := client.Approve(context.Background(), 1, entity.RoleApprover)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "err = %v", err)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestApproveAndWithdraw_Bodies(t *testing.T) {
	var bodies = map[string]string{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies[r.URL.Path] = string(b)
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusOK, `{"code":200}`)
	})
	ctx := context.Background()

	require.NoError(t, client.Approve(ctx, 5, entity.RoleApprover))
	require.NoError(t, client.Reject(ctx, 6, entity.RoleApprover))
	require.NoError(t, client.Withdraw(ctx, 7))

	assert.JSONEq(t, `{"role":"APPROVER"}`, bodies["/api/approvals/5/approve"])
	assert.JSONEq(t, `{"role":"APPROVER"}`, bodies["/api/approvals/6/reject"])
	assert.Equal(t, "", bodies["/api/approvals/7/withdraw"])
}

func TestCreateAndUpdateApproval(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(7), payload["departmentId"])
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusOK, `{"code":200,"data":{"id":12,"status":"0"}}`)
		case http.MethodPut:
			assert.Equal(t, "/api/approvals/12", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"code":200,"data":null}`)
		}
	})
	ctx := context.Background()

	rec, err := client.CreateApproval(ctx, map[string]interface{}{"departmentId": 7})
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.ID())

	rec, err = client.UpdateApproval(ctx, 12, map[string]interface{}{"departmentId": 7})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBatchCreateApprovals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/approvals/batch", r.URL.Path)
		var payload []map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Len(t, payload, 2)
		writeJSON(w, http.StatusOK, `{"code":200,"message":"导入完成","data":{"count":2}}`)
	})

	res, err := client.BatchCreateApprovals(context.Background(), []map[string]interface{}{{"a": 1}, {"a": 2}})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, "导入完成", res.Message)
}

func TestCreatedCount(t *testing.T) {
	assert.Equal(t, 3, createdCount([]interface{}{1, 2, 3}, 9))
	assert.Equal(t, 4, createdCount(map[string]interface{}{"created": 4}, 9))
	assert.Equal(t, 9, createdCount(nil, 9))
}

func TestFetchDepartments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "options", r.URL.Query().Get("format"))
		writeJSON(w, http.StatusOK, `{"code":200,"data":[{"value":1,"label":"A","path":"A","children":[{"value":2,"label":"B","path":"A / B"}]}]}`)
	})

	tree, err := client.FetchDepartments(context.Background())

	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, int64(1), tree[0].ID)
	assert.Equal(t, "A / B", tree[0].Children[0].Path)
}

func TestFindDepartmentByName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/财务部") {
			writeJSON(w, http.StatusOK, `{"code":200,"data":{"id":3,"name":"财务部"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"code":200,"data":null}`)
	})
	ctx := context.Background()

	node, err := client.FindDepartmentByName(ctx, "财务部")
	require.NoError(t, err)
	assert.Equal(t, int64(3), node.ID)

	_, err = client.FindDepartmentByName(ctx, "不存在")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFetchFormSchema_Shapes(t *testing.T) {
	bodies := map[string]string{
		"list":    `{"code":200,"msg":"ok","data":[{"field":"project_name","name":"审批项目","component":"Input","validator":{"required":true,"max_count":20}}]}`,
		"wrapped": `{"code":0,"data":{"fields":[{"field":"projectName","name":"审批项目","component":"Input","validator":{"required":true,"maxCount":20}}]}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "basic_approval", r.URL.Query().Get("key"))
				writeJSON(w, http.StatusOK, body)
			})

			s, err := client.FetchFormSchema(context.Background(), "basic_approval")

			require.NoError(t, err)
			require.Len(t, s.Fields, 1)
			assert.Equal(t, "basic_approval", s.Key)
			assert.Equal(t, 20, s.Fields[0].MaxCount())
			assert.True(t, s.Fields[0].IsRequired())
		})
	}
}

func TestUploadAttachment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "15", r.URL.Query().Get("formId"))
		file, header, err := r.FormFile(UploadFieldName)
		if !assert.NoError(t, err) {
			writeJSON(w, http.StatusBadRequest, `{"code":400}`)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "a.png", header.Filename)
		assert.Equal(t, "PNGDATA", string(content))
		writeJSON(w, http.StatusOK, `{"code":200,"data":{"id":88,"file_url":"/files/a.png","file_type":"IMAGE"}}`)
	})

	att, err := client.UploadAttachment(context.Background(), 15, "a.png", strings.NewReader("PNGDATA"))

	require.NoError(t, err)
	assert.Equal(t, int64(88), att.ID)
	assert.Equal(t, "/files/a.png", att.FileURL)
	assert.Equal(t, "a.png", att.FileName)
	assert.Equal(t, int64(15), att.FormID)
	assert.True(t, att.IsImage())
}

func TestUploadAttachment_WithoutForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["formId"]
		assert.False(t, present)
		writeJSON(w, http.StatusOK, `{"code":200,"data":{"id":1,"fileUrl":"/f"}}`)
	})

	_, err := client.UploadAttachment(context.Background(), 0, "a.png", strings.NewReader("x"))

	require.NoError(t, err)
}

func TestDeleteAttachment_ByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"formId":15,"attachmentId":88}`, string(b))
		writeJSON(w, http.StatusOK, `{"code":200}`)
	})

	require.NoError(t, client.DeleteAttachment(context.Background(), 15, 88))
}

func TestCamelizeKeys(t *testing.T) {
	in := map[string]interface{}{
		"department_id": 1,
		"children":      []interface{}{map[string]interface{}{"file_url": "x", "fileName": "y"}},
	}

	out := CamelizeKeys(in).(map[string]interface{})

	assert.Contains(t, out, "departmentId")
	child := out["children"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "x", child["fileUrl"])
	assert.Equal(t, "y", child["fileName"])
}
