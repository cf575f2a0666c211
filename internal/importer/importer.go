package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain"
	"github.com/garyjia/approval-console/internal/domain/entity"
	"github.com/garyjia/approval-console/internal/store"
)

// IndexSource supplies the loaded department index, if any
type IndexSource interface {
	Index() *department.Index
}

// Result is the outcome of one import
type Result struct {
	Imported int
	Message  string
}

// Importer resolves department names and bulk-creates the parsed rows
type Importer struct {
	approvals   port.ApprovalAPI
	departments port.DepartmentProvider
	index       IndexSource
	applicantID int64
	logger      *zap.Logger
}

// New creates an importer. index may be nil.
func New(approvals port.ApprovalAPI, departments port.DepartmentProvider, index IndexSource, logger *zap.Logger) *Importer {
	return &Importer{
		approvals:   approvals,
		departments: departments,
		index:       index,
		applicantID: store.DefaultApplicantID,
		logger:      logger,
	}
}

// WithApplicant sets the applicant id recorded on imported forms
func (im *Importer) WithApplicant(id int64) *Importer {
	if id > 0 {
		im.applicantID = id
	}
	return im
}

// Import parses r and creates every row in one batch. Any row whose
// department cannot be resolved aborts the import before anything is created.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	rows, err := Parse(r)
	if err != nil {
		return nil, err
	}

	ids, err := im.resolveDepartments(ctx, rows)
	if err != nil {
		return nil, err
	}

	payloads := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, map[string]interface{}{
			entity.AttrProjectName:  row.ProjectName,
			entity.AttrContent:      row.Content,
			entity.AttrDepartmentID: ids[row.DepartmentName],
			entity.AttrExecuteDate:  row.ExecuteDate,
			entity.AttrApplicantID:  im.applicantID,
		})
	}

	res, err := im.approvals.BatchCreateApprovals(ctx, payloads)
	if err != nil {
		im.logger.Error("Batch create failed", zap.Int("rows", len(payloads)), zap.Error(err))
		return nil, &domain.Error{Kind: domain.ErrRecordMutation, Op: "batch create", Message: "批量创建失败", Err: err}
	}

	count := res.Created
	if count <= 0 {
		count = len(payloads)
	}
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("成功导入 %d 条审批单", count)
	}

	im.logger.Info("Approvals imported", zap.Int("count", count))
	return &Result{Imported: count, Message: msg}, nil
}

// resolveDepartments maps every distinct department cell to an id. A typed
// path is matched against the loaded index first, then looked up by name.
func (im *Importer) resolveDepartments(ctx context.Context, rows []Row) (map[string]int64, error) {
	var idx *department.Index
	if im.index != nil {
		idx = im.index.Index()
	}

	ids := make(map[string]int64)
	var missing []string
	for _, row := range rows {
		name := row.DepartmentName
		if _, done := ids[name]; done {
			continue
		}
		id, err := im.resolve(ctx, idx, name)
		if err != nil {
			return nil, &domain.Error{Kind: domain.ErrImportParse, Op: "resolve department", Message: "导入失败，请检查文件格式", Err: err}
		}
		if id == 0 {
			missing = append(missing, name)
		}
		ids[name] = id
	}

	if len(missing) > 0 {
		im.logger.Info("Import rejected, unknown departments", zap.Strings("departments", missing))
		return nil, domain.Newf(domain.ErrImportParse, "resolve department",
			"未解析到有效数据，请检查部门名称是否正确：%s", strings.Join(missing, "、"))
	}
	return ids, nil
}

func (im *Importer) resolve(ctx context.Context, idx *department.Index, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	if id, ok := idx.FindByPath(name); ok {
		return id, nil
	}

	// the byname endpoint knows leaf names only
	leaf := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		leaf = strings.TrimSpace(name[i+1:])
	}
	node, err := im.departments.FindDepartmentByName(ctx, leaf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		im.logger.Info("Department lookup failed", zap.String("department", leaf), zap.Error(err))
		return 0, nil
	}
	if node == nil {
		return 0, nil
	}
	return node.ID, nil
}
