// Package importer bulk-creates approval forms from a spreadsheet.
package importer

import (
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/approval-console/internal/domain"
	"github.com/garyjia/approval-console/internal/schema"
	"github.com/garyjia/approval-console/pkg/utils"
)

// Headers is the required first row, in order
var Headers = []string{"审批项目", "审批内容", "申请部门", "执行日期"}

// Template workbook naming
const (
	TemplateSheet    = "审批单模板"
	TemplateFileName = "审批单上传模板.xlsx"
)

var exampleRow = []string{"示例项目名称1", "示例审批内容1", "示例1级部门/示例2级部门/示例3级部门", "2025-12-01"}

// Excel serial day 25569 is 1970-01-01
const excelEpochOffset = 25569

// maxSerial is 9999-12-31
const maxSerial = 2958465

var compactDate = regexp.MustCompile(`^\d{8}$`)

// Row is one data row of the sheet. Line is the 1-based sheet row.
type Row struct {
	Line           int    `json:"line"`
	ProjectName    string `json:"projectName"`
	Content        string `json:"content"`
	DepartmentName string `json:"departmentName"`
	ExecuteDate    string `json:"executeDate"`
}

// Parse reads the first sheet of an xlsx workbook into rows
func Parse(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrImportParse, Op: "open workbook", Message: "导入失败，请检查文件格式", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.Newf(domain.ErrImportParse, "read sheet", "表格内容为空")
	}
	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrImportParse, Op: "read sheet", Message: "导入失败，请检查文件格式", Err: err}
	}
	if len(cells) < 2 {
		return nil, domain.Newf(domain.ErrImportParse, "read sheet", "表格内容为空")
	}
	if !headerMatches(cells[0]) {
		return nil, domain.Newf(domain.ErrImportParse, "check header", "模板格式不正确，请下载最新模板")
	}

	rows := make([]Row, 0, len(cells)-1)
	for i, cell := range cells[1:] {
		if isBlank(cell) {
			continue
		}
		line := i + 2
		date, err := normalizeDate(column(cell, 3), numericCell(f, sheets[0], 4, line))
		if err != nil {
			return nil, domain.Newf(domain.ErrImportParse, "parse row", "第%d行执行日期格式不正确", line)
		}
		rows = append(rows, Row{
			Line:           line,
			ProjectName:    utils.SanitizeString(column(cell, 0)),
			Content:        utils.SanitizeString(column(cell, 1)),
			DepartmentName: utils.SanitizeString(column(cell, 2)),
			ExecuteDate:    date,
		})
	}
	if len(rows) == 0 {
		return nil, domain.Newf(domain.ErrImportParse, "read sheet", "表格内容为空")
	}
	return rows, nil
}

func headerMatches(row []string) bool {
	for i, h := range Headers {
		if strings.TrimSpace(column(row, i)) != h {
			return false
		}
	}
	return true
}

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// numericCell reports whether the cell holds a number rather than text.
// Numbers usually carry no type attribute.
func numericCell(f *excelize.File, sheet string, col, row int) bool {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return false
	}
	return typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber || typ == excelize.CellTypeDate
}

// normalizeDate returns YYYY-MM-DD for a number cell holding an Excel serial
// day or a text cell holding a date. An empty cell stays empty.
func normalizeDate(raw string, numeric bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if numeric {
		serial, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			if serial < 1 || serial > maxSerial {
				return "", strconv.ErrRange
			}
			secs := math.Round((serial - excelEpochOffset) * 86400)
			return time.Unix(int64(secs), 0).UTC().Format(schema.DateLayout), nil
		}
	}
	if compactDate.MatchString(raw) {
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return "", err
		}
		return t.Format(schema.DateLayout), nil
	}
	t, ok := schema.ParseTime(strings.ReplaceAll(raw, "/", "-"), time.UTC)
	if !ok {
		return "", strconv.ErrSyntax
	}
	return t.Format(schema.DateLayout), nil
}

// WriteTemplate writes the import template workbook to w
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return err
	}
	header := toRow(Headers)
	if err := f.SetSheetRow(TemplateSheet, "A1", &header); err != nil {
		return err
	}
	example := toRow(exampleRow)
	if err := f.SetSheetRow(TemplateSheet, "A2", &example); err != nil {
		return err
	}
	if err := f.SetColWidth(TemplateSheet, "A", "D", 24); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
