package store

import (
	"sync"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

// DefaultPageSize applies when no page size is configured
const DefaultPageSize = 10

// ListState is the paging and filter state of the approval list, plus the
// last page fetched with it
type ListState struct {
	mu              sync.RWMutex
	page            int
	pageSize        int
	defaultPageSize int
	params          map[string]interface{}
	records         []entity.ApprovalRecord
	total           int64
}

// NewListState creates a list state at page 1
func NewListState(pageSize int) *ListState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ListState{
		page:            1,
		pageSize:        pageSize,
		defaultPageSize: pageSize,
		params:          map[string]interface{}{},
	}
}

// Page returns the current page number and size
func (l *ListState) Page() (page, size int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.page, l.pageSize
}

// SetFilters replaces the query parameters and resets to page 1
func (l *ListState) SetFilters(params map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params = copyParams(params)
	l.page = 1
}

// SetPage moves to page. A page size change resets to page 1.
func (l *ListState) SetPage(page, size int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if size > 0 && size != l.pageSize {
		l.pageSize = size
		l.page = 1
		return
	}
	if page < 1 {
		page = 1
	}
	l.page = page
}

// Reset clears the filters and returns to page 1 with the default size
func (l *ListState) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params = map[string]interface{}{}
	l.page = 1
	l.pageSize = l.defaultPageSize
	l.records = nil
	l.total = 0
}

// Params returns a copy of the current query parameters
func (l *ListState) Params() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyParams(l.params)
}

// Query builds the list request for role
func (l *ListState) Query(role entity.UserRole) port.ListQuery {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return port.ListQuery{
		Page:     l.page,
		PageSize: l.pageSize,
		Role:     role,
		Params:   copyParams(l.params),
	}
}

// Remember stores the page last fetched
func (l *ListState) Remember(p *entity.Page) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p == nil {
		l.records, l.total = nil, 0
		return
	}
	l.records = append([]entity.ApprovalRecord(nil), p.List...)
	l.total = p.Total
}

// Records returns the page last fetched and the total count
func (l *ListState) Records() ([]entity.ApprovalRecord, int64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]entity.ApprovalRecord(nil), l.records...), l.total
}

// Find returns the record with id from the page last fetched
func (l *ListState) Find(id int64) (entity.ApprovalRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.records {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

func copyParams(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
