// Package store owns the console's cached schema and department state.
// One Store serves one console session; consumers read immutable snapshots.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/department"
	"github.com/garyjia/approval-console/internal/domain"
	"github.com/garyjia/approval-console/internal/domain/entity"
)

const departmentsFlight = "departments"

// Store holds the active schema and the department tree with its index
type Store struct {
	schemas     port.SchemaProvider
	departments port.DepartmentProvider
	logger      *zap.Logger

	group singleflight.Group

	mu sync.RWMutex
	// issued is the last ticket handed out; applied the ticket of the active schema
	issued  uint64
	applied uint64
	key     string
	schema  entity.Schema
	cache   map[string]entity.Schema

	deptLoaded bool
	tree       []entity.DepartmentNode
	index      *department.Index
}

// New creates a Store backed by the given providers
func New(schemas port.SchemaProvider, departments port.DepartmentProvider, logger *zap.Logger) *Store {
	return &Store{
		schemas:     schemas,
		departments: departments,
		logger:      logger,
		cache:       make(map[string]entity.Schema),
		index:       department.BuildIndex(nil),
	}
}

// LoadSchema activates the schema registered under key.
//
// A key that loaded before is re-activated from cache without a fetch. Every
// call takes a ticket; a fetched schema is applied only when no later ticket
// has been applied yet, otherwise ErrStaleResponse is returned and the active
// schema is left alone. Failures return ErrSchemaLoad and keep the previous
// schema.
func (s *Store) LoadSchema(ctx context.Context, key string) (entity.Schema, error) {
	s.mu.Lock()
	s.issued++
	ticket := s.issued
	if cached, ok := s.cache[key]; ok {
		s.activateLocked(ticket, key, cached)
		s.mu.Unlock()
		return cloneSchema(cached), nil
	}
	s.mu.Unlock()

	v, err := s.share(ctx, "schema:"+key, func(fetchCtx context.Context) (interface{}, error) {
		fetched, err := s.schemas.FetchFormSchema(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		fetched.Key = key
		if err := fetched.Validate(); err != nil {
			return nil, err
		}
		return fetched, nil
	})
	if err != nil {
		s.logger.Warn("Schema load failed",
			zap.String("key", key),
			zap.Error(err))
		return entity.Schema{}, domain.Wrap(domain.ErrSchemaLoad, "load schema "+key, err)
	}
	fetched := v.(entity.Schema)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = fetched
	if ticket < s.applied {
		s.logger.Debug("Dropping superseded schema response",
			zap.String("key", key),
			zap.Uint64("ticket", ticket),
			zap.Uint64("applied", s.applied))
		return entity.Schema{}, domain.Wrap(domain.ErrStaleResponse, "load schema "+key, nil)
	}
	s.activateLocked(ticket, key, fetched)
	s.logger.Info("Schema loaded",
		zap.String("key", key),
		zap.Int("fields", len(fetched.Fields)))
	return cloneSchema(fetched), nil
}

func (s *Store) activateLocked(ticket uint64, key string, schema entity.Schema) {
	s.applied = ticket
	s.key = key
	s.schema = schema
}

// LoadDepartments fetches the department tree once. Concurrent callers share
// a single fetch; after a success every call returns the cached tree. A failed
// fetch caches nothing.
func (s *Store) LoadDepartments(ctx context.Context) ([]entity.DepartmentNode, error) {
	if tree, ok := s.cachedDepartments(); ok {
		return tree, nil
	}

	v, err := s.share(ctx, departmentsFlight, func(fetchCtx context.Context) (interface{}, error) {
		if tree, ok := s.cachedDepartments(); ok {
			return tree, nil
		}
		tree, err := s.departments.FetchDepartments(fetchCtx)
		if err != nil {
			return nil, err
		}
		idx := department.BuildIndex(tree)

		s.mu.Lock()
		s.tree = tree
		s.index = idx
		s.deptLoaded = true
		s.mu.Unlock()

		s.logger.Info("Departments loaded", zap.Int("count", idx.Len()))
		return tree, nil
	})
	if err != nil {
		s.logger.Warn("Department load failed", zap.Error(err))
		return nil, domain.Wrap(domain.ErrDepartmentLoad, "load departments", err)
	}
	return v.([]entity.DepartmentNode), nil
}

// share runs fetch once per key for all concurrent callers. The fetch is not
// tied to any single caller's cancellation; a caller whose ctx ends stops
// waiting while the others still get the result. The upstream client bounds
// the fetch with its own timeout.
func (s *Store) share(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *Store) cachedDepartments() ([]entity.DepartmentNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree, s.deptLoaded
}

// Schema returns a copy of the active schema
func (s *Store) Schema() entity.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSchema(s.schema)
}

// SchemaKey returns the key of the active schema, "" before the first load
func (s *Store) SchemaKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Departments returns the loaded tree, nil before the first successful load
func (s *Store) Departments() []entity.DepartmentNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// DepartmentsLoaded reports whether the tree has been loaded
func (s *Store) DepartmentsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deptLoaded
}

// Index returns the department index; empty before the first successful load
func (s *Store) Index() *department.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func cloneSchema(in entity.Schema) entity.Schema {
	out := entity.Schema{Key: in.Key}
	if in.Fields != nil {
		out.Fields = append([]entity.FieldDescriptor(nil), in.Fields...)
	}
	return out
}
