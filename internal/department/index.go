// Package department flattens the department forest into id lookups used by
// table rendering, form prefill and spreadsheet import.
package department

import (
	"strings"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// PathSeparator joins ancestor names into a display path
const PathSeparator = " / "

// Index is the read-only lookup derived from one loaded tree.
// It is rebuilt wholesale on every load and never patched.
type Index struct {
	paths   map[int64]string
	idPaths map[int64][]int64
	byPath  map[string]int64
	order   []int64
	tree    []entity.DepartmentNode
}

// BuildIndex walks tree depth-first, parent before children, in source order.
// A node's precomputed Path wins over the derived ancestor chain. When an id
// repeats, the first occurrence is kept.
func BuildIndex(tree []entity.DepartmentNode) *Index {
	idx := &Index{
		paths:   make(map[int64]string),
		idPaths: make(map[int64][]int64),
		byPath:  make(map[string]int64),
		tree:    tree,
	}
	idx.walk(tree, nil, nil)
	return idx
}

func (idx *Index) walk(nodes []entity.DepartmentNode, names []string, ids []int64) {
	for _, node := range nodes {
		chainNames := append(names[:len(names):len(names)], node.Name)
		chainIDs := append(ids[:len(ids):len(ids)], node.ID)

		if _, dup := idx.paths[node.ID]; !dup {
			path := node.Path
			if path == "" {
				path = strings.Join(chainNames, PathSeparator)
			}
			idx.paths[node.ID] = path
			idx.idPaths[node.ID] = chainIDs
			idx.order = append(idx.order, node.ID)

			idx.register(strings.Join(chainNames, PathSeparator), node.ID)
			if node.Path != "" {
				idx.register(node.Path, node.ID)
			}
		}

		idx.walk(node.Children, chainNames, chainIDs)
	}
}

func (idx *Index) register(path string, id int64) {
	key := NormalizePath(path)
	if _, taken := idx.byPath[key]; !taken {
		idx.byPath[key] = id
	}
}

// PathOf returns the display path of id, "" when id is not in the tree
func (idx *Index) PathOf(id int64) string {
	if idx == nil {
		return ""
	}
	return idx.paths[id]
}

// IDPathOf returns the root-to-node id chain of id, empty when absent
func (idx *Index) IDPathOf(id int64) []int64 {
	if idx == nil {
		return []int64{}
	}
	chain, ok := idx.idPaths[id]
	if !ok {
		return []int64{}
	}
	return append([]int64(nil), chain...)
}

// Contains reports whether id is in the tree
func (idx *Index) Contains(id int64) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.paths[id]
	return ok
}

// Len returns the number of distinct departments
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.order)
}

// IDs returns every department id in traversal order
func (idx *Index) IDs() []int64 {
	if idx == nil {
		return nil
	}
	return append([]int64(nil), idx.order...)
}

// FindByPath resolves a typed path such as "A/B/C" or "A / B / C" to an id.
// A single segment matches a root node only.
func (idx *Index) FindByPath(path string) (int64, bool) {
	if idx == nil {
		return 0, false
	}
	id, ok := idx.byPath[NormalizePath(path)]
	return id, ok
}

// Tree returns the source tree the index was built from
func (idx *Index) Tree() []entity.DepartmentNode {
	if idx == nil {
		return nil
	}
	return idx.tree
}

// NormalizePath trims each "/" separated segment and rejoins with PathSeparator
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, PathSeparator)
}

// IDPathOf searches tree depth-first for id and returns the root-to-node
// id chain, or an empty slice when id is absent.
func IDPathOf(tree []entity.DepartmentNode, id int64) []int64 {
	if chain, ok := findChain(tree, id, nil); ok {
		return chain
	}
	return []int64{}
}

func findChain(nodes []entity.DepartmentNode, id int64, prefix []int64) ([]int64, bool) {
	for _, node := range nodes {
		chain := append(prefix[:len(prefix):len(prefix)], node.ID)
		if node.ID == id {
			return chain, true
		}
		if found, ok := findChain(node.Children, id, chain); ok {
			return found, true
		}
	}
	return nil, false
}
