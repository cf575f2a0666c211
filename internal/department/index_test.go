package department

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

func sampleTree() []entity.DepartmentNode {
	return []entity.DepartmentNode{
		{ID: 1, Name: "总公司", Children: []entity.DepartmentNode{
			{ID: 2, Name: "研发中心", Children: []entity.DepartmentNode{
				{ID: 4, Name: "平台组"},
				{ID: 5, Name: "前端组"},
			}},
			{ID: 3, Name: "财务部"},
		}},
		{ID: 10, Name: "分公司", Path: "华东 / 分公司"},
	}
}

func TestBuildIndex_PrecomputedPaths(t *testing.T) {
	tree := []entity.DepartmentNode{
		{ID: 1, Name: "A", Path: "A", Children: []entity.DepartmentNode{
			{ID: 2, Name: "B", Path: "A / B"},
		}},
	}

	idx := BuildIndex(tree)

	assert.Equal(t, "A / B", idx.PathOf(2))
	assert.Equal(t, []int64{1, 2}, IDPathOf(tree, 2))
	assert.Equal(t, []int64{}, IDPathOf(tree, 99))
	assert.Equal(t, []int64{1, 2}, idx.IDPathOf(2))
	assert.Equal(t, []int64{}, idx.IDPathOf(99))
}

func TestBuildIndex_DerivedPathsMatchAncestorChain(t *testing.T) {
	tree := sampleTree()
	idx := BuildIndex(tree)

	var check func(nodes []entity.DepartmentNode, names []string)
	check = func(nodes []entity.DepartmentNode, names []string) {
		for _, n := range nodes {
			chain := append(append([]string{}, names...), n.Name)
			want := strings.Join(chain, " / ")
			if n.Path != "" {
				want = n.Path
			}
			assert.Equal(t, want, idx.PathOf(n.ID), "id %d", n.ID)
			check(n.Children, chain)
		}
	}
	check(tree, nil)

	assert.Equal(t, "总公司 / 研发中心 / 前端组", idx.PathOf(5))
	assert.Equal(t, "", idx.PathOf(404))
	assert.False(t, idx.Contains(404))
}

func TestBuildIndex_TraversalOrder(t *testing.T) {
	idx := BuildIndex(sampleTree())

	assert.Equal(t, []int64{1, 2, 4, 5, 3, 10}, idx.IDs())
	assert.Equal(t, 6, idx.Len())
}

func TestBuildIndex_FirstDuplicateWins(t *testing.T) {
	tree := []entity.DepartmentNode{
		{ID: 1, Name: "A", Children: []entity.DepartmentNode{{ID: 7, Name: "first"}}},
		{ID: 7, Name: "second"},
	}

	idx := BuildIndex(tree)

	assert.Equal(t, "A / first", idx.PathOf(7))
	assert.Equal(t, []int64{1, 7}, idx.IDPathOf(7))
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_NilIsEmpty(t *testing.T) {
	var idx *Index

	assert.Equal(t, "", idx.PathOf(1))
	assert.Equal(t, []int64{}, idx.IDPathOf(1))
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, []Option{}, idx.Options())
	_, ok := idx.FindByPath("A")
	assert.False(t, ok)
}

func TestIndex_IDPathOfReturnsCopy(t *testing.T) {
	idx := BuildIndex(sampleTree())

	chain := idx.IDPathOf(4)
	chain[0] = 999

	assert.Equal(t, []int64{1, 2, 4}, idx.IDPathOf(4))
}

func TestIndex_FindByPath(t *testing.T) {
	idx := BuildIndex(sampleTree())

	tests := []struct {
		path string
		id   int64
		ok   bool
	}{
		{"总公司/研发中心/平台组", 4, true},
		{"总公司 / 研发中心 / 平台组", 4, true},
		{" 总公司 /财务部 ", 3, true},
		{"华东/分公司", 10, true},
		{"分公司", 10, true},
		{"研发中心", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id, ok := idx.FindByPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestIndex_Options(t *testing.T) {
	idx := BuildIndex(sampleTree())

	opts := idx.Options()

	require.Len(t, opts, 2)
	assert.Equal(t, int64(1), opts[0].Value)
	assert.Equal(t, "总公司", opts[0].Label)
	require.Len(t, opts[0].Children, 2)
	assert.Equal(t, "总公司 / 研发中心", opts[0].Children[0].Path)
	assert.Nil(t, opts[0].Children[1].Children)
	assert.Equal(t, "华东 / 分公司", opts[1].Path)
}

func TestDepartmentNode_UnmarshalOptionsShape(t *testing.T) {
	raw := `[{"value":1,"label":"A","path":"A","children":[{"id":"2","name":"B"}]}]`

	var tree []entity.DepartmentNode
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))

	idx := BuildIndex(tree)
	assert.Equal(t, "A", idx.PathOf(1))
	assert.Equal(t, "A / B", idx.PathOf(2))
}
