package department

import "github.com/garyjia/approval-console/internal/domain/entity"

// Option is one cascader option node
type Option struct {
	Value    int64    `json:"value"`
	Label    string   `json:"label"`
	Path     string   `json:"path,omitempty"`
	Children []Option `json:"children,omitempty"`
}

// Options converts the indexed tree into cascader options. Every option
// carries its resolved path, derived when the source omitted it.
func (idx *Index) Options() []Option {
	if idx == nil {
		return []Option{}
	}
	return idx.toOptions(idx.tree)
}

func (idx *Index) toOptions(nodes []entity.DepartmentNode) []Option {
	out := make([]Option, 0, len(nodes))
	for _, node := range nodes {
		opt := Option{
			Value: node.ID,
			Label: node.Name,
			Path:  idx.PathOf(node.ID),
		}
		if len(node.Children) > 0 {
			opt.Children = idx.toOptions(node.Children)
		}
		out = append(out, opt)
	}
	return out
}
