package entity

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// DepartmentNode is one node of the department forest.
// Path is the precomputed "A / B / C" label when the source supplies it.
type DepartmentNode struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Path     string           `json:"path,omitempty"`
	Children []DepartmentNode `json:"children,omitempty"`
}

// UnmarshalJSON accepts both the plain tree shape ({id, name}) and the
// cascader-options shape ({value, label}) returned with format=options.
func (d *DepartmentNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       interface{}      `json:"id"`
		Value    interface{}      `json:"value"`
		Name     string           `json:"name"`
		Label    string           `json:"label"`
		Path     string           `json:"path"`
		Children []DepartmentNode `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	idSource := raw.Value
	if idSource == nil {
		idSource = raw.ID
	}
	id, err := cast.ToInt64E(idSource)
	if err != nil {
		return fmt.Errorf("department id %v: %w", idSource, err)
	}

	d.ID = id
	d.Name = raw.Label
	if d.Name == "" {
		d.Name = raw.Name
	}
	d.Path = raw.Path
	d.Children = raw.Children
	return nil
}
