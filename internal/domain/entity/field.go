package entity

import "fmt"

// ComponentKind is the widget kind a field descriptor asks for
type ComponentKind string

const (
	ComponentInput            ComponentKind = "Input"
	ComponentTextarea         ComponentKind = "Textarea"
	ComponentDepartmentSelect ComponentKind = "DepartmentSelect"
	ComponentCascader         ComponentKind = "Cascader"
	ComponentDatePicker       ComponentKind = "DatePicker"
	ComponentDateTimePicker   ComponentKind = "DateTimePicker"
	ComponentUnknown          ComponentKind = ""
)

// ParseComponentKind maps a raw component name onto the closed set.
// Anything unrecognized becomes ComponentUnknown.
func ParseComponentKind(s string) ComponentKind {
	c := ComponentKind(s)
	if !c.IsKnown() {
		return ComponentUnknown
	}
	return c
}

// Kind is the normalized form of ComponentKind. DepartmentSelect and Cascader
// collapse into KindDepartment; anything outside the closed set is KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindTextarea
	KindDepartment
	KindDate
	KindDateTime
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindText:       "text",
	KindTextarea:   "textarea",
	KindDepartment: "department",
	KindDate:       "date",
	KindDateTime:   "datetime",
}

// String returns the string representation of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsSelection reports whether the kind is picked rather than typed
func (k Kind) IsSelection() bool {
	return k == KindDepartment || k == KindDate || k == KindDateTime
}

// Kind normalizes the component into the closed kind set
func (c ComponentKind) Kind() Kind {
	switch c {
	case ComponentInput:
		return KindText
	case ComponentTextarea:
		return KindTextarea
	case ComponentDepartmentSelect, ComponentCascader:
		return KindDepartment
	case ComponentDatePicker:
		return KindDate
	case ComponentDateTimePicker:
		return KindDateTime
	default:
		return KindUnknown
	}
}

// IsKnown reports whether the component belongs to the closed set
func (c ComponentKind) IsKnown() bool {
	return c.Kind() != KindUnknown
}

// Validator holds the declarative validation settings of a field
type Validator struct {
	Required bool   `json:"required,omitempty"`
	MaxCount int    `json:"maxCount,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
	Message  string `json:"message,omitempty"`
}

// FieldDescriptor describes one dynamic form/column/filter field
type FieldDescriptor struct {
	Field     string                 `json:"field"`
	Name      string                 `json:"name"`
	Component ComponentKind          `json:"component"`
	Validator *Validator             `json:"validator,omitempty"`
	Props     map[string]interface{} `json:"props,omitempty"`
}

// Kind is shorthand for Component.Kind()
func (f FieldDescriptor) Kind() Kind {
	return f.Component.Kind()
}

// IsRequired reports whether the validator marks the field as required
func (f FieldDescriptor) IsRequired() bool {
	return f.Validator != nil && f.Validator.Required
}

// MaxCount returns the max length limit, 0 when unlimited
func (f FieldDescriptor) MaxCount() int {
	if f.Validator == nil || f.Validator.MaxCount < 0 {
		return 0
	}
	return f.Validator.MaxCount
}

// Schema is the ordered field list loaded for one schema key
type Schema struct {
	Key    string            `json:"key"`
	Fields []FieldDescriptor `json:"fields"`
}

// Validate checks that field keys are present and unique
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f.Field == "" {
			return fmt.Errorf("schema %q: field #%d has empty key", s.Key, i)
		}
		if _, dup := seen[f.Field]; dup {
			return fmt.Errorf("schema %q: duplicate field %q", s.Key, f.Field)
		}
		seen[f.Field] = struct{}{}
	}
	return nil
}

// Lookup returns the descriptor registered under field
func (s Schema) Lookup(field string) (FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.Field == field {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
