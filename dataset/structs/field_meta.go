package structs

import "github.com/mrasu/dset/dataset/data/types"

type FieldMeta struct {
	Name       string          `json:"name"`
	FieldType  types.FieldType `json:"field_type"`
	MaxItems   int             `json:"max_items,omitempty"`
	Default    interface{}     `json:"default,omitempty"`
	AllowsNull bool            `json:"allows_null"`
}

// Relation is one parent-field/child-field equality pair of a relationship.
type Relation struct {
	ParentField string `json:"parent_field"`
	ChildField  string `json:"child_field"`
}

type Schema struct {
	Name      string       `json:"name"`
	Fields    []*FieldMeta `json:"fields"`
	KeyFields []string     `json:"key_fields,omitempty"`
	Parent    string       `json:"parent,omitempty"`
	Relations []*Relation  `json:"relations,omitempty"`
	Nested    bool         `json:"nested,omitempty"`
}
