package data

import "strings"

// Link wires child under parent. Every relationship field must exist in both
// schemas; pairs are normalized to the schemas' canonical spelling.
func Link(parent, child *Table) error {
	if !strings.EqualFold(child.schema.Parent, parent.Name) {
		return NewSchemaError("table %s doesn't declare %s as parent", child.Name, parent.Name)
	}
	if len(child.schema.Relations) == 0 {
		return NewSchemaError("no relationship fields between %s and %s", parent.Name, child.Name)
	}

	for _, rel := range child.schema.Relations {
		pm, err := parent.resolveField(rel.ParentField)
		if err != nil {
			return err
		}
		cm, err := child.resolveField(rel.ChildField)
		if err != nil {
			return err
		}
		rel.ParentField = pm.Name
		rel.ChildField = cm.Name
	}

	child.parent = parent
	parent.children = append(parent.children, child)
	return nil
}
