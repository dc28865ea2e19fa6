package structs

import (
	"fmt"

	"github.com/mrasu/dset/dataset/data/types"
)

// FlattenArrays converts every Array-typed field of fields into individually
// addressable "name_1".."name_n" properties, the shape the grid-binding
// consumer expects. The original array property is removed.
func FlattenArrays(schema *Schema, fields map[string]interface{}) map[string]interface{} {
	res := map[string]interface{}{}
	for k, v := range fields {
		res[k] = v
	}

	for _, m := range schema.Fields {
		if m.FieldType != types.Array {
			continue
		}
		v, ok := res[m.Name]
		if !ok {
			continue
		}
		items, ok := v.([]interface{})
		if !ok {
			continue
		}
		delete(res, m.Name)

		max := len(items)
		if m.MaxItems > 0 && m.MaxItems < max {
			max = m.MaxItems
		}
		for i := 0; i < max; i++ {
			res[fmt.Sprintf("%s_%d", m.Name, i+1)] = items[i]
		}
	}
	return res
}

// UnflattenArrays is the inverse of FlattenArrays: "name_1".."name_n"
// properties are collected back into a single array value without residue.
func UnflattenArrays(schema *Schema, fields map[string]interface{}) map[string]interface{} {
	res := map[string]interface{}{}
	for k, v := range fields {
		res[k] = v
	}

	for _, m := range schema.Fields {
		if m.FieldType != types.Array {
			continue
		}

		var items []interface{}
		for i := 1; ; i++ {
			k := fmt.Sprintf("%s_%d", m.Name, i)
			v, ok := res[k]
			if !ok {
				break
			}
			items = append(items, v)
			delete(res, k)
		}
		if items != nil {
			res[m.Name] = items
		}
	}
	return res
}
