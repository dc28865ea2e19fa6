package data

import (
	"strconv"
	"strings"
	"time"

	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/dataset/structs"
)

// coerceValue normalizes v to the canonical in-memory representation of the
// field's declared type: string, float64, bool, time.Time or []interface{}.
func coerceValue(m *structs.FieldMeta, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch m.FieldType {
	case types.String:
		s, ok := v.(string)
		if !ok {
			return nil, NewSchemaError("not a string value for field %s: %v", m.Name, v)
		}
		return s, nil
	case types.Number:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, NewSchemaError("not a number value for field %s: %v", m.Name, v)
		}
	case types.Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, NewSchemaError("not a boolean value for field %s: %v", m.Name, v)
		}
		return b, nil
	case types.Date:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, d)
			if err != nil {
				return nil, NewSchemaError("not a date value for field %s: %v", m.Name, v)
			}
			return parsed, nil
		default:
			return nil, NewSchemaError("not a date value for field %s: %v", m.Name, v)
		}
	case types.Array:
		items, ok := v.([]interface{})
		if !ok {
			return nil, NewSchemaError("not an array value for field %s: %v", m.Name, v)
		}
		if m.MaxItems > 0 && len(items) > m.MaxItems {
			return nil, NewSchemaError("array field %s holds %d items, at most %d allowed", m.Name, len(items), m.MaxItems)
		}
		return items, nil
	default:
		return nil, NewSchemaError("unknown field type for field %s: %d", m.Name, m.FieldType)
	}
}

// formatValue renders a value for key building and filter comparison.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return ""
	}
}

// sameValue tests equality with strict comparison on coerced values.
func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	at, aOk := a.(time.Time)
	bt, bOk := b.(time.Time)
	if aOk && bOk {
		return at.Equal(bt)
	}
	return a == b
}

// compareValues orders two non-nil values of the same field. Mixed types fall
// back to their formatted representations.
func compareValues(a, b interface{}, caseSensitive bool) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			if !caseSensitive {
				av = strings.ToLower(av)
				bv = strings.ToLower(bv)
			}
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			if av < bv {
				return -1
			}
			if av > bv {
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0
			}
			if !av {
				return -1
			}
			return 1
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			if av.Before(bv) {
				return -1
			}
			if av.After(bv) {
				return 1
			}
			return 0
		}
	}
	return strings.Compare(formatValue(a), formatValue(b))
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	c := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		c[k] = v
	}
	return c
}
