package data

import (
	"github.com/mrasu/dset/dataset/data/types"
)

type SortField struct {
	Name          string
	Descending    bool
	CaseSensitive bool
}

type comparator func(a, b *Row) int

// buildComparator resolves the requested fields against the schema and
// returns a left-to-right multi-field comparator. Missing values sort last
// regardless of direction; ties fall through to the next field.
func (t *Table) buildComparator(fields []SortField) (comparator, error) {
	if len(fields) == 0 {
		return nil, NewSchemaError("no sort fields given for table %s", t.Name)
	}

	resolved := make([]SortField, 0, len(fields))
	for _, f := range fields {
		m, err := t.resolveField(f.Name)
		if err != nil {
			return nil, err
		}
		if m.FieldType == types.Array {
			return nil, NewSchemaError("array field cannot be a sort key: %s", m.Name)
		}
		f.Name = m.Name
		resolved = append(resolved, f)
	}

	return func(a, b *Row) int {
		for _, f := range resolved {
			av := a.fields[f.Name]
			bv := b.fields[f.Name]
			if av == nil && bv == nil {
				continue
			}
			if av == nil {
				return 1
			}
			if bv == nil {
				return -1
			}

			c := compareValues(av, bv, f.CaseSensitive || t.caseSensitive)
			if c == 0 {
				continue
			}
			if f.Descending {
				return -c
			}
			return c
		}
		return 0
	}, nil
}

// insertionPoint scans for the first stored row that sorts after r, skipping
// holes, so an auto-sorted insert keeps the stored order intact.
func (t *Table) insertionPoint(r *Row, cmp comparator) int {
	for i, existing := range t.rows {
		if existing == nil {
			continue
		}
		if cmp(r, existing) < 0 {
			return i
		}
	}
	return len(t.rows)
}
