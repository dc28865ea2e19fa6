package data

import (
	"github.com/mrasu/dset/dataset/data/types"
)

// Load bulk-loads records into the buffer without registering changes; this
// is the fill path for server reads and snapshot restoration. Duplicate
// detection uses the declared key fields when the schema has them, the
// generated id otherwise.
func (t *Table) Load(records []map[string]interface{}, mode types.MergeMode) error {
	if t.needsCompaction {
		t.compact()
	}
	if mode == types.Empty {
		t.reset()
	}

	for _, rec := range records {
		fields := map[string]interface{}{}
		for name, v := range rec {
			m, err := t.resolveField(name)
			if err != nil {
				return err
			}
			cv, err := coerceValue(m, v)
			if err != nil {
				return err
			}
			fields[m.Name] = cv
		}

		id, err := t.gen.Assign(fields, t.schema.KeyFields)
		if err != nil {
			return err
		}

		if pos, ok := t.index[id]; ok {
			switch mode {
			case types.Append, types.Empty:
				return NewIdentityError(id, "duplicate key on load: %s.%s", t.Name, id)
			case types.Merge:
				continue
			case types.Replace:
				existing := t.rows[pos]
				for name, v := range fields {
					existing.fields[name] = v
				}
				continue
			default:
				return NewSchemaError("unknown merge mode: %d", mode)
			}
		}

		t.insertRow(newRow(t, id, fields))
	}

	t.Emit(&Event{Name: EventAfterFill, Table: t.Name})
	return nil
}
