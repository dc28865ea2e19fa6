package data

import (
	"fmt"
	"sort"
	"strings"
)

// Row holds one record's field values. Its id is assigned once and never
// changes; errorString is set only while a server-reported error is pending.
type Row struct {
	table  *Table
	id     string
	fields map[string]interface{}

	errorString string
	clientID    string

	// synthetic child arrays attached transiently by Nest; never tracked,
	// always removable without residue
	nested map[string]interface{}
}

func newRow(t *Table, id string, fields map[string]interface{}) *Row {
	return &Row{
		table:  t,
		id:     id,
		fields: fields,
	}
}

func (r *Row) ID() string {
	return r.id
}

func (r *Row) Get(name string) interface{} {
	if r.table != nil {
		if m, err := r.table.resolveField(name); err == nil {
			return r.fields[m.Name]
		}
	}
	return r.fields[name]
}

// Fields returns a copy of the row's values, including any transiently
// nested child arrays.
func (r *Row) Fields() map[string]interface{} {
	c := copyFields(r.fields)
	for k, v := range r.nested {
		c[k] = v
	}
	return c
}

func (r *Row) ErrorString() string {
	return r.errorString
}

func (r *Row) SetError(msg string) {
	r.errorString = msg
}

// Assign overlays values onto the row and registers the update with the
// owning buffer's change tracker.
func (r *Row) Assign(values map[string]interface{}) error {
	if r.table == nil {
		return NewRowStateError("row does not belong to a buffer: %s", r.id)
	}
	return r.table.assignRow(r, values)
}

// Remove deletes the row from its owning buffer.
func (r *Row) Remove() error {
	if r.table == nil {
		return NewRowStateError("row does not belong to a buffer: %s", r.id)
	}
	return r.table.removeRow(r)
}

func (r *Row) AttachNested(name string, rows []map[string]interface{}) {
	if r.nested == nil {
		r.nested = map[string]interface{}{}
	}
	r.nested[name] = rows
}

func (r *Row) DetachNested(name string) {
	delete(r.nested, name)
	if len(r.nested) == 0 {
		r.nested = nil
	}
}

func (r *Row) snapshot() map[string]interface{} {
	return copyFields(r.fields)
}

func (r *Row) restore(fields map[string]interface{}) {
	r.fields = copyFields(fields)
	r.errorString = ""
	r.clientID = ""
}

func (r *Row) Inspect() {
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var txts []string
	for _, k := range names {
		txts = append(txts, fmt.Sprintf("%s: %v", k, r.fields[k]))
	}
	fmt.Printf("\t\t%s\t%s\n", r.id, strings.Join(txts, "\t"))
}
