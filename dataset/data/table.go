package data

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mrasu/dset/dataset/structs"
)

// compactionThreshold is the fraction of null holes tolerated in the row
// array before a scan flags the buffer for compaction.
const compactionThreshold = 0.2

// Table is one logical table's buffer: the ordered row array (which may hold
// nil holes for removed rows), the id-to-position index, the change tracker
// and the relationship wiring to a parent buffer.
type Table struct {
	Emitter

	Name    string
	schema  *structs.Schema
	gen     *Generator
	rows    []*Row
	index   map[string]int
	tracker *Tracker

	parent   *Table
	children []*Table

	workingRow *Row

	sortFields    []SortField
	sortFn        comparator
	autoSort      bool
	caseSensitive bool
	linkRelations bool

	holes           int
	needsCompaction bool
}

func NewTable(schema *structs.Schema, gen *Generator) (*Table, error) {
	if schema.Name == "" {
		return nil, NewSchemaError("table has no name")
	}
	if len(schema.Fields) == 0 {
		return nil, NewSchemaError("table has no fields: %s", schema.Name)
	}
	if gen == nil {
		gen = NewGenerator()
	}

	t := &Table{
		Name:          schema.Name,
		schema:        schema,
		gen:           gen,
		rows:          []*Row{},
		index:         map[string]int{},
		linkRelations: true,
	}
	t.tracker = newTracker(t)

	for i, k := range schema.KeyFields {
		m, err := t.resolveField(k)
		if err != nil {
			return nil, err
		}
		schema.KeyFields[i] = m.Name
	}
	return t, nil
}

func (t *Table) Schema() *structs.Schema {
	return t.schema
}

func (t *Table) Tracker() *Tracker {
	return t.tracker
}

func (t *Table) Parent() *Table {
	return t.parent
}

func (t *Table) Children() []*Table {
	return t.children
}

func (t *Table) SetAutoSort(on bool) {
	t.autoSort = on
}

func (t *Table) SetCaseSensitive(on bool) {
	t.caseSensitive = on
}

// SetRelationLinking toggles both parent-value propagation on Add and
// relationship filtering of read operations.
func (t *Table) SetRelationLinking(on bool) {
	t.linkRelations = on
}

// resolveField matches name case-insensitively and returns the canonical
// descriptor.
func (t *Table) resolveField(name string) (*structs.FieldMeta, error) {
	for _, m := range t.schema.Fields {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return nil, NewSchemaError("field doesn't exist: %s.%s", t.Name, name)
}

// Add builds a row from schema defaults, relationship-derived parent values
// and the caller's values, assigns its id and registers a pending create.
func (t *Table) Add(values map[string]interface{}) (*Row, error) {
	if t.needsCompaction {
		t.compact()
	}

	fields := map[string]interface{}{}
	for _, m := range t.schema.Fields {
		if m.Default != nil {
			v, err := coerceValue(m, m.Default)
			if err != nil {
				return nil, err
			}
			fields[m.Name] = v
		}
	}

	if t.linkRelations && t.parent != nil && t.parent.workingRow != nil {
		for _, rel := range t.schema.Relations {
			fields[rel.ChildField] = t.parent.workingRow.Get(rel.ParentField)
		}
	}

	for name, v := range values {
		m, err := t.resolveField(name)
		if err != nil {
			return nil, err
		}
		cv, err := coerceValue(m, v)
		if err != nil {
			return nil, err
		}
		if cv == nil && !m.AllowsNull {
			return nil, NewSchemaError("field doesn't allow null: %s.%s", t.Name, m.Name)
		}
		fields[m.Name] = cv
	}

	id, err := t.gen.Assign(fields, t.schema.KeyFields)
	if err != nil {
		return nil, err
	}
	if _, ok := t.index[id]; ok {
		return nil, NewIdentityError(id, "row already exists: %s", id)
	}

	r := newRow(t, id, fields)
	t.insertRow(r)
	t.tracker.RecordCreate(id)
	t.Emit(&Event{Name: EventAfterAdd, Table: t.Name, Row: r})
	return r, nil
}

func (t *Table) insertRow(r *Row) {
	pos := len(t.rows)
	if t.autoSort {
		if cmp := t.activeComparator(); cmp != nil {
			pos = t.insertionPoint(r, cmp)
		}
	}
	t.insertRowAt(r, pos)
}

func (t *Table) insertRowAt(r *Row, pos int) {
	if pos >= len(t.rows) {
		t.rows = append(t.rows, r)
		t.index[r.id] = len(t.rows) - 1
		return
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[pos+1:], t.rows[pos:])
	t.rows[pos] = r
	for i := pos; i < len(t.rows); i++ {
		if t.rows[i] != nil {
			t.index[t.rows[i].id] = i
		}
	}
}

func (t *Table) activeComparator() comparator {
	if t.sortFn != nil {
		return t.sortFn
	}
	if len(t.sortFields) != 0 {
		cmp, err := t.buildComparator(t.sortFields)
		if err != nil {
			return nil
		}
		return cmp
	}
	return nil
}

// FindByID is a pure O(1) lookup; it never moves the working-row cursor.
func (t *Table) FindByID(id string) *Row {
	pos, ok := t.index[id]
	if !ok {
		return nil
	}
	return t.rows[pos]
}

// Locate is the cursor layer over FindByID: it sets the working row and
// cascades to child buffers when relationship linking is on.
func (t *Table) Locate(id string) *Row {
	r := t.FindByID(id)
	t.SetWorkingRow(r)
	return r
}

func (t *Table) WorkingRow() *Row {
	return t.workingRow
}

func (t *Table) SetWorkingRow(r *Row) {
	t.workingRow = r
	for _, c := range t.children {
		if !c.linkRelations {
			continue
		}
		if r == nil {
			c.SetWorkingRow(nil)
			continue
		}
		related := c.RelatedTo(r)
		if len(related) == 0 {
			c.SetWorkingRow(nil)
		} else {
			c.SetWorkingRow(related[0])
		}
	}
}

// ClearWorkingRows drops this buffer's cursor and every child's.
func (t *Table) ClearWorkingRows() {
	t.workingRow = nil
	for _, c := range t.children {
		c.ClearWorkingRows()
	}
}

// Rows returns every stored row unfiltered, skipping holes.
func (t *Table) Rows() []*Row {
	var rows []*Row
	for _, r := range t.rows {
		if r != nil {
			rows = append(rows, r)
		}
	}
	return rows
}

// view returns the relationship-filtered rows: all rows for a root buffer,
// the rows related to the parent's working row for a linked child. A linked
// child with no working parent row sees nothing.
func (t *Table) view() []*Row {
	if !t.linkRelations || t.parent == nil {
		return t.Rows()
	}
	if t.parent.workingRow == nil {
		return nil
	}
	return t.RelatedTo(t.parent.workingRow)
}

// RelatedTo filters this buffer's rows by equality on every relationship
// field pair against the given parent row.
func (t *Table) RelatedTo(parentRow *Row) []*Row {
	var rows []*Row
	for _, r := range t.rows {
		if r == nil {
			continue
		}
		match := true
		for _, rel := range t.schema.Relations {
			if !sameValue(parentRow.Get(rel.ParentField), r.fields[rel.ChildField]) {
				match = false
				break
			}
		}
		if match {
			rows = append(rows, r)
		}
	}
	return rows
}

// Find scans the relationship-filtered view and returns the first row the
// predicate matches.
func (t *Table) Find(pred func(*Row) bool) *Row {
	for _, r := range t.view() {
		if pred(r) {
			return r
		}
	}
	t.flagCompaction()
	return nil
}

// FindWhere is Find with a string filter expression.
func (t *Table) FindWhere(filter string) (*Row, error) {
	pred, err := t.compileFilter(filter)
	if err != nil {
		return nil, err
	}
	for _, r := range t.view() {
		ok, err := pred(r)
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
	}
	t.flagCompaction()
	return nil, nil
}

// ForEach visits the relationship-filtered view in order; returning false
// stops the scan.
func (t *Table) ForEach(visit func(*Row) bool) {
	for _, r := range t.view() {
		if !visit(r) {
			break
		}
	}
	t.flagCompaction()
}

type GetParams struct {
	Filter string
	Sort   []SortField
	Skip   int
	Top    int
}

// GetData returns the relationship-filtered view, optionally filtered,
// sorted and paginated. A requested sort never mutates the stored order.
func (t *Table) GetData(params *GetParams) ([]*Row, error) {
	rows := t.view()
	t.flagCompaction()
	if params == nil {
		return rows, nil
	}

	if params.Filter != "" {
		pred, err := t.compileFilter(params.Filter)
		if err != nil {
			return nil, err
		}
		var filtered []*Row
		for _, r := range rows {
			ok, err := pred(r)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if len(params.Sort) != 0 {
		cmp, err := t.buildComparator(params.Sort)
		if err != nil {
			return nil, err
		}
		sorted := make([]*Row, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool { return cmp(sorted[i], sorted[j]) < 0 })
		rows = sorted
	}

	if params.Skip > 0 {
		if params.Skip >= len(rows) {
			rows = nil
		} else {
			rows = rows[params.Skip:]
		}
	}
	if params.Top > 0 && params.Top < len(rows) {
		rows = rows[:params.Top]
	}
	return rows, nil
}

// Assign overlays values onto the working row.
func (t *Table) Assign(values map[string]interface{}) error {
	if t.workingRow == nil {
		return NewRowStateError("no working row in table: %s", t.Name)
	}
	return t.assignRow(t.workingRow, values)
}

func (t *Table) assignRow(r *Row, values map[string]interface{}) error {
	pos, ok := t.index[r.id]
	if !ok || t.rows[pos] != r {
		return NewRowStateError("row is not in table %s: %s", t.Name, r.id)
	}

	coerced := map[string]interface{}{}
	for name, v := range values {
		m, err := t.resolveField(name)
		if err != nil {
			return err
		}
		cv, err := coerceValue(m, v)
		if err != nil {
			return err
		}
		if cv == nil && !m.AllowsNull {
			return NewSchemaError("field doesn't allow null: %s.%s", t.Name, m.Name)
		}
		coerced[m.Name] = cv
	}

	t.tracker.RecordUpdate(r, r.snapshot())
	for name, v := range coerced {
		r.fields[name] = v
	}
	t.Emit(&Event{Name: EventAfterUpdate, Table: t.Name, Row: r})
	return nil
}

// Remove deletes the working row.
func (t *Table) Remove() error {
	if t.workingRow == nil {
		return NewRowStateError("no working row in table: %s", t.Name)
	}
	return t.removeRow(t.workingRow)
}

// removeRow nulls the row's array slot so other ids keep their positions,
// drops the index entry and registers a pending delete. Removing a row that
// is itself an unsaved create just cancels the create.
func (t *Table) removeRow(r *Row) error {
	pos, ok := t.index[r.id]
	if !ok || t.rows[pos] != r {
		return NewRowStateError("row is not in table %s: %s", t.Name, r.id)
	}

	t.tracker.RecordDelete(r, pos)
	t.rows[pos] = nil
	t.holes += 1
	delete(t.index, r.id)
	if t.workingRow == r {
		t.workingRow = nil
	}
	t.Emit(&Event{Name: EventAfterDelete, Table: t.Name, Row: r})
	return nil
}

func (t *Table) undoCreate(id string) {
	pos, ok := t.index[id]
	if !ok {
		return
	}
	t.rows[pos] = nil
	t.holes += 1
	delete(t.index, id)
}

func (t *Table) undoUpdate(id string, before map[string]interface{}) {
	r := t.FindByID(id)
	if r == nil {
		return
	}
	r.restore(before)
}

func (t *Table) undoDelete(d *deletedRow) {
	r := d.row
	r.errorString = ""
	r.clientID = ""
	if d.position < len(t.rows) && t.rows[d.position] == nil {
		t.rows[d.position] = r
		t.index[r.id] = d.position
		t.holes -= 1
		return
	}
	t.rows = append(t.rows, r)
	t.index[r.id] = len(t.rows) - 1
}

// SetSortFields replaces the auto-sort comparator with a field list; the
// buffer is re-sorted immediately when auto-sort is on.
func (t *Table) SetSortFields(fields []SortField) error {
	if _, err := t.buildComparator(fields); err != nil {
		return err
	}
	t.sortFields = fields
	t.sortFn = nil
	if t.autoSort {
		return t.Sort()
	}
	return nil
}

// SetSortFn replaces the auto-sort comparator with a custom function.
func (t *Table) SetSortFn(fn func(a, b *Row) int) error {
	t.sortFn = fn
	t.sortFields = nil
	if t.autoSort {
		return t.Sort()
	}
	return nil
}

// Sort orders the stored rows with the active comparator and rebuilds the
// index. This is the only operation that mutates the stored order.
func (t *Table) Sort() error {
	cmp := t.activeComparator()
	if cmp == nil {
		return NewSchemaError("no sort order configured for table: %s", t.Name)
	}
	t.compact()
	sort.Slice(t.rows, func(i, j int) bool { return cmp(t.rows[i], t.rows[j]) < 0 })
	t.rebuildIndex()
	return nil
}

// rebuildIndex is the authoritative repair for the id-to-position index.
func (t *Table) rebuildIndex() {
	t.index = map[string]int{}
	t.holes = 0
	for i, r := range t.rows {
		if r == nil {
			t.holes += 1
			continue
		}
		t.index[r.id] = i
	}
}

func (t *Table) flagCompaction() {
	if len(t.rows) == 0 {
		return
	}
	if float64(t.holes)/float64(len(t.rows)) > compactionThreshold {
		t.needsCompaction = true
	}
}

func (t *Table) compact() {
	if t.holes == 0 {
		t.needsCompaction = false
		return
	}
	rows := make([]*Row, 0, len(t.rows)-t.holes)
	for _, r := range t.rows {
		if r != nil {
			rows = append(rows, r)
		}
	}
	t.rows = rows
	t.rebuildIndex()
	t.needsCompaction = false
}

// reset drops every row and all pending tracking, for fill-style reloads.
func (t *Table) reset() {
	t.rows = []*Row{}
	t.index = map[string]int{}
	t.holes = 0
	t.needsCompaction = false
	t.workingRow = nil
	t.tracker = newTracker(t)
}

func (t *Table) Inspect() {
	var txts []string
	for _, m := range t.schema.Fields {
		txts = append(txts, fmt.Sprintf("%s %s", m.Name, m.FieldType))
	}
	fmt.Printf("\tTable: %s(%s)\n", t.Name, strings.Join(txts, ", "))
	for _, r := range t.rows {
		if r != nil {
			r.Inspect()
		}
	}
}
