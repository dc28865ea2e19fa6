package dataset

import (
	"fmt"

	"github.com/mrasu/dset/dataset/data"
	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/dataset/structs"
)

// Dataset composes named table buffers with their parent/child relationships
// and coordinates dataset-wide change operations.
type Dataset struct {
	data.Emitter

	buffers map[string]*data.Table
	// parent-before-child
	order []string
	gen   *data.Generator
}

func New(schemas []*structs.Schema) (*Dataset, error) {
	gen := data.NewGenerator()
	ds := &Dataset{
		buffers: map[string]*data.Table{},
		gen:     gen,
	}

	for _, s := range schemas {
		if _, ok := ds.buffers[s.Name]; ok {
			return nil, data.NewSchemaError("duplicate table: %s", s.Name)
		}
		t, err := data.NewTable(s, gen)
		if err != nil {
			return nil, err
		}
		ds.buffers[s.Name] = t
	}

	for _, s := range schemas {
		if s.Parent == "" {
			continue
		}
		parent, ok := ds.buffers[s.Parent]
		if !ok {
			return nil, data.NewSchemaError("parent table doesn't exist: %s", s.Parent)
		}
		if err := data.Link(parent, ds.buffers[s.Name]); err != nil {
			return nil, err
		}
	}

	order, err := topologicalOrder(schemas)
	if err != nil {
		return nil, err
	}
	ds.order = order
	return ds, nil
}

// topologicalOrder lists tables parent before child.
func topologicalOrder(schemas []*structs.Schema) ([]string, error) {
	var order []string
	placed := map[string]bool{}
	for len(order) < len(schemas) {
		progressed := false
		for _, s := range schemas {
			if placed[s.Name] {
				continue
			}
			if s.Parent == "" || placed[s.Parent] {
				order = append(order, s.Name)
				placed[s.Name] = true
				progressed = true
			}
		}
		if !progressed {
			return nil, data.NewSchemaError("circular parent relationship between tables")
		}
	}
	return order, nil
}

func (ds *Dataset) Buffer(name string) *data.Table {
	return ds.buffers[name]
}

// Buffers returns every buffer, parent before child.
func (ds *Dataset) Buffers() []*data.Table {
	ts := make([]*data.Table, 0, len(ds.order))
	for _, name := range ds.order {
		ts = append(ts, ds.buffers[name])
	}
	return ts
}

// defaultBuffer is the delegate of dataset-wide read/mutate calls, available
// only when the dataset has exactly one table.
func (ds *Dataset) defaultBuffer() (*data.Table, error) {
	if len(ds.buffers) != 1 {
		return nil, data.NewSchemaError("dataset has %d tables, name one explicitly", len(ds.buffers))
	}
	for _, t := range ds.buffers {
		return t, nil
	}
	return nil, nil
}

func (ds *Dataset) Add(values map[string]interface{}) (*data.Row, error) {
	t, err := ds.defaultBuffer()
	if err != nil {
		return nil, err
	}
	return t.Add(values)
}

func (ds *Dataset) FindByID(id string) (*data.Row, error) {
	t, err := ds.defaultBuffer()
	if err != nil {
		return nil, err
	}
	return t.FindByID(id), nil
}

func (ds *Dataset) Find(pred func(*data.Row) bool) (*data.Row, error) {
	t, err := ds.defaultBuffer()
	if err != nil {
		return nil, err
	}
	return t.Find(pred), nil
}

func (ds *Dataset) ForEach(visit func(*data.Row) bool) error {
	t, err := ds.defaultBuffer()
	if err != nil {
		return err
	}
	t.ForEach(visit)
	return nil
}

func (ds *Dataset) GetData(params *data.GetParams) ([]*data.Row, error) {
	t, err := ds.defaultBuffer()
	if err != nil {
		return nil, err
	}
	return t.GetData(params)
}

func (ds *Dataset) Load(records []map[string]interface{}, mode types.MergeMode) error {
	t, err := ds.defaultBuffer()
	if err != nil {
		return err
	}
	return t.Load(records, mode)
}

func (ds *Dataset) HasChanges() bool {
	for _, t := range ds.buffers {
		if t.Tracker().HasChanges() {
			return true
		}
	}
	return false
}

// GetChanges returns the pending changes of every buffer, keyed by table.
func (ds *Dataset) GetChanges() map[string][]*data.Change {
	res := map[string][]*data.Change{}
	for _, name := range ds.order {
		if cs := ds.buffers[name].Tracker().GetChanges(); len(cs) != 0 {
			res[name] = cs
		}
	}
	return res
}

func (ds *Dataset) AcceptChanges() {
	for _, t := range ds.buffers {
		t.Tracker().AcceptChanges()
	}
}

func (ds *Dataset) RejectChanges() {
	for _, t := range ds.buffers {
		t.Tracker().RejectChanges()
	}
}

func (ds *Dataset) ApplyChanges() {
	for _, t := range ds.buffers {
		t.Tracker().ApplyChanges()
	}
}

// ClearWorkingRows drops every buffer's cursor.
func (ds *Dataset) ClearWorkingRows() {
	for _, t := range ds.buffers {
		t.ClearWorkingRows()
	}
}

// Nest attaches each nested child table's related rows as a synthetic array
// property on its parent rows, for consumers expecting hierarchical JSON.
// Children are walked before their parents so the copies taken for an outer
// level already carry the inner arrays.
func (ds *Dataset) Nest() {
	for i := len(ds.order) - 1; i >= 0; i-- {
		child := ds.buffers[ds.order[i]]
		if !child.Schema().Nested || child.Parent() == nil {
			continue
		}
		for _, parentRow := range child.Parent().Rows() {
			var rows []map[string]interface{}
			for _, r := range child.RelatedTo(parentRow) {
				rows = append(rows, r.Fields())
			}
			parentRow.AttachNested(child.Name, rows)
		}
	}
}

// Unnest removes every synthetic child array attached by Nest, without
// residue.
func (ds *Dataset) Unnest() {
	for _, name := range ds.order {
		child := ds.buffers[name]
		if !child.Schema().Nested || child.Parent() == nil {
			continue
		}
		for _, parentRow := range child.Parent().Rows() {
			parentRow.DetachNested(child.Name)
		}
	}
}

// Snapshot captures all rows plus the pending change-set for offline storage.
func (ds *Dataset) Snapshot() *structs.SnapshotData {
	return data.NewChangeSetBuilder(ds.Buffers()...).Snapshot()
}

// Restore reloads a snapshot: rows through the bulk load path, then the
// pending diff back into each buffer's tracker.
func (ds *Dataset) Restore(sd *structs.SnapshotData) error {
	for _, st := range sd.Tables {
		t, ok := ds.buffers[st.Name]
		if !ok {
			return data.NewSchemaError("table doesn't exist: %s", st.Name)
		}
		if err := t.RestoreRows(st.Rows); err != nil {
			return err
		}
	}
	if sd.Changes == nil {
		return nil
	}
	for name, tc := range sd.Changes.Tables {
		t, ok := ds.buffers[name]
		if !ok {
			return data.NewSchemaError("table doesn't exist: %s", name)
		}
		if err := t.RestoreChanges(tc); err != nil {
			return err
		}
	}
	return nil
}

func (ds *Dataset) Inspect() {
	fmt.Println("<==========Dataset inspection")
	for _, name := range ds.order {
		ds.buffers[name].Inspect()
	}
}
