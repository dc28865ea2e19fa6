package data

import (
	"github.com/mrasu/dset/dataset/structs"
)

type Change struct {
	State string
	Row   *Row
}

type deletedRow struct {
	row      *Row
	position int
}

// Tracker records every pending create, update and delete of one Table as a
// diff against the before-image captured at the row's first mutation.
type Tracker struct {
	table *Table

	// id -> snapshot before the first mutation; nil means the id was created
	// in this edit cycle and has no prior state
	beforeImage map[string]map[string]interface{}
	order       []string

	changed map[string]*Row
	deleted []*deletedRow
	added   []string
}

func newTracker(t *Table) *Tracker {
	return &Tracker{
		table:       t,
		beforeImage: map[string]map[string]interface{}{},
		changed:     map[string]*Row{},
	}
}

func (tr *Tracker) HasChanges() bool {
	return len(tr.beforeImage) != 0
}

func (tr *Tracker) RecordCreate(id string) {
	if _, ok := tr.beforeImage[id]; ok {
		return
	}
	tr.beforeImage[id] = nil
	tr.order = append(tr.order, id)
	tr.added = append(tr.added, id)
}

// RecordUpdate captures the pre-mutation snapshot. Only the first mutation of
// an edit cycle wins the before-image; later mutations never overwrite it.
func (tr *Tracker) RecordUpdate(r *Row, before map[string]interface{}) {
	if _, ok := tr.beforeImage[r.id]; ok {
		// a pending create stays a create, a pending update keeps its image
		if !tr.isAdded(r.id) {
			tr.changed[r.id] = r
		}
		return
	}
	tr.beforeImage[r.id] = copyFields(before)
	tr.order = append(tr.order, r.id)
	tr.changed[r.id] = r
}

// RecordDelete registers the removal of r, which sat at position in the row
// array. Deleting a row created in the same edit cycle cancels the create
// instead and reports false.
func (tr *Tracker) RecordDelete(r *Row, position int) bool {
	if before, ok := tr.beforeImage[r.id]; ok && before == nil {
		tr.forget(r.id)
		return false
	}

	if _, ok := tr.beforeImage[r.id]; !ok {
		tr.beforeImage[r.id] = r.snapshot()
		tr.order = append(tr.order, r.id)
	}
	// a delete supersedes any pending update on the same row
	delete(tr.changed, r.id)
	tr.deleted = append(tr.deleted, &deletedRow{row: r, position: position})
	return true
}

func (tr *Tracker) isAdded(id string) bool {
	for _, a := range tr.added {
		if a == id {
			return true
		}
	}
	return false
}

func (tr *Tracker) isDeleted(id string) bool {
	return tr.findDeleted(id) != nil
}

func (tr *Tracker) findDeleted(id string) *deletedRow {
	for _, d := range tr.deleted {
		if d.row.id == id {
			return d
		}
	}
	return nil
}

// GetChanges returns one entry per tracked id, in first-mutation order.
func (tr *Tracker) GetChanges() []*Change {
	var cs []*Change
	for _, id := range tr.order {
		switch {
		case tr.isDeleted(id):
			cs = append(cs, &Change{State: structs.RowDeleted, Row: tr.findDeleted(id).row})
		case tr.isAdded(id):
			cs = append(cs, &Change{State: structs.RowCreated, Row: tr.table.FindByID(id)})
		default:
			cs = append(cs, &Change{State: structs.RowModified, Row: tr.changed[id]})
		}
	}
	return cs
}

func (tr *Tracker) beforeImageOf(id string) map[string]interface{} {
	return tr.beforeImage[id]
}

// AcceptChanges drops every pending record and strips transport-only state
// from the live rows. Call it only after a successful round-trip.
func (tr *Tracker) AcceptChanges() {
	for id := range tr.beforeImage {
		if r := tr.table.FindByID(id); r != nil {
			r.errorString = ""
			r.clientID = ""
		}
	}
	tr.reset()
}

// RejectChanges rolls every tracked id back to its before-image: creates are
// removed, updates restored, deletes re-inserted at their recorded position.
func (tr *Tracker) RejectChanges() {
	for _, id := range tr.order {
		tr.rejectOne(id)
	}
	tr.reset()
}

// ApplyChanges accepts or rejects each tracked id individually: ids whose
// live row carries a server-reported error are rolled back, the rest are
// accepted. Tracking is cleared either way.
func (tr *Tracker) ApplyChanges() {
	for _, id := range tr.order {
		r := tr.rowFor(id)
		if r != nil && r.errorString != "" {
			tr.rejectOne(id)
			continue
		}
		if r != nil {
			r.errorString = ""
			r.clientID = ""
		}
	}
	tr.reset()
}

func (tr *Tracker) rowFor(id string) *Row {
	if d := tr.findDeleted(id); d != nil {
		return d.row
	}
	if r, ok := tr.changed[id]; ok {
		return r
	}
	return tr.table.FindByID(id)
}

func (tr *Tracker) rejectOne(id string) {
	switch {
	case tr.isDeleted(id):
		tr.table.undoDelete(tr.findDeleted(id))
	case tr.isAdded(id):
		tr.table.undoCreate(id)
	default:
		tr.table.undoUpdate(id, tr.beforeImage[id])
	}
}

func (tr *Tracker) forget(id string) {
	delete(tr.beforeImage, id)
	delete(tr.changed, id)
	for i, o := range tr.order {
		if o == id {
			tr.order = append(tr.order[:i], tr.order[i+1:]...)
			break
		}
	}
	for i, a := range tr.added {
		if a == id {
			tr.added = append(tr.added[:i], tr.added[i+1:]...)
			break
		}
	}
}

func (tr *Tracker) reset() {
	tr.beforeImage = map[string]map[string]interface{}{}
	tr.order = nil
	tr.changed = map[string]*Row{}
	tr.deleted = nil
	tr.added = nil
}
