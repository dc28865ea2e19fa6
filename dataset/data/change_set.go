package data

import (
	"github.com/mrasu/dset/dataset/structs"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// internal field carrying the row id inside locally persisted snapshots; it
// never appears on the remote wire
const snapshotIDField = "_id"

// ChangeSetBuilder serializes the pending diff of a set of buffers into the
// wire change-set shape and merges the server's response back.
type ChangeSetBuilder struct {
	tables []*Table
}

func NewChangeSetBuilder(tables ...*Table) *ChangeSetBuilder {
	return &ChangeSetBuilder{tables: tables}
}

// Build emits one TableChanges per buffer. Buffers without pending changes
// still contribute an explicitly empty entry so an empty change-set is a
// well-formed structure.
func (b *ChangeSetBuilder) Build() *structs.ChangeSet {
	cs := structs.NewEmptyChangeSet()
	for _, t := range b.tables {
		cs.Tables[t.Name] = b.buildTable(t)
	}
	return cs
}

func (b *ChangeSetBuilder) buildTable(t *Table) *structs.TableChanges {
	tc := structs.NewEmptyTableChanges()
	for _, c := range t.tracker.GetChanges() {
		r := c.Row
		if r.clientID == "" {
			r.clientID = newCorrelationID()
		}

		switch c.State {
		case structs.RowCreated:
			tc.Rows = append(tc.Rows, &structs.ChangeRow{
				RowState: structs.RowCreated,
				ClientID: r.clientID,
				Fields:   r.snapshot(),
			})
		case structs.RowModified:
			tc.Rows = append(tc.Rows, &structs.ChangeRow{
				RowState: structs.RowModified,
				ClientID: r.clientID,
				Fields:   r.snapshot(),
			})
			tc.Before = append(tc.Before, &structs.ChangeRow{
				RowState: structs.RowModified,
				ClientID: r.clientID,
				ServerID: serverID(t, r),
				Fields:   copyFields(t.tracker.beforeImageOf(r.id)),
			})
		case structs.RowDeleted:
			// no after-row exists for a delete
			tc.Before = append(tc.Before, &structs.ChangeRow{
				RowState: structs.RowDeleted,
				ClientID: r.clientID,
				ServerID: serverID(t, r),
				Fields:   copyFields(t.tracker.beforeImageOf(r.id)),
			})
		}
	}
	return tc
}

// serverID is the server-side correlation carried on before-rows: the
// key-derived id when the schema declares key fields, empty otherwise.
func serverID(t *Table, r *Row) string {
	if len(t.schema.KeyFields) == 0 {
		return ""
	}
	return r.id
}

func newCorrelationID() string {
	return ulid.Make().String()
}

// ApplyResponse resolves each returned row by its correlation id, overwrites
// the live fields from the after-row and copies per-row error texts onto the
// matching local rows. A row-level error never fails the whole merge.
func (b *ChangeSetBuilder) ApplyResponse(cs *structs.ChangeSet) error {
	if cs == nil {
		return errors.New("no change-set in response")
	}

	for name, tc := range cs.Tables {
		t := b.tableByName(name)
		if t == nil {
			return NewSchemaError("table doesn't exist: %s", name)
		}

		for _, cr := range tc.Rows {
			r := t.RowByClientID(cr.ClientID)
			if r == nil {
				continue
			}
			if err := t.overwriteFromWire(r, cr.Fields); err != nil {
				return err
			}
		}
		for _, re := range tc.Errors {
			if r := t.RowByClientID(re.ClientID); r != nil {
				r.errorString = re.Message
			}
		}
	}
	return nil
}

func (b *ChangeSetBuilder) tableByName(name string) *Table {
	for _, t := range b.tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// RowByClientID searches rows with a pending round-trip, including deleted
// snapshots, for the given correlation id.
func (t *Table) RowByClientID(clientID string) *Row {
	if clientID == "" {
		return nil
	}
	for _, r := range t.rows {
		if r != nil && r.clientID == clientID {
			return r
		}
	}
	for _, d := range t.tracker.deleted {
		if d.row.clientID == clientID {
			return d.row
		}
	}
	return nil
}

// overwriteFromWire replaces live fields with server values, preserving the
// row's id.
func (t *Table) overwriteFromWire(r *Row, fields map[string]interface{}) error {
	for name, v := range fields {
		m, err := t.resolveField(name)
		if err != nil {
			return err
		}
		cv, err := coerceValue(m, v)
		if err != nil {
			return err
		}
		r.fields[m.Name] = cv
	}
	return nil
}

// Snapshot captures every row plus the pending change-set for offline
// storage. Snapshot rows and change rows carry the internal row id so the
// diff can be re-seeded on restoration.
func (b *ChangeSetBuilder) Snapshot() *structs.SnapshotData {
	changes := structs.NewEmptyChangeSet()
	sd := &structs.SnapshotData{Changes: changes}

	for _, t := range b.tables {
		st := &structs.STable{
			Name:   t.Name,
			Fields: t.schema.Fields,
		}
		for _, r := range t.Rows() {
			fields := r.snapshot()
			fields[snapshotIDField] = r.id
			st.Rows = append(st.Rows, fields)
		}
		sd.Tables = append(sd.Tables, st)

		tc := b.buildTable(t)
		for _, cr := range append(append([]*structs.ChangeRow{}, tc.Rows...), tc.Before...) {
			if r := t.RowByClientID(cr.ClientID); r != nil {
				cr.Fields[snapshotIDField] = r.id
			}
		}
		changes.Tables[t.Name] = tc
	}
	return sd
}

// RestoreRows reloads persisted snapshot rows, keeping the ids they were
// saved with so the restored change-set still resolves them.
func (t *Table) RestoreRows(records []map[string]interface{}) error {
	t.reset()
	for _, rec := range records {
		id, ok := rec[snapshotIDField].(string)
		if !ok || id == "" {
			return errors.Errorf("snapshot row has no id in table: %s", t.Name)
		}
		if _, ok := t.index[id]; ok {
			return NewIdentityError(id, "duplicate row in snapshot: %s.%s", t.Name, id)
		}
		fields, err := t.coerceWire(rec)
		if err != nil {
			return err
		}
		t.insertRow(newRow(t, id, fields))
	}
	return nil
}

// RestoreChanges re-seeds the tracker from a persisted change-set, after the
// snapshot rows have been loaded through the bulk load path.
func (t *Table) RestoreChanges(tc *structs.TableChanges) error {
	seen := map[string]bool{}

	for _, cr := range tc.Rows {
		id, ok := cr.Fields[snapshotIDField].(string)
		if !ok {
			return errors.Errorf("snapshot change row has no id: %s.%s", t.Name, cr.ClientID)
		}
		r := t.FindByID(id)
		if r == nil {
			return NewRowStateError("snapshot row is not loaded: %s.%s", t.Name, id)
		}
		seen[id] = true

		switch cr.RowState {
		case structs.RowCreated:
			t.tracker.RecordCreate(id)
		case structs.RowModified:
			before := beforeRowByClientID(tc, cr.ClientID)
			if before == nil {
				return errors.Errorf("snapshot has no before-row: %s.%s", t.Name, id)
			}
			fields, err := t.coerceWire(before.Fields)
			if err != nil {
				return err
			}
			t.tracker.RecordUpdate(r, fields)
		default:
			return errors.Errorf("invalid row state in snapshot: %s", cr.RowState)
		}
	}

	for _, cr := range tc.Before {
		if cr.RowState != structs.RowDeleted {
			continue
		}
		id, ok := cr.Fields[snapshotIDField].(string)
		if !ok || seen[id] {
			continue
		}
		fields, err := t.coerceWire(cr.Fields)
		if err != nil {
			return err
		}
		r := newRow(t, id, fields)
		t.tracker.RecordDelete(r, len(t.rows))
	}
	return nil
}

func beforeRowByClientID(tc *structs.TableChanges, clientID string) *structs.ChangeRow {
	for _, cr := range tc.Before {
		if cr.ClientID == clientID {
			return cr
		}
	}
	return nil
}

func (t *Table) coerceWire(fields map[string]interface{}) (map[string]interface{}, error) {
	res := map[string]interface{}{}
	for name, v := range fields {
		if name == snapshotIDField {
			continue
		}
		m, err := t.resolveField(name)
		if err != nil {
			return nil, err
		}
		cv, err := coerceValue(m, v)
		if err != nil {
			return nil, err
		}
		res[m.Name] = cv
	}
	return res, nil
}
