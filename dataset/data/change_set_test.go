package data

import (
	"testing"

	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/dataset/structs"
	"github.com/mrasu/dset/thelper"
)

func TestChangeSetBuilder_Build_Created(t *testing.T) {
	table := newTestTable(t)
	r := addTestRow(t, table, 1, "a")

	cs := NewChangeSetBuilder(table).Build()
	tc := cs.Tables[table.Name]

	thelper.AssertInt(t, "after-rows", 1, len(tc.Rows))
	thelper.AssertInt(t, "before-rows", 0, len(tc.Before))
	cr := tc.Rows[0]
	thelper.AssertString(t, "state", structs.RowCreated, cr.RowState)
	thelper.AssertValue(t, "after fields", "a", cr.Fields["text"])
	if cr.ClientID == "" {
		t.Error("created row carries no correlation id")
	}
	thelper.AssertString(t, "client id sticks to the row", cr.ClientID, r.clientID)
}

func TestChangeSetBuilder_Build_Modified(t *testing.T) {
	table := newTestTable(t)
	r := addTestRow(t, table, 1, "a")
	table.Tracker().AcceptChanges()
	thelper.AssertNoError(t, r.Assign(map[string]interface{}{"text": "b"}))

	cs := NewChangeSetBuilder(table).Build()
	tc := cs.Tables[table.Name]

	thelper.AssertInt(t, "after-rows", 1, len(tc.Rows))
	thelper.AssertInt(t, "before-rows", 1, len(tc.Before))
	thelper.AssertString(t, "after state", structs.RowModified, tc.Rows[0].RowState)
	thelper.AssertValue(t, "after value", "b", tc.Rows[0].Fields["text"])
	thelper.AssertValue(t, "before value", "a", tc.Before[0].Fields["text"])
	thelper.AssertString(t, "correlated pair", tc.Rows[0].ClientID, tc.Before[0].ClientID)
}

func TestChangeSetBuilder_Build_Deleted(t *testing.T) {
	table := newKeyedTable(t)
	thelper.AssertNoError(t, loadCustomers(t, table, types.Append,
		map[string]interface{}{"custId": 1, "name": "a"},
	))
	thelper.AssertNoError(t, table.FindByID("1").Remove())

	cs := NewChangeSetBuilder(table).Build()
	tc := cs.Tables[table.Name]

	thelper.AssertInt(t, "no after-row for a delete", 0, len(tc.Rows))
	thelper.AssertInt(t, "before-rows", 1, len(tc.Before))
	thelper.AssertString(t, "state", structs.RowDeleted, tc.Before[0].RowState)
	thelper.AssertValue(t, "before fields", "a", tc.Before[0].Fields["name"])
	thelper.AssertString(t, "server id from declared key", "1", tc.Before[0].ServerID)
}

func TestChangeSetBuilder_Build_Empty(t *testing.T) {
	table := newTestTable(t)

	cs := NewChangeSetBuilder(table).Build()

	thelper.AssertBool(t, "empty set reports empty", true, cs.IsEmpty())
	tc := cs.Tables[table.Name]
	if tc == nil {
		t.Fatal("empty buffer contributes no table entry")
	}
	thelper.AssertInt(t, "no rows", 0, len(tc.Rows))
	thelper.AssertInt(t, "no before-rows", 0, len(tc.Before))
}

func TestChangeSetBuilder_ApplyResponse(t *testing.T) {
	table := newTestTable(t)
	ok := addTestRow(t, table, 1, "a")
	failed := addTestRow(t, table, 2, "b")
	b := NewChangeSetBuilder(table)
	b.Build()

	resp := structs.NewEmptyChangeSet()
	tc := structs.NewEmptyTableChanges()
	tc.Rows = append(tc.Rows, &structs.ChangeRow{
		RowState: structs.RowCreated,
		ClientID: ok.clientID,
		Fields:   map[string]interface{}{"num": float64(100)},
	})
	tc.Errors = append(tc.Errors, &structs.RowError{ClientID: failed.clientID, Message: "duplicate key"})
	resp.Tables[table.Name] = tc

	thelper.AssertNoError(t, b.ApplyResponse(resp))
	thelper.AssertValue(t, "server value merged", float64(100), ok.Get("num"))
	thelper.AssertValue(t, "untouched field kept", "a", ok.Get("text"))
	thelper.AssertString(t, "error text attached", "duplicate key", failed.ErrorString())
}

func TestChangeSetBuilder_ApplyResponse_UnknownClientID(t *testing.T) {
	table := newTestTable(t)
	addTestRow(t, table, 1, "a")
	b := NewChangeSetBuilder(table)
	b.Build()

	resp := structs.NewEmptyChangeSet()
	tc := structs.NewEmptyTableChanges()
	tc.Rows = append(tc.Rows, &structs.ChangeRow{
		RowState: structs.RowCreated,
		ClientID: "not-a-known-id",
		Fields:   map[string]interface{}{"num": float64(100)},
	})
	resp.Tables[table.Name] = tc

	thelper.AssertNoError(t, b.ApplyResponse(resp))
}

func TestChangeSetBuilder_SnapshotRestore(t *testing.T) {
	table := newTestTable(t)
	kept := addTestRow(t, table, 1, "kept")
	doomed := addTestRow(t, table, 3, "doomed")
	table.Tracker().AcceptChanges()

	addTestRow(t, table, 2, "created")
	thelper.AssertNoError(t, kept.Assign(map[string]interface{}{"text": "modified"}))
	thelper.AssertNoError(t, doomed.Remove())

	sd := NewChangeSetBuilder(table).Snapshot()

	restoredTable := newTestTable(t)
	thelper.AssertNoError(t, restoredTable.RestoreRows(sd.Tables[0].Rows))
	thelper.AssertNoError(t, restoredTable.RestoreChanges(sd.Changes.Tables[table.Name]))

	thelper.AssertInt(t, "live rows restored", 2, len(restoredTable.Rows()))
	if restoredTable.FindByID(kept.ID()) == nil {
		t.Error("restored table lost a persisted id")
	}

	cs := NewChangeSetBuilder(restoredTable).Build()
	tc := cs.Tables[restoredTable.Name]
	thelper.AssertInt(t, "after-rows restored", 2, len(tc.Rows))
	thelper.AssertInt(t, "before-rows restored", 2, len(tc.Before))

	states := map[string]int{}
	for _, cr := range tc.Rows {
		states[cr.RowState] += 1
	}
	for _, cr := range tc.Before {
		states[cr.RowState] += 1
	}
	thelper.AssertInt(t, "created", 1, states[structs.RowCreated])
	thelper.AssertInt(t, "modified after+before", 2, states[structs.RowModified])
	thelper.AssertInt(t, "deleted", 1, states[structs.RowDeleted])
}
