package data

import (
	"testing"

	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/dataset/structs"
	"github.com/mrasu/dset/thelper"
)

func newKeyedTable(t *testing.T) *Table {
	t.Helper()
	schema := &structs.Schema{
		Name: "customer",
		Fields: []*structs.FieldMeta{
			{Name: "custId", FieldType: types.Number},
			{Name: "name", FieldType: types.String},
		},
		KeyFields: []string{"custId"},
	}
	table, err := NewTable(schema, NewGeneratorWithPrefix("t"))
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func loadCustomers(t *testing.T, table *Table, mode types.MergeMode, records ...map[string]interface{}) error {
	t.Helper()
	return table.Load(records, mode)
}

func TestTable_Load_Append(t *testing.T) {
	table := newKeyedTable(t)
	err := loadCustomers(t, table, types.Append,
		map[string]interface{}{"custId": 1, "name": "a"},
		map[string]interface{}{"custId": 2, "name": "b"},
	)
	thelper.AssertNoError(t, err)
	thelper.AssertInt(t, "loaded rows", 2, len(table.Rows()))
	thelper.AssertBool(t, "load registers no changes", false, table.Tracker().HasChanges())

	err = loadCustomers(t, table, types.Append, map[string]interface{}{"custId": 1, "name": "dup"})
	if _, ok := err.(*IdentityError); !ok {
		t.Errorf("expected IdentityError, got: %v", err)
	}
}

func TestTable_Load_Merge(t *testing.T) {
	table := newKeyedTable(t)
	thelper.AssertNoError(t, loadCustomers(t, table, types.Append,
		map[string]interface{}{"custId": 1, "name": "a"},
	))

	err := loadCustomers(t, table, types.Merge,
		map[string]interface{}{"custId": 1, "name": "changed"},
		map[string]interface{}{"custId": 2, "name": "b"},
	)
	thelper.AssertNoError(t, err)
	thelper.AssertInt(t, "rows after merge", 2, len(table.Rows()))
	thelper.AssertValue(t, "existing row untouched", "a", table.FindByID("1").Get("name"))
}

func TestTable_Load_Replace(t *testing.T) {
	table := newKeyedTable(t)
	thelper.AssertNoError(t, loadCustomers(t, table, types.Append,
		map[string]interface{}{"custId": 1, "name": "a"},
	))

	err := loadCustomers(t, table, types.Replace,
		map[string]interface{}{"custId": 1, "name": "changed"},
		map[string]interface{}{"custId": 2, "name": "b"},
	)
	thelper.AssertNoError(t, err)
	thelper.AssertInt(t, "rows after replace", 2, len(table.Rows()))
	thelper.AssertValue(t, "existing row overwritten", "changed", table.FindByID("1").Get("name"))
}

func TestTable_Load_Empty(t *testing.T) {
	table := newKeyedTable(t)
	thelper.AssertNoError(t, loadCustomers(t, table, types.Append,
		map[string]interface{}{"custId": 1, "name": "a"},
	))

	err := loadCustomers(t, table, types.Empty,
		map[string]interface{}{"custId": 2, "name": "b"},
	)
	thelper.AssertNoError(t, err)
	thelper.AssertInt(t, "only the new rows remain", 1, len(table.Rows()))
	if table.FindByID("1") != nil {
		t.Error("empty mode kept a pre-existing row")
	}
	thelper.AssertValue(t, "loaded row", "b", table.FindByID("2").Get("name"))
}

func TestTable_Load_UnknownField(t *testing.T) {
	table := newKeyedTable(t)
	err := loadCustomers(t, table, types.Append, map[string]interface{}{"nope": 1})
	if _, ok := err.(*SchemaError); !ok {
		t.Errorf("expected SchemaError, got: %v", err)
	}
}
