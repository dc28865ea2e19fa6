package structs

import (
	"testing"

	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/thelper"
)

func flattenSchema() *Schema {
	return &Schema{
		Name: "world",
		Fields: []*FieldMeta{
			{Name: "text", FieldType: types.String},
			{Name: "tags", FieldType: types.Array, MaxItems: 3},
		},
	}
}

func TestFlattenArrays(t *testing.T) {
	fields := map[string]interface{}{
		"text": "foo",
		"tags": []interface{}{"a", "b"},
	}

	flat := FlattenArrays(flattenSchema(), fields)

	thelper.AssertValue(t, "scalar untouched", "foo", flat["text"])
	thelper.AssertValue(t, "first item", "a", flat["tags_1"])
	thelper.AssertValue(t, "second item", "b", flat["tags_2"])
	if _, ok := flat["tags"]; ok {
		t.Error("array property survives flattening")
	}
	if _, ok := flat["tags_3"]; ok {
		t.Error("flattening invents items")
	}
}

func TestFlattenArrays_MaxItems(t *testing.T) {
	fields := map[string]interface{}{
		"tags": []interface{}{"a", "b", "c", "d"},
	}

	flat := FlattenArrays(flattenSchema(), fields)

	thelper.AssertValue(t, "last kept item", "c", flat["tags_3"])
	if _, ok := flat["tags_4"]; ok {
		t.Error("flattening exceeds the declared item limit")
	}
}

func TestUnflattenArrays_RoundTrip(t *testing.T) {
	fields := map[string]interface{}{
		"text": "foo",
		"tags": []interface{}{"a", "b"},
	}

	back := UnflattenArrays(flattenSchema(), FlattenArrays(flattenSchema(), fields))

	thelper.AssertValue(t, "scalar untouched", "foo", back["text"])
	items, ok := back["tags"].([]interface{})
	if !ok {
		t.Fatal("array property is not rebuilt")
	}
	thelper.AssertInt(t, "item count", 2, len(items))
	thelper.AssertValue(t, "order preserved", "a", items[0])
	if _, ok := back["tags_1"]; ok {
		t.Error("unflattening leaves residue")
	}
}

func TestChangeSet_IsEmpty(t *testing.T) {
	cs := NewEmptyChangeSet()
	cs.Tables["world"] = NewEmptyTableChanges()
	thelper.AssertBool(t, "no rows", true, cs.IsEmpty())

	cs.Tables["world"].Rows = append(cs.Tables["world"].Rows, &ChangeRow{RowState: RowCreated})
	thelper.AssertBool(t, "has rows", false, cs.IsEmpty())
}

func TestTableChanges_ErrorFor(t *testing.T) {
	tc := NewEmptyTableChanges()
	tc.Errors = append(tc.Errors, &RowError{ClientID: "c1", Message: "duplicate key"})

	thelper.AssertString(t, "known id", "duplicate key", tc.ErrorFor("c1"))
	thelper.AssertString(t, "unknown id", "", tc.ErrorFor("c2"))
}
