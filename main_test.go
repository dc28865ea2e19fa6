package main

import (
	"os"
	"testing"

	"github.com/mrasu/dset/dataset"
	"github.com/mrasu/dset/dataset/data"
	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/dataset/structs"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	code := m.Run()
	os.Exit(code)
}

func TestSmoke(t *testing.T) {
	ds, err := dataset.New([]*structs.Schema{
		{
			Name: "customer",
			Fields: []*structs.FieldMeta{
				{Name: "custId", FieldType: types.Number},
				{Name: "name", FieldType: types.String},
			},
			KeyFields: []string{"custId"},
		},
		{
			Name:   "order",
			Parent: "customer",
			Fields: []*structs.FieldMeta{
				{Name: "orderId", FieldType: types.Number},
				{Name: "custId", FieldType: types.Number},
				{Name: "total", FieldType: types.Number},
			},
			KeyFields: []string{"orderId"},
			Relations: []*structs.Relation{{ParentField: "custId", ChildField: "custId"}},
			Nested:    true,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	customers := ds.Buffer("customer")
	orders := ds.Buffer("order")

	err = customers.Load([]map[string]interface{}{
		{"custId": 1, "name": "foo"},
		{"custId": 2, "name": "bar"},
	}, types.Append)
	if err != nil {
		t.Fatal(err)
	}

	c1 := customers.Locate("1")
	if c1 == nil {
		t.Fatal("loaded row is not locatable")
	}
	if _, err = orders.Add(map[string]interface{}{"orderId": 10, "total": 99.5}); err != nil {
		t.Fatal(err)
	}
	if err = c1.Assign(map[string]interface{}{"name": "foo bar"}); err != nil {
		t.Fatal(err)
	}
	if c2 := customers.Locate("2"); c2 == nil {
		t.Fatal("loaded row is not locatable")
	}
	if err = customers.Remove(); err != nil {
		t.Fatal(err)
	}

	sc := dataset.NewSyncCoordinator(ds, &loopbackTransport{}, true)
	res, err := sc.SaveChanges()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("synchronization failed")
	}
	if len(res.Outcomes) != 3 {
		t.Fatalf("unexpected outcome count: %d", len(res.Outcomes))
	}
	if ds.HasChanges() {
		t.Error("changes survive a successful synchronization")
	}

	rows, err := customers.GetData(&data.GetParams{Sort: []data.SortField{{Name: "name"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}
	if rows[0].Get("name") != "foo bar" {
		t.Errorf("unexpected row: %v", rows[0].Fields())
	}
}
