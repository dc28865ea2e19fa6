package main

import (
	"encoding/json"
	"fmt"

	"github.com/mrasu/dset/dataset"
	"github.com/mrasu/dset/dataset/data"
	"github.com/mrasu/dset/dataset/data/types"
	"github.com/mrasu/dset/dataset/structs"
	"github.com/rs/zerolog"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

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
		die(err)
	}

	customers := ds.Buffer("customer")
	orders := ds.Buffer("order")

	fmt.Println("<==========CREATE")
	c1, err := customers.Add(map[string]interface{}{"custId": 1, "name": "foo"})
	if err != nil {
		die(err)
	}
	customers.Locate(c1.ID())
	if _, err = orders.Add(map[string]interface{}{"orderId": 10, "total": 99.5}); err != nil {
		die(err)
	}
	if _, err = orders.Add(map[string]interface{}{"orderId": 11, "total": 12.0}); err != nil {
		die(err)
	}
	if err = c1.Assign(map[string]interface{}{"name": "foo bar"}); err != nil {
		die(err)
	}

	fmt.Println("<==========PENDING CHANGES")
	cs := data.NewChangeSetBuilder(ds.Buffers()...).Build()
	bs, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		die(err)
	}
	fmt.Println(string(bs))

	fmt.Println("<==========SYNCHRONIZE")
	sc := dataset.NewSyncCoordinator(ds, &loopbackTransport{}, true)
	res, err := sc.SaveChanges()
	if err != nil {
		die(err)
	}
	fmt.Printf("batch success: %t, rows: %d\n", res.Success, len(res.Outcomes))

	ds.Inspect()
}

// loopbackTransport acknowledges every request without doing I/O.
type loopbackTransport struct{}

func (tr *loopbackTransport) Send(req *dataset.Request, done func(bool, *structs.ChangeSet, error)) {
	done(true, nil, nil)
}

func die(err error) {
	fmt.Printf("error %+v\n", err)
	panic(err)
}
