package dataset

import (
	"sync"

	"github.com/mrasu/dset/dataset/data"
	"github.com/mrasu/dset/dataset/structs"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Operation int

const (
	OpCreate Operation = iota + 1
	OpUpdate
	OpDelete
	OpSubmit
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpSubmit:
		return "submit"
	default:
		return "unknown"
	}
}

// Request is one transport request: a single row-level operation, or one
// combined submit payload covering every pending change.
type Request struct {
	Table     string
	Operation Operation
	Row       *structs.ChangeRow
	Before    *structs.ChangeRow
	Submit    *structs.ChangeSet
}

// Transport is the out-of-scope collaborator performing the actual I/O. Send
// must report exactly one completion per request; the callback may fire from
// any goroutine.
type Transport interface {
	Send(req *Request, done func(ok bool, body *structs.ChangeSet, err error))
}

type RowOutcome struct {
	Table    string
	ClientID string
	Success  bool
	Error    string
}

// BatchResult aggregates one synchronization pass; Success holds only when
// every request succeeded.
type BatchResult struct {
	Success  bool
	Outcomes []*RowOutcome
}

// SyncCoordinator sequences row-level requests across a dataset's buffers:
// parent before child for creates and updates, child before parent for
// deletes.
type SyncCoordinator struct {
	ds        *Dataset
	transport Transport
	autoApply bool
}

func NewSyncCoordinator(ds *Dataset, tr Transport, autoApply bool) *SyncCoordinator {
	return &SyncCoordinator{
		ds:        ds,
		transport: tr,
		autoApply: autoApply,
	}
}

type pendingRequest struct {
	req *Request
	row *data.Row
}

// SaveChanges synchronizes every pending change as row-level requests,
// sequencing deletes, then creates, then updates. Deletes walk the buffers
// child before parent; creates and updates walk parent before child.
func (sc *SyncCoordinator) SaveChanges() (*BatchResult, error) {
	sc.ds.ClearWorkingRows()
	defer sc.ds.ClearWorkingRows()

	builder := data.NewChangeSetBuilder(sc.ds.Buffers()...)
	cs := builder.Build()

	var reqs []*pendingRequest
	for _, op := range []Operation{OpDelete, OpCreate, OpUpdate} {
		rs, err := sc.collectRequests(op, cs)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, rs...)
	}

	res := sc.run(builder, reqs)
	sc.finish(res)
	return res, nil
}

// Synchronize issues one request per pending row of the given operation, or
// one combined request for OpSubmit, waits for every completion and
// aggregates the outcomes. Working rows are cleared around the batch so no
// stale cursor survives identity changes.
func (sc *SyncCoordinator) Synchronize(op Operation) (*BatchResult, error) {
	sc.ds.ClearWorkingRows()
	defer sc.ds.ClearWorkingRows()

	builder := data.NewChangeSetBuilder(sc.ds.Buffers()...)
	cs := builder.Build()

	if op == OpSubmit {
		return sc.submit(builder, cs)
	}

	reqs, err := sc.collectRequests(op, cs)
	if err != nil {
		return nil, err
	}

	res := sc.run(builder, reqs)
	sc.finish(res)
	return res, nil
}

// run issues the requests in order without waiting for each other and blocks
// until every completion callback has fired.
func (sc *SyncCoordinator) run(builder *data.ChangeSetBuilder, reqs []*pendingRequest) *BatchResult {
	res := &BatchResult{Success: true}
	var mu sync.Mutex
	var g errgroup.Group

	for _, pr := range reqs {
		pr := pr
		done := make(chan *RowOutcome, 1)
		sc.transport.Send(pr.req, func(ok bool, body *structs.ChangeSet, err error) {
			done <- sc.completeRow(&mu, builder, pr, ok, body, err)
		})
		g.Go(func() error {
			o := <-done

			mu.Lock()
			res.Outcomes = append(res.Outcomes, o)
			if !o.Success {
				res.Success = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// collectRequests walks the buffers top-down for creates and updates and
// bottom-up for deletes, keeping each buffer's original insertion order.
func (sc *SyncCoordinator) collectRequests(op Operation, cs *structs.ChangeSet) ([]*pendingRequest, error) {
	tables := sc.ds.Buffers()
	if op == OpDelete {
		reversed := make([]*data.Table, len(tables))
		for i, t := range tables {
			reversed[len(tables)-1-i] = t
		}
		tables = reversed
	}

	var reqs []*pendingRequest
	for _, t := range tables {
		tc := cs.Tables[t.Name]
		if tc == nil {
			continue
		}

		switch op {
		case OpCreate:
			for _, cr := range tc.Rows {
				if cr.RowState != structs.RowCreated {
					continue
				}
				reqs = append(reqs, &pendingRequest{
					req: &Request{Table: t.Name, Operation: op, Row: cr},
					row: t.RowByClientID(cr.ClientID),
				})
			}
		case OpUpdate:
			for _, cr := range tc.Rows {
				if cr.RowState != structs.RowModified {
					continue
				}
				reqs = append(reqs, &pendingRequest{
					req: &Request{
						Table:     t.Name,
						Operation: op,
						Row:       cr,
						Before:    beforeFor(tc, cr.ClientID),
					},
					row: t.RowByClientID(cr.ClientID),
				})
			}
		case OpDelete:
			for _, cr := range tc.Before {
				if cr.RowState != structs.RowDeleted {
					continue
				}
				reqs = append(reqs, &pendingRequest{
					req: &Request{Table: t.Name, Operation: op, Before: cr},
					row: t.RowByClientID(cr.ClientID),
				})
			}
		default:
			return nil, data.NewSchemaError("unknown synchronize operation: %d", op)
		}
	}
	return reqs, nil
}

func beforeFor(tc *structs.TableChanges, clientID string) *structs.ChangeRow {
	for _, cr := range tc.Before {
		if cr.ClientID == clientID {
			return cr
		}
	}
	return nil
}

func (sc *SyncCoordinator) completeRow(mu *sync.Mutex, builder *data.ChangeSetBuilder, pr *pendingRequest, ok bool, body *structs.ChangeSet, err error) *RowOutcome {
	o := &RowOutcome{Table: pr.req.Table, Success: ok}
	if pr.req.Row != nil {
		o.ClientID = pr.req.Row.ClientID
	} else if pr.req.Before != nil {
		o.ClientID = pr.req.Before.ClientID
	}

	mu.Lock()
	defer mu.Unlock()

	if !ok {
		msg := "request failed"
		if err != nil {
			msg = err.Error()
		}
		o.Error = msg
		if pr.row != nil {
			pr.row.SetError(msg)
		}
		log.Debug().Str("table", o.Table).Str("client_id", o.ClientID).Msg("row synchronization failed")
		return o
	}

	if body != nil {
		if mergeErr := builder.ApplyResponse(body); mergeErr != nil {
			log.Error().Stack().Err(mergeErr).Str("table", o.Table).Msg("Invalid synchronization response")
			o.Success = false
			o.Error = mergeErr.Error()
			return o
		}
	}
	if pr.row != nil && pr.row.ErrorString() != "" {
		o.Success = false
		o.Error = pr.row.ErrorString()
	}
	return o
}

// submit transmits the whole change-set as one request. An empty change-set
// is still sent as a well-formed structure so completion fires consistently.
func (sc *SyncCoordinator) submit(builder *data.ChangeSetBuilder, cs *structs.ChangeSet) (*BatchResult, error) {
	req := &Request{Operation: OpSubmit, Submit: cs}
	done := make(chan *BatchResult, 1)

	sc.transport.Send(req, func(ok bool, body *structs.ChangeSet, err error) {
		res := &BatchResult{Success: ok}
		if !ok {
			msg := "request failed"
			if err != nil {
				msg = err.Error()
			}
			sc.failAllPending(cs, msg, res)
			done <- res
			return
		}

		if body != nil {
			if mergeErr := builder.ApplyResponse(body); mergeErr != nil {
				log.Error().Stack().Err(mergeErr).Msg("Invalid submit response")
				res.Success = false
				done <- res
				return
			}
		}
		sc.collectSubmitOutcomes(cs, res)
		done <- res
	})
	res := <-done

	sc.finish(res)
	return res, nil
}

// failAllPending marks every pending row of the change-set failed with the
// transport error.
func (sc *SyncCoordinator) failAllPending(cs *structs.ChangeSet, msg string, res *BatchResult) {
	for name, tc := range cs.Tables {
		t := sc.ds.Buffer(name)
		for _, cr := range allChangeRows(tc) {
			if r := t.RowByClientID(cr.ClientID); r != nil {
				r.SetError(msg)
			}
			res.Outcomes = append(res.Outcomes, &RowOutcome{
				Table:    name,
				ClientID: cr.ClientID,
				Error:    msg,
			})
		}
	}
}

func (sc *SyncCoordinator) collectSubmitOutcomes(cs *structs.ChangeSet, res *BatchResult) {
	for name, tc := range cs.Tables {
		t := sc.ds.Buffer(name)
		for _, cr := range allChangeRows(tc) {
			o := &RowOutcome{Table: name, ClientID: cr.ClientID, Success: true}
			if r := t.RowByClientID(cr.ClientID); r != nil && r.ErrorString() != "" {
				o.Success = false
				o.Error = r.ErrorString()
				res.Success = false
			}
			res.Outcomes = append(res.Outcomes, o)
		}
	}
}

// allChangeRows lists one ChangeRow per pending row: after-rows plus
// delete-only before-rows.
func allChangeRows(tc *structs.TableChanges) []*structs.ChangeRow {
	rows := append([]*structs.ChangeRow{}, tc.Rows...)
	for _, cr := range tc.Before {
		if cr.RowState == structs.RowDeleted {
			rows = append(rows, cr)
		}
	}
	return rows
}

func (sc *SyncCoordinator) finish(res *BatchResult) {
	if sc.autoApply {
		sc.ds.ApplyChanges()
	}
	sc.ds.Emit(&data.Event{Name: data.EventAfterSync})
	log.Debug().Bool("success", res.Success).Int("rows", len(res.Outcomes)).Msg("synchronization finished")
}
