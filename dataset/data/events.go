package data

const (
	EventAfterAdd    = "afterAdd"
	EventAfterUpdate = "afterUpdate"
	EventAfterDelete = "afterDelete"
	EventAfterFill   = "afterFill"
	EventAfterSync   = "afterSync"
)

type Event struct {
	Name  string
	Table string
	Row   *Row
}

// Emitter is the one subscription capability shared by every observable type.
// Owning types embed it instead of mixing observer behavior into themselves.
type Emitter struct {
	handlers map[string][]func(*Event)
}

func (e *Emitter) On(name string, fn func(*Event)) {
	if e.handlers == nil {
		e.handlers = map[string][]func(*Event){}
	}
	e.handlers[name] = append(e.handlers[name], fn)
}

func (e *Emitter) Emit(ev *Event) {
	for _, fn := range e.handlers[ev.Name] {
		fn(ev)
	}
}
