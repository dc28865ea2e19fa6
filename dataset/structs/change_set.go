package structs

const (
	RowCreated  = "created"
	RowModified = "modified"
	RowDeleted  = "deleted"
)

// ChangeSet is the wire shape exchanged with the remote service: a
// table-name-keyed map of pending row changes.
type ChangeSet struct {
	Tables map[string]*TableChanges `json:"tables"`
}

type TableChanges struct {
	Rows   []*ChangeRow `json:"rows"`
	Before []*ChangeRow `json:"before"`
	Errors []*RowError  `json:"errors,omitempty"`
}

// ChangeRow carries transport-only tag fields next to the row data. ClientID
// is assigned by the client and echoed by the server so responses can be
// matched back without relying on server-assigned keys. ServerID is set only
// on before-rows.
type ChangeRow struct {
	RowState string                 `json:"row_state"`
	ClientID string                 `json:"client_id,omitempty"`
	ServerID string                 `json:"server_id,omitempty"`
	Fields   map[string]interface{} `json:"fields"`
}

type RowError struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

func NewEmptyChangeSet() *ChangeSet {
	return &ChangeSet{Tables: map[string]*TableChanges{}}
}

func NewEmptyTableChanges() *TableChanges {
	return &TableChanges{
		Rows:   []*ChangeRow{},
		Before: []*ChangeRow{},
	}
}

func (cs *ChangeSet) IsEmpty() bool {
	for _, tc := range cs.Tables {
		if len(tc.Rows) != 0 || len(tc.Before) != 0 {
			return false
		}
	}
	return true
}

func (tc *TableChanges) ErrorFor(clientID string) string {
	for _, e := range tc.Errors {
		if e.ClientID == clientID {
			return e.Message
		}
	}
	return ""
}
