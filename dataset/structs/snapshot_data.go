package structs

// SnapshotData is the local-persistence shape: every row of every table plus
// the pending change-set, so an offline store can restore both data and diff.
type SnapshotData struct {
	Tables  []*STable  `json:"tables"`
	Changes *ChangeSet `json:"changes"`
}

type STable struct {
	Name   string                   `json:"name"`
	Fields []*FieldMeta             `json:"fields"`
	Rows   []map[string]interface{} `json:"rows"`
}
