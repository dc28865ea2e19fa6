package types

type FieldType int

const (
	String FieldType = iota + 1
	Number
	Boolean
	Date
	Array
)

func (ft FieldType) String() string {
	switch ft {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// MergeMode controls duplicate-key behavior of bulk row loads.
type MergeMode int

const (
	Append MergeMode = iota + 1
	Merge
	Replace
	Empty
)
