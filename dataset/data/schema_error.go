package data

import "fmt"

// SchemaError reports a structural misuse: an unknown field or table, an
// array field used as a sort key, or a declared key field missing on a row.
type SchemaError struct {
	msg string
}

func NewSchemaError(format string, args ...interface{}) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

func (e *SchemaError) Error() string {
	return e.msg
}
