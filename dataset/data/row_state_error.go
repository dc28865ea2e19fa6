package data

import "fmt"

// RowStateError reports an operation against a row that does not exist, such
// as assigning through an empty working-row cursor.
type RowStateError struct {
	msg string
}

func NewRowStateError(format string, args ...interface{}) *RowStateError {
	return &RowStateError{msg: fmt.Sprintf(format, args...)}
}

func (e *RowStateError) Error() string {
	return e.msg
}
