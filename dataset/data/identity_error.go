package data

import "fmt"

// IdentityError reports a duplicate row id, such as a key collision during a
// bulk load in Append mode.
type IdentityError struct {
	ID  string
	msg string
}

func NewIdentityError(id, format string, args ...interface{}) *IdentityError {
	return &IdentityError{ID: id, msg: fmt.Sprintf(format, args...)}
}

func (e *IdentityError) Error() string {
	return e.msg
}
