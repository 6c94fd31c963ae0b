package table

import "errors"

// ErrMalformedTable matches every MalformedTableError via errors.Is.
var ErrMalformedTable = errors.New("malformed table")

// MalformedTableError reports a table without the structure a header-based
// consumer needs.
type MalformedTableError struct {
	Reason string
}

func (e *MalformedTableError) Error() string {
	return "malformed table: " + e.Reason
}

// Is matches ErrMalformedTable.
func (e *MalformedTableError) Is(target error) bool {
	return target == ErrMalformedTable
}
