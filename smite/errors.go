package smite

import (
	"errors"
	"fmt"
)

// ErrMissingField indicates a record lacks a field it cannot be built without
var ErrMissingField = errors.New("required field missing")

// RecordError reports a record that could not be normalized.
type RecordError struct {
	Kind  string // "player" or "match"
	Index int    // position in the input, -1 if not part of a list
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s record %d: %s: %v", e.Kind, e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("%s record: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
