package storage

import "fmt"

const (
	OpLoad  = "load"
	OpSave  = "save"
	OpClear = "clear"
)

// PersistenceError reports a failed load, save or clear of the state blob.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
