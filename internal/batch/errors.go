package batch

import "fmt"

// PersistenceError represents a completed workflow whose result could not be stored
type PersistenceError struct {
	PostingID string
	Op        string
	Cause     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting posting %s: %s: %v", e.PostingID, e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}
