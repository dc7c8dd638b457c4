package workflow

import (
	"errors"
	"fmt"

	"github.com/jonathan/job-elevator/internal/types"
)

// ErrInvalidStatus is returned when an operation is attempted from a status
// that does not permit it
var ErrInvalidStatus = errors.New("invalid workflow status")

// TransitionError represents an update rejected by ApplyTransition
type TransitionError struct {
	JobID   string
	From    types.ProcessingStatus
	To      types.ProcessingStatus
	Message string
	Cause   error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("job %s: transition %s -> %s rejected: %s", e.JobID, e.From, e.To, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransitionError) Unwrap() error {
	return e.Cause
}

// CapabilityError wraps a failed extraction or grading call
type CapabilityError struct {
	Stage   string
	Attempt int
	Cause   error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s failed on attempt %d: %v", e.Stage, e.Attempt, e.Cause)
}

func (e *CapabilityError) Unwrap() error {
	return e.Cause
}
