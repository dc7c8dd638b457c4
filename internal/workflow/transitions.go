// Package workflow runs the extract/grade refinement loop for one posting.
//
// Valid status graph:
//
//	extracting ──► grading ──► completed
//	    ▲  │          │
//	    │  │          ├──► failed
//	    │  └──────────┼──► failed
//	    └─────────────┘
//
// completed and failed are terminal states.
package workflow

import (
	"fmt"

	"github.com/jonathan/job-elevator/internal/types"
)

// validTransitions lists every allowed (from → to) pair
var validTransitions = map[types.ProcessingStatus][]types.ProcessingStatus{
	types.StatusExtracting: {types.StatusGrading, types.StatusFailed},
	types.StatusGrading:    {types.StatusCompleted, types.StatusFailed, types.StatusExtracting},
	// completed and failed have no outgoing transitions
}

// ParseStatus converts a raw string to a ProcessingStatus
func ParseStatus(s string) (types.ProcessingStatus, error) {
	st := types.ProcessingStatus(s)
	switch st {
	case types.StatusExtracting, types.StatusGrading, types.StatusCompleted, types.StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTransitionAllowed returns true when moving from → to is permitted
func IsTransitionAllowed(from, to types.ProcessingStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
