package workflow

import (
	"fmt"
	"time"

	"github.com/jonathan/job-elevator/internal/types"
)

// NewState creates the initial state for one posting: extracting, no attempts yet
func NewState(jobID string, raw types.RawJobPosting, maxAttempts int, now time.Time) (types.WorkflowState, error) {
	if jobID == "" {
		return types.WorkflowState{}, fmt.Errorf("job id is required")
	}
	if maxAttempts < 1 {
		return types.WorkflowState{}, fmt.Errorf("max attempts must be at least 1, got %d", maxAttempts)
	}
	return types.WorkflowState{
		JobID:       jobID,
		RawJobData:  raw,
		MaxAttempts: maxAttempts,
		Status:      types.StatusExtracting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update lists the fields a transition may change. A nil field is left as is.
// Job id, raw posting, max attempts and creation time cannot be changed.
type Update struct {
	Status            *types.ProcessingStatus
	Attempts          *int
	StructuredJob     *types.StructuredJobDescription
	QualityAssessment *types.QualityAssessment
	LastFeedback      *string
	ClearFeedback     bool
	ErrorMessage      *string
	ClearError        bool
}

func (u Update) empty() bool {
	return u.Status == nil && u.Attempts == nil && u.StructuredJob == nil && u.QualityAssessment == nil &&
		u.LastFeedback == nil && !u.ClearFeedback && u.ErrorMessage == nil && !u.ClearError
}

// ApplyTransition returns a copy of state with u merged in and updated_at set
// to now. Terminal states accept no updates, status changes must follow the
// transition graph and attempts may only grow up to max attempts.
func ApplyTransition(state types.WorkflowState, u Update, now time.Time) (types.WorkflowState, error) {
	to := state.Status
	if u.Status != nil {
		to = *u.Status
	}
	reject := func(msg string) (types.WorkflowState, error) {
		return state, &TransitionError{JobID: state.JobID, From: state.Status, To: to, Message: msg, Cause: ErrInvalidStatus}
	}

	if state.Status.IsTerminal() {
		if u.empty() {
			return state, nil
		}
		return reject("state is terminal")
	}
	if to != state.Status && !IsTransitionAllowed(state.Status, to) {
		return reject("not in transition graph")
	}
	if u.Attempts != nil {
		if *u.Attempts < state.Attempts {
			return reject(fmt.Sprintf("attempts cannot decrease from %d to %d", state.Attempts, *u.Attempts))
		}
		if *u.Attempts > state.MaxAttempts {
			return reject(fmt.Sprintf("attempts %d exceed max attempts %d", *u.Attempts, state.MaxAttempts))
		}
	}
	if u.LastFeedback != nil && u.ClearFeedback {
		return reject("feedback both set and cleared")
	}
	if u.ErrorMessage != nil && u.ClearError {
		return reject("error message both set and cleared")
	}

	next := state
	next.Status = to
	if u.Attempts != nil {
		next.Attempts = *u.Attempts
	}
	if u.StructuredJob != nil {
		next.StructuredJob = u.StructuredJob
	}
	if u.QualityAssessment != nil {
		next.QualityAssessment = u.QualityAssessment
	}
	switch {
	case u.LastFeedback != nil:
		fb := *u.LastFeedback
		next.LastFeedback = &fb
	case u.ClearFeedback:
		next.LastFeedback = nil
	}
	switch {
	case u.ErrorMessage != nil:
		msg := *u.ErrorMessage
		next.ErrorMessage = &msg
	case u.ClearError:
		next.ErrorMessage = nil
	}
	next.UpdatedAt = now
	return next, nil
}
