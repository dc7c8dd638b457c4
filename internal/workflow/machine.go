package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/job-elevator/internal/types"
)

// Extractor produces a structured document for a raw posting. attempt starts
// at 1; feedback and previous are nil on the first attempt.
type Extractor interface {
	Extract(ctx context.Context, raw types.RawJobPosting, attempt int, feedback *string, previous *types.StructuredJobDescription) (*types.StructuredJobDescription, error)
}

// Grader assesses a structured document against its raw posting
type Grader interface {
	Grade(ctx context.Context, raw types.RawJobPosting, doc *types.StructuredJobDescription) (*types.QualityAssessment, error)
}

// Machine drives WorkflowStates through extraction and grading
type Machine struct {
	extractor Extractor
	grader    Grader
	policy    Policy
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Machine
type Option func(*Machine)

// WithPolicy replaces the default policy
func WithPolicy(p Policy) Option {
	return func(m *Machine) { m.policy = p }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine creates a Machine over the two capabilities
func NewMachine(extractor Extractor, grader Grader, opts ...Option) *Machine {
	m := &Machine{
		extractor: extractor,
		grader:    grader,
		policy:    DefaultPolicy(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the machine's policy
func (m *Machine) Policy() Policy {
	return m.policy
}

// NewState creates the initial state for one posting
func (m *Machine) NewState(jobID string, raw types.RawJobPosting, maxAttempts int) (types.WorkflowState, error) {
	return NewState(jobID, raw, maxAttempts, m.now())
}

// RunExtraction performs one extraction attempt. A capability failure moves
// the state to failed and is not returned as an error; the error is reserved
// for calling it from any status other than extracting.
func (m *Machine) RunExtraction(ctx context.Context, state types.WorkflowState) (types.WorkflowState, error) {
	if state.Status != types.StatusExtracting {
		return state, fmt.Errorf("%w: extraction requires status %s, job %s is %s",
			ErrInvalidStatus, types.StatusExtracting, state.JobID, state.Status)
	}

	attempt := state.Attempts + 1
	m.logger.InfoContext(ctx, "extracting job description",
		"job_id", state.JobID, "attempt", attempt, "max_attempts", state.MaxAttempts)

	stepCtx, cancel := m.stepContext(ctx)
	doc, err := m.extractor.Extract(stepCtx, state.RawJobData, attempt, state.LastFeedback, state.StructuredJob)
	cancel()

	if err != nil {
		capErr := &CapabilityError{Stage: "extraction", Attempt: attempt, Cause: err}
		m.logger.WarnContext(ctx, "extraction failed", "job_id", state.JobID, "attempt", attempt, "error", err)
		return ApplyTransition(state, Update{
			Status:       statusPtr(types.StatusFailed),
			Attempts:     &attempt,
			ErrorMessage: stringPtr(capErr.Error()),
		}, m.now())
	}
	if doc == nil {
		return ApplyTransition(state, Update{
			Status:       statusPtr(types.StatusFailed),
			Attempts:     &attempt,
			ErrorMessage: stringPtr(fmt.Sprintf("extraction returned no document on attempt %d", attempt)),
		}, m.now())
	}

	return ApplyTransition(state, Update{
		Status:        statusPtr(types.StatusGrading),
		Attempts:      &attempt,
		StructuredJob: doc,
		ClearError:    true,
	}, m.now())
}

// RunGrading grades the current document and applies the policy decision.
// As with RunExtraction, only a status mismatch is returned as an error.
func (m *Machine) RunGrading(ctx context.Context, state types.WorkflowState) (types.WorkflowState, error) {
	if state.Status != types.StatusGrading {
		return state, fmt.Errorf("%w: grading requires status %s, job %s is %s",
			ErrInvalidStatus, types.StatusGrading, state.JobID, state.Status)
	}

	stepCtx, cancel := m.stepContext(ctx)
	assessment, err := m.grader.Grade(stepCtx, state.RawJobData, state.StructuredJob)
	cancel()

	if err == nil && assessment == nil {
		err = fmt.Errorf("grader returned no assessment")
	}
	if err != nil {
		capErr := &CapabilityError{Stage: "grading", Attempt: state.Attempts, Cause: err}
		m.logger.WarnContext(ctx, "grading failed", "job_id", state.JobID, "attempt", state.Attempts, "error", err)
		return ApplyTransition(state, Update{
			Status:       statusPtr(types.StatusFailed),
			ErrorMessage: stringPtr(capErr.Error()),
		}, m.now())
	}

	decision := m.policy.Decide(assessment, state.Attempts, state.MaxAttempts)
	m.logger.InfoContext(ctx, "graded job description",
		"job_id", state.JobID,
		"attempt", state.Attempts,
		"score", assessment.AggregateScore(),
		"grade", assessment.Grade,
		"next", decision.Status)

	u := Update{
		Status:            &decision.Status,
		QualityAssessment: assessment,
	}
	if fb := strings.TrimSpace(assessment.OverallFeedback); fb != "" {
		u.LastFeedback = &fb
	} else {
		u.ClearFeedback = true
	}
	if decision.Status == types.StatusFailed {
		u.ErrorMessage = &decision.Reason
	} else {
		u.ClearError = true
	}
	return ApplyTransition(state, u, m.now())
}

// Run drives state until it is terminal. Each attempt is one extraction and
// one grading, so at most MaxAttempts rounds run.
func (m *Machine) Run(ctx context.Context, state types.WorkflowState) (types.WorkflowState, error) {
	var err error
	for steps := 0; !state.Status.IsTerminal(); steps++ {
		if steps > 2*state.MaxAttempts {
			return state, fmt.Errorf("job %s did not terminate after %d steps", state.JobID, steps)
		}
		switch state.Status {
		case types.StatusExtracting:
			state, err = m.RunExtraction(ctx, state)
		case types.StatusGrading:
			state, err = m.RunGrading(ctx, state)
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidStatus, state.Status)
		}
		if err != nil {
			return state, err
		}
	}

	m.logger.InfoContext(ctx, "workflow finished",
		"job_id", state.JobID,
		"status", state.Status,
		"attempts", state.Attempts,
		"score", state.QualityAssessment.AggregateScore())
	return state, nil
}

// Process creates a fresh state for the posting and runs it to completion
func (m *Machine) Process(ctx context.Context, jobID string, raw types.RawJobPosting, maxAttempts int) (types.WorkflowState, error) {
	state, err := m.NewState(jobID, raw, maxAttempts)
	if err != nil {
		return state, err
	}
	return m.Run(ctx, state)
}

func (m *Machine) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.policy.StepTimeout > 0 {
		return context.WithTimeout(ctx, m.policy.StepTimeout)
	}
	return context.WithCancel(ctx)
}

func statusPtr(s types.ProcessingStatus) *types.ProcessingStatus { return &s }

func stringPtr(s string) *string { return &s }
