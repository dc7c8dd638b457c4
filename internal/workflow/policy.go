package workflow

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jonathan/job-elevator/internal/types"
)

// Default policy values
const (
	DefaultAcceptScore     = 0.8
	DefaultBestEffortScore = 0.7
	DefaultStepTimeout     = 2 * time.Minute
)

// Policy decides when a graded extraction is good enough
type Policy struct {
	// AcceptScore completes the workflow as soon as the aggregate score reaches it
	AcceptScore float64
	// BestEffortScore is the floor for completing once attempts run out,
	// used only when AcceptBestEffort is set
	BestEffortScore  float64
	AcceptBestEffort bool
	// RequireImprovableSection stops retrying when the grader flagged no
	// section as improvable
	RequireImprovableSection bool
	// StepTimeout bounds each extraction or grading call; zero disables it
	StepTimeout time.Duration
}

// DefaultPolicy accepts at 0.8 and never accepts below it
func DefaultPolicy() Policy {
	return Policy{
		AcceptScore:     DefaultAcceptScore,
		BestEffortScore: DefaultBestEffortScore,
		StepTimeout:     DefaultStepTimeout,
	}
}

// Validate checks the thresholds are ordered and inside [0,1]
func (p Policy) Validate() error {
	if p.AcceptScore <= 0 || p.AcceptScore > 1 {
		return fmt.Errorf("accept score must be in (0, 1], got %g", p.AcceptScore)
	}
	if p.BestEffortScore < 0 || p.BestEffortScore > p.AcceptScore {
		return fmt.Errorf("best effort score must be in [0, %g], got %g", p.AcceptScore, p.BestEffortScore)
	}
	if p.StepTimeout < 0 {
		return fmt.Errorf("step timeout cannot be negative")
	}
	return nil
}

// Decision is the outcome of grading one attempt
type Decision struct {
	Status types.ProcessingStatus
	// Reason explains a failed decision
	Reason string
}

// Decide applies the termination rules to an assessment of attempt number
// attempts out of maxAttempts:
//  1. aggregate score at or above AcceptScore completes
//  2. with attempts exhausted, best-effort acceptance may complete, otherwise it fails
//  3. with RequireImprovableSection and no section flagged, it fails early
//  4. anything else goes back to extraction
//
// Completion depends only on the score and attempts; the early stop never
// takes best-effort acceptance.
func (p Policy) Decide(assessment *types.QualityAssessment, attempts, maxAttempts int) Decision {
	score := assessment.AggregateScore()
	if types.AtLeast(score, p.AcceptScore) {
		return Decision{Status: types.StatusCompleted}
	}

	if attempts >= maxAttempts {
		if p.AcceptBestEffort && types.AtLeast(score, p.BestEffortScore) {
			return Decision{Status: types.StatusCompleted}
		}
		return Decision{
			Status: types.StatusFailed,
			Reason: fmt.Sprintf("max attempts reached (%d/%d), final quality score: %s", attempts, maxAttempts, formatScore(score)),
		}
	}

	if p.RequireImprovableSection && assessment != nil && len(assessment.Sections) > 0 && !assessment.HasImprovableSection() {
		return Decision{
			Status: types.StatusFailed,
			Reason: "no section flagged for improvement, final quality score: " + formatScore(score),
		}
	}
	return Decision{Status: types.StatusExtracting}
}

// formatScore rounds to two places and drops trailing zeros ("0.5", "0.65")
func formatScore(score float64) string {
	return strconv.FormatFloat(math.Round(score*100)/100, 'f', -1, 64)
}
