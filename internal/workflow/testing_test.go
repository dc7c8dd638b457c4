package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/job-elevator/internal/types"
)

type extractCall struct {
	Attempt  int
	Feedback *string
	Previous *types.StructuredJobDescription
}

// MockExtractor implements Extractor for testing
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, attempt int) (*types.StructuredJobDescription, error)

	mu    sync.Mutex
	calls []extractCall
}

func (m *MockExtractor) Extract(ctx context.Context, _ types.RawJobPosting, attempt int, feedback *string, previous *types.StructuredJobDescription) (*types.StructuredJobDescription, error) {
	m.mu.Lock()
	m.calls = append(m.calls, extractCall{Attempt: attempt, Feedback: feedback, Previous: previous})
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, attempt)
	}
	return docForAttempt(attempt), nil
}

func (m *MockExtractor) Calls() []extractCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]extractCall(nil), m.calls...)
}

// MockGrader implements Grader for testing
type MockGrader struct {
	GradeFunc func(ctx context.Context, doc *types.StructuredJobDescription) (*types.QualityAssessment, error)

	mu    sync.Mutex
	count int
}

func (m *MockGrader) Grade(ctx context.Context, _ types.RawJobPosting, doc *types.StructuredJobDescription) (*types.QualityAssessment, error) {
	m.mu.Lock()
	m.count++
	m.mu.Unlock()

	if m.GradeFunc != nil {
		return m.GradeFunc(ctx, doc)
	}
	return holistic(1.0, ""), nil
}

func (m *MockGrader) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// scriptedScores grades the n-th call with scores[n], repeating the last score
func scriptedScores(scores ...float64) *MockGrader {
	g := &MockGrader{}
	var n int
	g.GradeFunc = func(_ context.Context, _ *types.StructuredJobDescription) (*types.QualityAssessment, error) {
		i := n
		if i >= len(scores) {
			i = len(scores) - 1
		}
		n++
		return holistic(scores[i], fmt.Sprintf("feedback after grading %d", n)), nil
	}
	return g
}

func holistic(score float64, feedback string) *types.QualityAssessment {
	return &types.QualityAssessment{Score: score, Grade: types.GradeForScore(score), OverallFeedback: feedback}
}

func docForAttempt(attempt int) *types.StructuredJobDescription {
	return &types.StructuredJobDescription{
		RoleSummary: types.RoleSummary{Title: fmt.Sprintf("Platform Engineer (attempt %d)", attempt)},
	}
}

// tickingClock returns a clock that advances one second per call
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 11, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

var samplePosting = types.RawJobPosting{"title": "Platform Engineer", "company_name": "Acme"}
