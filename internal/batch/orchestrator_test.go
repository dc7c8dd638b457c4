package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-elevator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MemoryStore implements Store in memory for testing
type MemoryStore struct {
	mu          sync.Mutex
	postings    []types.Posting
	results     map[uuid.UUID]*types.ElevatedJob
	countErr    error
	listErr     error
	completeErr map[string]error
	lastLimit   int
	lastTitle   []string
}

func NewMemoryStore(postings ...types.Posting) *MemoryStore {
	return &MemoryStore{
		postings:    postings,
		results:     make(map[uuid.UUID]*types.ElevatedJob),
		completeErr: make(map[string]error),
	}
}

func (s *MemoryStore) CountPostings(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.postings), s.countErr
}

func (s *MemoryStore) ListPendingPostings(_ context.Context, limit int, titles []string) ([]types.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit, s.lastTitle = limit, titles
	if s.listErr != nil {
		return nil, s.listErr
	}

	var pending []types.Posting
	for _, p := range s.postings {
		if p.Processed {
			continue
		}
		if len(titles) > 0 && !contains(titles, p.Title) {
			continue
		}
		pending = append(pending, p)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].IngestedAt.After(pending[j].IngestedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemoryStore) CompleteResult(_ context.Context, result *types.ElevatedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.completeErr[result.OriginalPostingID]; err != nil {
		return err
	}
	for i := range s.postings {
		if s.postings[i].ID != result.OriginalPostingID {
			continue
		}
		if s.postings[i].Processed {
			return fmt.Errorf("posting %s already processed", result.OriginalPostingID)
		}
		s.results[result.ID] = result
		s.postings[i].Processed = true
		id := result.ID
		s.postings[i].ResultRef = &id
		return nil
	}
	return fmt.Errorf("posting %s not found", result.OriginalPostingID)
}

func (s *MemoryStore) Posting(id string) types.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.postings {
		if p.ID == id {
			return p
		}
	}
	return types.Posting{}
}

func (s *MemoryStore) ResultFor(postingID string) *types.ElevatedJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if r.OriginalPostingID == postingID {
			return r
		}
	}
	return nil
}

func (s *MemoryStore) ResultCount(postingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.results {
		if r.OriginalPostingID == postingID {
			n++
		}
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MockRunner implements Runner for testing
type MockRunner struct {
	ProcessFunc func(ctx context.Context, jobID string) (types.WorkflowState, error)

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (m *MockRunner) Process(ctx context.Context, jobID string, raw types.RawJobPosting, maxAttempts int) (types.WorkflowState, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		prev := m.maxInFlight.Load()
		if n <= prev || m.maxInFlight.CompareAndSwap(prev, n) {
			break
		}
	}

	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, jobID)
	}
	return completedState(jobID, raw, maxAttempts), nil
}

func completedState(jobID string, raw types.RawJobPosting, maxAttempts int) types.WorkflowState {
	return types.WorkflowState{
		JobID:             jobID,
		RawJobData:        raw,
		StructuredJob:     &types.StructuredJobDescription{RoleSummary: types.RoleSummary{Title: raw.String("title")}},
		QualityAssessment: &types.QualityAssessment{Score: 0.9, Grade: types.GradeB},
		Attempts:          1,
		MaxAttempts:       maxAttempts,
		Status:            types.StatusCompleted,
	}
}

func failedState(jobID string, msg string) types.WorkflowState {
	return types.WorkflowState{
		JobID:        jobID,
		Attempts:     3,
		MaxAttempts:  3,
		Status:       types.StatusFailed,
		ErrorMessage: &msg,
	}
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	mu       sync.Mutex
	outcomes []Outcome
	err      error
}

func (m *MockNotifier) Publish(_ context.Context, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
	return m.err
}

func (m *MockNotifier) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outcome(nil), m.outcomes...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makePostings(n int) []types.Posting {
	base := time.Date(2024, 11, 2, 9, 0, 0, 0, time.UTC)
	postings := make([]types.Posting, n)
	for i := range postings {
		title := "Data Scientist"
		if i%2 == 0 {
			title = "AI Engineer"
		}
		postings[i] = types.Posting{
			ID:         fmt.Sprintf("posting-%02d", i),
			Title:      title,
			Raw:        types.RawJobPosting{"title": title},
			IngestedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return postings
}

func TestRun_AllComplete(t *testing.T) {
	store := NewMemoryStore(makePostings(4)...)
	notifier := &MockNotifier{}
	o := New(store, &MockRunner{}, WithLogger(quietLogger()), WithNotifier(notifier))

	summary, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 4, Successful: 4, Failed: 0}, summary)

	for _, p := range makePostings(4) {
		stored := store.Posting(p.ID)
		assert.True(t, stored.Processed, p.ID)
		require.NotNil(t, stored.ResultRef)

		result := store.ResultFor(p.ID)
		require.NotNil(t, result)
		assert.Equal(t, *stored.ResultRef, result.ID)
		assert.Equal(t, p.Title, result.StructuredJob.RoleSummary.Title)
		assert.InDelta(t, 0.9, result.QualityAssessment.Score, 1e-9)
		assert.False(t, result.CreatedAt.IsZero())
	}

	outcomes := notifier.Outcomes()
	require.Len(t, outcomes, 4)
	for _, out := range outcomes {
		assert.Equal(t, types.StatusCompleted, out.Status)
		assert.NotNil(t, out.ResultID)
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	store := NewMemoryStore(makePostings(6)...)
	runner := &MockRunner{
		ProcessFunc: func(_ context.Context, jobID string) (types.WorkflowState, error) {
			switch jobID {
			case "posting-01":
				return failedState(jobID, "max attempts reached (3/3), final quality score: 0.5"), nil
			case "posting-02":
				panic("provider client nil")
			case "posting-03":
				return types.WorkflowState{}, errors.New("invalid workflow status")
			}
			return completedState(jobID, types.RawJobPosting{"title": "x"}, 3), nil
		},
	}
	store.completeErr["posting-04"] = errors.New("connection reset")

	o := New(store, runner, WithLogger(quietLogger()))
	summary, err := o.Run(context.Background(), Options{BatchSize: 10, MaxConcurrent: 3, MaxAttempts: 3})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 6, Successful: 2, Failed: 4}, summary)
	assert.Equal(t, summary.Total, summary.Successful+summary.Failed)

	for id, want := range map[string]bool{
		"posting-00": true,
		"posting-01": false,
		"posting-02": false,
		"posting-03": false,
		"posting-04": false,
		"posting-05": true,
	} {
		p := store.Posting(id)
		assert.Equal(t, want, p.Processed, id)
		if !want {
			assert.Nil(t, p.ResultRef, id)
		}
	}
}

func TestRun_PersistenceFailureCountsAsFailed(t *testing.T) {
	store := NewMemoryStore(makePostings(2)...)
	store.completeErr["posting-00"] = errors.New("deadlock detected")
	notifier := &MockNotifier{}

	o := New(store, &MockRunner{}, WithLogger(quietLogger()), WithNotifier(notifier))
	summary, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 2, Successful: 1, Failed: 1}, summary)

	var failed *Outcome
	for _, out := range notifier.Outcomes() {
		if out.PostingID == "posting-00" {
			out := out
			failed = &out
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Error, "complete result")
	assert.Contains(t, failed.Error, "deadlock detected")
	assert.Nil(t, failed.ResultID)
}

// A posting whose result could not be stored is retried by the next batch
// and ends with exactly one result
func TestRun_FailedPersistenceLeavesNoResultBehind(t *testing.T) {
	store := NewMemoryStore(makePostings(1)...)
	store.completeErr["posting-00"] = errors.New("deadlock detected")
	o := New(store, &MockRunner{}, WithLogger(quietLogger()))

	summary, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Successful: 0, Failed: 1}, summary)
	assert.Equal(t, 0, store.ResultCount("posting-00"))
	assert.False(t, store.Posting("posting-00").Processed)

	delete(store.completeErr, "posting-00")
	summary, err = o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 1, Successful: 1, Failed: 0}, summary)
	assert.Equal(t, 1, store.ResultCount("posting-00"))

	p := store.Posting("posting-00")
	assert.True(t, p.Processed)
	require.NotNil(t, p.ResultRef)
	require.NotNil(t, store.ResultFor("posting-00"))
	assert.Equal(t, store.ResultFor("posting-00").ID, *p.ResultRef)
}

func TestRun_RespectsConcurrencyLimit(t *testing.T) {
	store := NewMemoryStore(makePostings(12)...)
	runner := &MockRunner{
		ProcessFunc: func(_ context.Context, jobID string) (types.WorkflowState, error) {
			time.Sleep(10 * time.Millisecond)
			return completedState(jobID, types.RawJobPosting{}, 3), nil
		},
	}

	o := New(store, runner, WithLogger(quietLogger()))
	summary, err := o.Run(context.Background(), Options{BatchSize: 12, MaxConcurrent: 3, MaxAttempts: 3})
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Successful)
	assert.LessOrEqual(t, runner.maxInFlight.Load(), int32(3))
	assert.Equal(t, int32(12), runner.calls.Load())
}

func TestRun_BatchSizeAndOrdering(t *testing.T) {
	store := NewMemoryStore(makePostings(5)...)
	var mu sync.Mutex
	var seen []string
	runner := &MockRunner{
		ProcessFunc: func(_ context.Context, jobID string) (types.WorkflowState, error) {
			mu.Lock()
			seen = append(seen, jobID)
			mu.Unlock()
			return completedState(jobID, types.RawJobPosting{}, 3), nil
		},
	}

	o := New(store, runner, WithLogger(quietLogger()))
	summary, err := o.Run(context.Background(), Options{BatchSize: 2, MaxConcurrent: 1, MaxAttempts: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, store.lastLimit)
	// newest first
	assert.Equal(t, []string{"posting-04", "posting-03"}, seen)
}

func TestRun_TitleFilter(t *testing.T) {
	store := NewMemoryStore(makePostings(6)...)
	o := New(store, &MockRunner{}, WithLogger(quietLogger()))

	opts := DefaultOptions()
	opts.Titles = []string{"AI Engineer"}
	summary, err := o.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, []string{"AI Engineer"}, store.lastTitle)
	assert.False(t, store.Posting("posting-01").Processed)
	assert.True(t, store.Posting("posting-00").Processed)
}

func TestRun_ProcessedPostingsAreSkipped(t *testing.T) {
	store := NewMemoryStore(makePostings(3)...)
	o := New(store, &MockRunner{}, WithLogger(quietLogger()))

	first, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Successful)

	second, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, second)
}

func TestRun_EmptyCollection(t *testing.T) {
	store := NewMemoryStore()
	runner := &MockRunner{}
	o := New(store, runner, WithLogger(quietLogger()))

	summary, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 0, Successful: 0, Failed: 0}, summary)
	assert.Equal(t, int32(0), runner.calls.Load())
	assert.Equal(t, 0, store.lastLimit, "listing skipped when nothing is stored")
}

func TestRun_StoreErrors(t *testing.T) {
	store := NewMemoryStore(makePostings(1)...)
	store.countErr = errors.New("connection refused")
	_, err := New(store, &MockRunner{}, WithLogger(quietLogger())).Run(context.Background(), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count postings")

	store = NewMemoryStore(makePostings(1)...)
	store.listErr = errors.New("syntax error")
	_, err = New(store, &MockRunner{}, WithLogger(quietLogger())).Run(context.Background(), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list pending postings")
}

func TestRun_InvalidOptions(t *testing.T) {
	o := New(NewMemoryStore(), &MockRunner{}, WithLogger(quietLogger()))
	for _, opts := range []Options{
		{BatchSize: 0, MaxConcurrent: 1, MaxAttempts: 1},
		{BatchSize: 1, MaxConcurrent: 0, MaxAttempts: 1},
		{BatchSize: 1, MaxConcurrent: 1, MaxAttempts: 0},
		{BatchSize: 1, MaxConcurrent: 1, MaxAttempts: 1, JobsPerMinute: -1},
	} {
		_, err := o.Run(context.Background(), opts)
		assert.Error(t, err, "%+v", opts)
	}
}

func TestRun_CanceledContextCountsRemainingAsFailed(t *testing.T) {
	store := NewMemoryStore(makePostings(3)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(store, &MockRunner{}, WithLogger(quietLogger()))
	summary, err := o.Run(ctx, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, summary.Total, summary.Successful+summary.Failed)
}

func TestRun_NotifierErrorsDoNotFailPostings(t *testing.T) {
	store := NewMemoryStore(makePostings(2)...)
	notifier := &MockNotifier{err: errors.New("redis down")}

	o := New(store, &MockRunner{}, WithLogger(quietLogger()), WithNotifier(notifier))
	summary, err := o.Run(context.Background(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Successful)
	assert.Len(t, notifier.Outcomes(), 2)
}

func TestRun_JobsPerMinutePacing(t *testing.T) {
	store := NewMemoryStore(makePostings(3)...)
	o := New(store, &MockRunner{}, WithLogger(quietLogger()))

	opts := DefaultOptions()
	opts.JobsPerMinute = 1200 // one start every 50ms
	start := time.Now()
	summary, err := o.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Successful)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestElevate_WithoutPersist(t *testing.T) {
	store := NewMemoryStore(makePostings(1)...)
	o := New(store, &MockRunner{}, WithLogger(quietLogger()))

	out := o.Elevate(context.Background(), makePostings(1)[0], 3, false)
	assert.True(t, out.Succeeded())
	require.NotNil(t, out.State)
	require.NotNil(t, out.Result)
	assert.Nil(t, out.ResultID)
	assert.False(t, store.Posting("posting-00").Processed)
	assert.Nil(t, store.ResultFor("posting-00"))
}

func TestOptions_ConcurrencyClampedToBatchSize(t *testing.T) {
	opts := Options{BatchSize: 2, MaxConcurrent: 5, MaxAttempts: 1}
	require.NoError(t, opts.Validate())
	assert.Equal(t, 2, opts.concurrency())
}
