// Package batch elevates pending postings in bounded-concurrency batches and
// persists the completed results.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-elevator/internal/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Store is the source of pending postings and the sink for results
type Store interface {
	CountPostings(ctx context.Context) (int, error)
	ListPendingPostings(ctx context.Context, limit int, titles []string) ([]types.Posting, error)
	// CompleteResult stores result and marks its posting processed
	// atomically; on error neither write is visible
	CompleteResult(ctx context.Context, result *types.ElevatedJob) error
}

// Runner runs one posting's workflow to a terminal state
type Runner interface {
	Process(ctx context.Context, jobID string, raw types.RawJobPosting, maxAttempts int) (types.WorkflowState, error)
}

// Notifier receives every terminal outcome
type Notifier interface {
	Publish(ctx context.Context, outcome Outcome) error
}

// Summary counts the outcomes of one batch. Successful + Failed == Total.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Outcome is the result of elevating one posting
type Outcome struct {
	PostingID  string                 `json:"posting_id"`
	Status     types.ProcessingStatus `json:"status"`
	Attempts   int                    `json:"attempts"`
	Score      float64                `json:"score"`
	Error      string                 `json:"error,omitempty"`
	ResultID   *uuid.UUID             `json:"result_id,omitempty"`
	FinishedAt time.Time              `json:"finished_at"`

	State  *types.WorkflowState `json:"-"`
	Result *types.ElevatedJob   `json:"-"`
}

// Succeeded reports whether the posting completed and its result was stored
func (o Outcome) Succeeded() bool {
	return o.Status == types.StatusCompleted && o.Error == ""
}

// Orchestrator runs batches of workflows against a Store
type Orchestrator struct {
	store    Store
	runner   Runner
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithNotifier publishes every outcome to n
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator. The store is owned by the caller.
func New(store Store, runner Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		runner: runner,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run elevates up to opts.BatchSize pending postings, newest first, with at
// most opts.MaxConcurrent workflows in flight. A failing posting never stops
// its siblings; an error is returned only when the batch cannot start.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Summary, error) {
	if err := opts.Validate(); err != nil {
		return Summary{}, err
	}

	count, err := o.store.CountPostings(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count postings: %w", err)
	}
	if count == 0 {
		o.logger.WarnContext(ctx, "no postings found, nothing to elevate")
		return Summary{}, nil
	}

	postings, err := o.store.ListPendingPostings(ctx, opts.BatchSize, opts.Titles)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list pending postings: %w", err)
	}
	o.logger.InfoContext(ctx, "starting batch",
		"postings", count,
		"pending", len(postings),
		"batch_size", opts.BatchSize,
		"max_concurrent", opts.concurrency(),
		"max_attempts", opts.MaxAttempts,
		"titles", opts.Titles)

	var (
		mu      sync.Mutex
		summary = Summary{Total: len(postings)}
	)
	record := func(out Outcome) {
		mu.Lock()
		defer mu.Unlock()
		if out.Succeeded() {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.JobsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.JobsPerMinute)), 1)
	}
	sem := semaphore.NewWeighted(int64(opts.concurrency()))
	var g errgroup.Group

	for _, posting := range postings {
		if err := limiter.Wait(ctx); err != nil {
			record(o.abandon(ctx, posting, err))
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			record(o.abandon(ctx, posting, err))
			continue
		}
		posting := posting
		g.Go(func() error {
			defer sem.Release(1)
			record(o.Elevate(ctx, posting, opts.MaxAttempts, true))
			return nil
		})
	}
	_ = g.Wait()

	o.logger.InfoContext(ctx, "batch finished",
		"total", summary.Total,
		"successful", summary.Successful,
		"failed", summary.Failed)
	return summary, nil
}

// Elevate runs one posting to a terminal state and, when persist is set,
// stores a completed result and marks the posting processed. Panics and
// storage errors are reported as a failed outcome.
func (o *Orchestrator) Elevate(ctx context.Context, posting types.Posting, maxAttempts int, persist bool) (out Outcome) {
	out = Outcome{PostingID: posting.ID, Status: types.StatusFailed}

	defer func() {
		if r := recover(); r != nil {
			out.Status = types.StatusFailed
			out.Error = fmt.Sprintf("panic: %v", r)
			out.ResultID = nil
			o.logger.ErrorContext(ctx, "workflow panicked", "posting_id", posting.ID, "panic", r)
		}
		out.FinishedAt = o.now()
		o.publish(ctx, out)
	}()

	state, err := o.runner.Process(ctx, posting.ID, posting.Raw, maxAttempts)
	if err != nil {
		out.Error = err.Error()
		o.logger.ErrorContext(ctx, "workflow error", "posting_id", posting.ID, "error", err)
		return out
	}

	out.State = &state
	out.Status = state.Status
	out.Attempts = state.Attempts
	out.Score = state.QualityAssessment.AggregateScore()
	if state.ErrorMessage != nil {
		out.Error = *state.ErrorMessage
	}
	if state.Status != types.StatusCompleted {
		return out
	}

	result := &types.ElevatedJob{
		ID:                o.newID(),
		OriginalPostingID: posting.ID,
		StructuredJob:     state.StructuredJob,
		QualityAssessment: state.QualityAssessment,
		Attempts:          state.Attempts,
		CreatedAt:         o.now(),
	}
	out.Result = result
	if !persist {
		return out
	}

	if err := o.persist(ctx, result); err != nil {
		out.Error = err.Error()
		o.logger.ErrorContext(ctx, "failed to persist result", "posting_id", posting.ID, "error", err)
		return out
	}
	out.ResultID = &result.ID
	return out
}

func (o *Orchestrator) persist(ctx context.Context, result *types.ElevatedJob) error {
	if err := o.store.CompleteResult(ctx, result); err != nil {
		return &PersistenceError{PostingID: result.OriginalPostingID, Op: "complete result", Cause: err}
	}
	return nil
}

// abandon records a posting that never started because ctx ended
func (o *Orchestrator) abandon(ctx context.Context, posting types.Posting, err error) Outcome {
	out := Outcome{
		PostingID:  posting.ID,
		Status:     types.StatusFailed,
		Error:      fmt.Sprintf("not started: %v", err),
		FinishedAt: o.now(),
	}
	o.logger.WarnContext(ctx, "posting not started", "posting_id", posting.ID, "error", err)
	return out
}

func (o *Orchestrator) publish(ctx context.Context, out Outcome) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Publish(context.WithoutCancel(ctx), out); err != nil {
		o.logger.WarnContext(ctx, "failed to publish outcome", "posting_id", out.PostingID, "error", err)
	}
}
