// Package scheduler wires up the cron job that periodically runs an
// elevation batch.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled tick. Errors are logged; they never stop the schedule.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron and manages the batch loop.
type Scheduler struct {
	cron      *cron.Cron
	spec      string // cron spec, e.g. "@every 30m"
	job       Job
	logger    *slog.Logger
	immediate bool
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger used for ticks and for cron itself
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// RunImmediately also fires one tick as soon as the scheduler starts
func RunImmediately() Option {
	return func(s *Scheduler) { s.immediate = true }
}

// New validates spec and creates a Scheduler. Overlapping ticks are skipped
// rather than queued.
func New(spec string, job Job, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler job is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s := &Scheduler{spec: spec, job: job, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	logger := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return s, nil
}

// Run registers the job, starts the scheduler and blocks until ctx is done.
// In-flight ticks are allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started", "spec", s.spec, "next", s.cron.Entry(id).Next)

	var wg sync.WaitGroup
	if s.immediate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.tick(ctx)
		}()
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.logger.InfoContext(ctx, "scheduled batch started")
	if err := s.job(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled batch failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled batch complete")
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
