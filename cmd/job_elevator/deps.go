package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/job-elevator/internal/batch"
	"github.com/jonathan/job-elevator/internal/config"
	"github.com/jonathan/job-elevator/internal/db"
	"github.com/jonathan/job-elevator/internal/extraction"
	"github.com/jonathan/job-elevator/internal/grading"
	"github.com/jonathan/job-elevator/internal/llm"
	"github.com/jonathan/job-elevator/internal/notify"
	"github.com/jonathan/job-elevator/internal/workflow"
)

// app holds everything a command that elevates postings needs. Close
// releases it in reverse order of acquisition.
type app struct {
	store     *db.DB
	client    llm.Client
	machine   *workflow.Machine
	publisher *notify.Publisher
	recorder  *batch.Recorder
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// orchestrator builds a batch orchestrator publishing to the recorder and,
// when configured, to Redis
func (a *app) orchestrator() *batch.Orchestrator {
	notifiers := batch.Notifiers{a.recorder}
	if a.publisher != nil {
		notifiers = append(notifiers, a.publisher)
	}
	var store batch.Store
	if a.store != nil {
		store = a.store
	}
	return batch.New(store, a.machine, batch.WithNotifier(notifiers), batch.WithLogger(slog.Default()))
}

// newApp connects everything cfg names. withStore=false skips the database,
// for runs that never read or persist postings.
func newApp(ctx context.Context, cfg config.Config, withStore bool) (*app, error) {
	if withStore {
		if err := requireDatabaseURL(cfg); err != nil {
			return nil, err
		}
	}
	if err := requireAPIKey(cfg); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	a := &app{recorder: &batch.Recorder{}}

	if withStore {
		a.store, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.store.Close)
	}

	a.client, err = llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.client.Close() })

	if cfg.RedisURL != "" {
		a.publisher, err = notify.Connect(ctx, cfg.RedisURL, notify.Options{Stream: cfg.RedisStream})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = a.publisher.Close() })
	}

	logger := slog.Default()
	a.machine = workflow.NewMachine(
		extraction.New(a.client, extraction.WithLogger(logger)),
		grading.New(a.client, grading.WithLogger(logger)),
		workflow.WithPolicy(policy),
		workflow.WithLogger(logger),
	)

	slog.DebugContext(ctx, "app ready",
		"provider", cfg.LLMConfig().Provider,
		"extraction_model", a.client.GetModel(llm.TierAdvanced),
		"grading_model", a.client.GetModel(llm.TierLite),
		"notifications", a.publisher != nil)
	return a, nil
}
