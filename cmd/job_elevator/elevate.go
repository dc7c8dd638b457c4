package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/job-elevator/internal/batch"
	"github.com/jonathan/job-elevator/internal/config"
	"github.com/jonathan/job-elevator/internal/observability"
	"github.com/spf13/cobra"
)

var elevateCmd = &cobra.Command{
	Use:   "elevate",
	Short: "Elevate a batch of pending job postings",
	Long: `Loads up to --batch-size unprocessed postings, newest first, and runs the extract/grade
loop for each with at most --max-concurrent running at once. Completed postings are stored
and marked processed; failed ones stay pending for the next batch.

Prints {"total", "successful", "failed"} as JSON when the batch finishes.`,
	RunE: runElevate,
}

var (
	elevateBatchSize     int
	elevateMaxConcurrent int
	elevateMaxAttempts   int
	elevateJobsPerMinute int
	elevateTitles        []string
	elevateRedisURL      string
)

func init() {
	addBatchFlags(elevateCmd)
	rootCmd.AddCommand(elevateCmd)
}

// addBatchFlags registers the flags shared by elevate and schedule
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&elevateBatchSize, "batch-size", "b", 0, "Maximum postings per batch (default 10)")
	cmd.Flags().IntVarP(&elevateMaxConcurrent, "max-concurrent", "c", 0, "Maximum postings elevated at once (default 3)")
	cmd.Flags().IntVar(&elevateMaxAttempts, "max-attempts", 0, "Extraction attempts per posting (default 3)")
	cmd.Flags().IntVar(&elevateJobsPerMinute, "jobs-per-minute", 0, "Pace workflow starts; 0 disables pacing")
	cmd.Flags().StringSliceVarP(&elevateTitles, "title", "t", nil, "Only elevate postings with this exact title (repeatable)")
	cmd.Flags().StringVar(&elevateRedisURL, "redis-url", "", "Publish outcomes to this Redis (defaults to REDIS_URL env var)")
}

// applyBatchFlags overrides cfg with explicitly set batch flags
func applyBatchFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = elevateBatchSize
	}
	if cmd.Flags().Changed("max-concurrent") {
		cfg.MaxConcurrent = elevateMaxConcurrent
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = elevateMaxAttempts
	}
	if cmd.Flags().Changed("jobs-per-minute") {
		cfg.JobsPerMinute = elevateJobsPerMinute
	}
	if cmd.Flags().Changed("title") {
		cfg.Titles = elevateTitles
	}
	if cmd.Flags().Changed("redis-url") {
		cfg.RedisURL = elevateRedisURL
	}
}

func runElevate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyBatchFlags(cmd, &cfg)
	opts := cfg.BatchOptions()
	if err := opts.Validate(); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.orchestrator().Run(ctx, opts)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stderr).PrintSummary(summary, a.recorder.Failures())
	}
	return writeSummary(summary)
}

func writeSummary(summary batch.Summary) error {
	out, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, string(out))
	return nil
}
