package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/job-elevator/internal/observability"
	"github.com/jonathan/job-elevator/internal/scheduler"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Elevate batches on a cron schedule until interrupted",
	Long: `Runs the same batch as "elevate" on every tick of --schedule (a standard cron spec or a
descriptor such as "@every 30m"). A tick that is still running when the next one is due is
skipped. Stops on SIGINT or SIGTERM after the running batch finishes.`,
	RunE: runSchedule,
}

var (
	scheduleSpec string
	scheduleNow  bool
)

func init() {
	addBatchFlags(scheduleCmd)
	scheduleCmd.Flags().StringVar(&scheduleSpec, "schedule", "", `Cron spec (default "@every 30m")`)
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Also run one batch immediately")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyBatchFlags(cmd, &cfg)
	if cmd.Flags().Changed("schedule") {
		cfg.Schedule = scheduleSpec
	}
	opts := cfg.BatchOptions()
	if err := opts.Validate(); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	orchestrator := a.orchestrator()
	job := func(ctx context.Context) error {
		a.recorder.Reset()
		summary, err := orchestrator.Run(ctx, opts)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "batch summary",
			"total", summary.Total,
			"successful", summary.Successful,
			"failed", summary.Failed)
		if cfg.Verbose {
			observability.NewPrinter(os.Stderr).PrintSummary(summary, a.recorder.Failures())
		}
		return nil
	}

	schedOpts := []scheduler.Option{scheduler.WithLogger(slog.Default())}
	if scheduleNow {
		schedOpts = append(schedOpts, scheduler.RunImmediately())
	}
	s, err := scheduler.New(cfg.Schedule, job, schedOpts...)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
