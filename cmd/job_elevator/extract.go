package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/job-elevator/internal/ingestion"
	"github.com/jonathan/job-elevator/internal/observability"
	"github.com/jonathan/job-elevator/internal/types"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the extract/grade loop for a single posting",
	Long: `Runs one posting to a terminal state and prints the final workflow state as JSON.
The posting is read from the database with --posting-id, or from a JSON file with --file.
With --persist, a completed result is stored and the posting marked processed
(requires --posting-id).`,
	RunE: runExtract,
}

var (
	extractPostingID   string
	extractFile        string
	extractMaxAttempts int
	extractPersist     bool
	extractOut         string
)

func init() {
	extractCmd.Flags().StringVarP(&extractPostingID, "posting-id", "p", "", "Id of a stored posting")
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to a raw posting JSON file")
	extractCmd.Flags().IntVar(&extractMaxAttempts, "max-attempts", 0, "Extraction attempts (default 3)")
	extractCmd.Flags().BoolVar(&extractPersist, "persist", false, "Store a completed result and mark the posting processed")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Write the final state to this file instead of stdout")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	// Validate mutually exclusive flags
	if extractPostingID == "" && extractFile == "" {
		return fmt.Errorf("either --posting-id or --file must be provided")
	}
	if extractPostingID != "" && extractFile != "" {
		return fmt.Errorf("--posting-id and --file are mutually exclusive; provide only one")
	}
	if extractPersist && extractPostingID == "" {
		return fmt.Errorf("--persist requires --posting-id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = extractMaxAttempts
	}
	maxAttempts := cfg.BatchOptions().MaxAttempts

	var posting *types.Posting
	if extractFile != "" {
		posting, err = readPostingFile(extractFile)
		if err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, extractPostingID != "")
	if err != nil {
		return err
	}
	defer a.Close()

	if extractPostingID != "" {
		posting, err = a.store.GetPosting(ctx, extractPostingID)
		if err != nil {
			return err
		}
		if posting == nil {
			return fmt.Errorf("posting not found: %s", extractPostingID)
		}
	}

	outcome := a.orchestrator().Elevate(ctx, *posting, maxAttempts, extractPersist)
	if outcome.State == nil {
		return fmt.Errorf("posting %s did not run: %s", posting.ID, outcome.Error)
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stderr).PrintWorkflowState(*outcome.State)
	}

	out, err := json.MarshalIndent(outcome.State, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow state: %w", err)
	}
	if extractOut != "" {
		if err := os.WriteFile(extractOut, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "Wrote workflow state to %s\n", extractOut)
	} else {
		_, _ = fmt.Fprintln(os.Stdout, string(out))
	}

	if extractPersist && outcome.ResultID != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Stored result %s\n", outcome.ResultID)
	}
	if !outcome.Succeeded() {
		return fmt.Errorf("posting %s %s: %s", posting.ID, outcome.Status, outcome.Error)
	}
	return nil
}

// readPostingFile loads one raw posting. The id is derived from its content.
func readPostingFile(path string) (*types.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read posting file: %w", err)
	}

	var raw types.RawJobPosting
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse posting JSON: %w", err)
	}
	if raw.String("title") == "" {
		return nil, fmt.Errorf("posting file %s has no title", path)
	}

	return &types.Posting{
		ID:          ingestion.PostingID(raw),
		Title:       raw.String("title"),
		CompanyName: raw.String("company_name"),
		Raw:         raw,
	}, nil
}
