package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonathan/job-elevator/internal/db"
	"github.com/jonathan/job-elevator/internal/ingestion"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Store job postings from saved search results",
	Long: `Reads one or more saved job search API responses and upserts every job into the postings
table. Postings are keyed by a hash of title, company, location and apply link, so ingesting
the same results twice updates rather than duplicates them.`,
	RunE: runIngest,
}

var ingestFiles []string

func init() {
	ingestCmd.Flags().StringSliceVarP(&ingestFiles, "file", "f", nil, "Path to a search results JSON file (repeatable, required)")
	_ = ingestCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(ingestCmd)
}

// ingestStats counts what an ingest run did
type ingestStats struct {
	Inserted int
	Updated  int
	Skipped  int
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	var total ingestStats
	for _, path := range ingestFiles {
		stats, err := ingestFile(ctx, store, path, time.Now().UTC())
		if err != nil {
			return err
		}
		total.Inserted += stats.Inserted
		total.Updated += stats.Updated
		total.Skipped += stats.Skipped
	}

	_, _ = fmt.Fprintf(os.Stdout, "Ingested %d new, %d updated, %d skipped postings\n",
		total.Inserted, total.Updated, total.Skipped)
	return nil
}

func ingestFile(ctx context.Context, store *db.DB, path string, now time.Time) (ingestStats, error) {
	resp, err := ingestion.ReadSearchFile(path)
	if err != nil {
		return ingestStats{}, err
	}

	postings, skipped := resp.Postings(now)
	stats := ingestStats{Skipped: skipped}
	for i := range postings {
		inserted, err := store.UpsertPosting(ctx, &postings[i])
		if err != nil {
			return stats, err
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	slog.InfoContext(ctx, "ingested search results",
		"file", path,
		"search_id", resp.SearchMetadata.ID,
		"query", resp.SearchParameters.Query,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"skipped", stats.Skipped)
	return stats, nil
}
