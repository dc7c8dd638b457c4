package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/job-elevator/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postings and results tables",
	RunE:  runMigrate,
}

var migratePrint bool

func init() {
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "Print the schema instead of applying it")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migratePrint {
		_, _ = fmt.Fprint(os.Stdout, db.Schema())
		return nil
	}

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

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, "Schema is up to date")
	return nil
}
