// Package main provides the entry point for the job elevator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_elevator",
	Short: "Turn raw job postings into graded, structured job descriptions",
	Long: `Job Elevator extracts a structured description from each stored job posting with an LLM,
grades the extraction with a second LLM call, and retries with the grader's feedback until
the extraction is good enough or the attempt budget runs out.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
