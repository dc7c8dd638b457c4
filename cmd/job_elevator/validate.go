package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/job-elevator/internal/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against a built-in schema",
	Long: fmt.Sprintf(`Validates a JSON document against one of the embedded schemas (%s),
or against a schema file given with --schema-file.`, strings.Join(schemas.Names(), ", ")),
	RunE: runValidate,
}

var (
	validateSchema     string
	validateSchemaFile string
	validateFile       string
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", schemas.StructuredJob, "Name of an embedded schema")
	validateCmd.Flags().StringVar(&validateSchemaFile, "schema-file", "", "Path to a schema file (overrides --schema)")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Path to the JSON file to validate (required)")
	_ = validateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	var err error
	if validateSchemaFile != "" {
		err = schemas.ValidateJSON(validateSchemaFile, validateFile)
	} else {
		err = schemas.ValidateFile(validateSchema, validateFile)
	}

	var verr *schemas.ValidationError
	if errors.As(err, &verr) {
		_, _ = fmt.Fprintf(os.Stderr, "%s is invalid:\n", validateFile)
		for _, fe := range verr.Errors {
			_, _ = fmt.Fprintf(os.Stderr, "  - %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(verr.Errors))
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s is valid\n", validateFile)
	return nil
}
