package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoiceiq-go/internal/pdfcheck"
	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

var (
	validateWait        bool
	validateReferenceID string
	validateCallbackURL string
	validateSkipCheck   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Submit a document for validation",
	Long: `Upload a document to the validation endpoint.

PDF files are preflighted locally before upload so corrupt files are caught
without spending an API job. Use --wait to poll the validation until it is
terminal.

Examples:
  invoiceiq validate invoice.pdf
  invoiceiq validate invoice.pdf --wait --reference-id PO-1234`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var reportCmd = &cobra.Command{
	Use:   "report <validation-id>",
	Short: "Fetch the report of a completed validation",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(reportCmd)

	validateCmd.Flags().BoolVar(&validateWait, "wait", false, "Poll until the validation is terminal")
	validateCmd.Flags().StringVar(&validateReferenceID, "reference-id", "", "Caller-side reference attached to the validation")
	validateCmd.Flags().StringVar(&validateCallbackURL, "callback-url", "", "URL notified when the validation finishes")
	validateCmd.Flags().BoolVar(&validateSkipCheck, "skip-preflight", false, "Skip the local PDF preflight")
	addPollFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if !validateSkipCheck && pdfcheck.IsPDF(data) {
		result, err := pdfcheck.Preflight(data)
		if err != nil {
			return fmt.Errorf("preflight %s: %w", path, err)
		}
		printVerbose("preflight ok: %d page(s)\n", result.Pages)
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	job, err := client.ValidateDocument(cmd.Context(), bytes.NewReader(data), filepath.Base(path),
		&invoiceiq.ValidateOptions{
			IdempotencyKey: invoiceiq.NewIdempotencyKey(),
			ReferenceID:    validateReferenceID,
			CallbackURL:    validateCallbackURL,
		})
	if err != nil {
		return err
	}
	printVerbose("validation %s submitted\n", job.ID)

	if validateWait {
		job, err = client.WaitForValidation(cmd.Context(), job.ID, pollConfig())
		if err != nil {
			return err
		}
	}
	return printJob(job)
}

func runReport(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	report, err := client.GetValidationReport(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	if report.Profile != "" {
		fmt.Printf("%-12s %s\n", "Profile:", report.Profile)
	}
	if report.FinalScore != nil {
		fmt.Printf("%-12s %.2f\n", "Score:", *report.FinalScore)
	}
	for _, issue := range report.Issues {
		fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
	}
	return nil
}
