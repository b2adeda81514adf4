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
	transformMetadataPath string
	transformWait         bool
	transformSkipCheck    bool
	transformCheckTotals  bool
)

var transformCmd = &cobra.Command{
	Use:   "transform <file.pdf>",
	Short: "Transform a PDF into a structured e-invoice",
	Long: `Upload a PDF together with structured metadata for transformation.

The metadata file is a JSON document matching the transformation schema
(see 'invoiceiq extract' for producing one from raw invoice text).

Examples:
  invoiceiq transform invoice.pdf --metadata meta.json
  invoiceiq transform invoice.pdf --metadata meta.json --wait --poll-timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringVarP(&transformMetadataPath, "metadata", "m", "", "Path to the metadata JSON file (required)")
	transformCmd.Flags().BoolVar(&transformWait, "wait", false, "Poll until the transformation is terminal")
	transformCmd.Flags().BoolVar(&transformSkipCheck, "skip-preflight", false, "Skip the local PDF preflight")
	transformCmd.Flags().BoolVar(&transformCheckTotals, "check-totals", true, "Verify metadata totals before uploading")
	addPollFlags(transformCmd)
	_ = transformCmd.MarkFlagRequired("metadata")
}

func runTransform(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if !transformSkipCheck {
		result, err := pdfcheck.Preflight(data)
		if err != nil {
			return fmt.Errorf("preflight %s: %w", path, err)
		}
		printVerbose("preflight ok: %d page(s)\n", result.Pages)
	}

	metaData, err := os.ReadFile(transformMetadataPath)
	if err != nil {
		return err
	}
	var meta invoiceiq.TransformationMetadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return fmt.Errorf("parse metadata %s: %w", transformMetadataPath, err)
	}

	if transformCheckTotals {
		if err := invoiceiq.CheckTotals(&meta); err != nil {
			return fmt.Errorf("metadata totals: %w", err)
		}
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	job, err := client.TransformPDF(cmd.Context(), bytes.NewReader(data), filepath.Base(path), &meta,
		&invoiceiq.TransformOptions{IdempotencyKey: invoiceiq.NewIdempotencyKey()})
	if err != nil {
		return err
	}
	printVerbose("transformation %s submitted\n", job.ID)

	if transformWait {
		job, err = client.WaitForTransformation(cmd.Context(), job.ID, pollConfig())
		if err != nil {
			return err
		}
	}
	return printJob(job)
}
