package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rezonia/invoiceiq-go/internal/logging"
	"github.com/rezonia/invoiceiq-go/internal/sandbox"
)

var (
	sandboxAddr          string
	sandboxAPIKey        string
	sandboxCompleteAfter int
	sandboxLogFormat     string
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run a local in-memory InvoiceIQ API for offline development",
	Long: `Start a local API server that mimics the InvoiceIQ endpoints. Jobs
advance to COMPLETED after a configurable number of status fetches, so SDK
polling can be exercised without network access or an API key.

Examples:
  invoiceiq sandbox --addr :8787
  invoiceiq sandbox --addr :8787 --require-api-key dev-key --complete-after 5

  # Point the CLI at it
  invoiceiq --base-url http://localhost:8787 validate invoice.pdf --wait`,
	RunE: runSandbox,
}

func init() {
	rootCmd.AddCommand(sandboxCmd)

	sandboxCmd.Flags().StringVar(&sandboxAddr, "addr", ":8787", "Listen address")
	sandboxCmd.Flags().StringVar(&sandboxAPIKey, "require-api-key", "", "Require this X-API-KEY on requests")
	sandboxCmd.Flags().IntVar(&sandboxCompleteAfter, "complete-after", 2, "Status fetches before a job completes")
	sandboxCmd.Flags().StringVar(&sandboxLogFormat, "log-format", "console", "Log format (console, json)")
}

func runSandbox(cmd *cobra.Command, args []string) error {
	level := "info"
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, sandboxLogFormat)

	srv := sandbox.NewServer(&sandbox.Config{
		Address:       sandboxAddr,
		APIKey:        sandboxAPIKey,
		CompleteAfter: sandboxCompleteAfter,
		Logger:        logger,
		Debug:         verbose,
	})
	return srv.Run()
}
