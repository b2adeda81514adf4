package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoiceiq-go/internal/config"
	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configPath   string
	apiKey       string
	bearerToken  string
	baseURL      string
	timeout      time.Duration

	// Poll flags shared by the --wait commands
	pollInitial    time.Duration
	pollMultiplier float64
	pollMax        time.Duration
	pollTimeout    time.Duration

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "invoiceiq",
	Short: "Validate, transform and generate e-invoices via the InvoiceIQ API",
	Long: `invoiceiq is a CLI for the InvoiceIQ document API.

Supports:
  - Document validation with downloadable reports
  - PDF-to-e-invoice transformation (Factur-X)
  - Full invoice generation from structured JSON
  - A local sandbox server for offline development

Examples:
  # Validate a document and wait for the result
  invoiceiq validate invoice.pdf --wait

  # Transform a PDF using prepared metadata
  invoiceiq transform invoice.pdf --metadata meta.json --wait

  # Generate an invoice from a payload and download the PDF
  invoiceiq generate payload.json --wait --download out.pdf

  # Run a local sandbox API
  invoiceiq sandbox --addr :8787`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $HOME/.invoiceiq.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (env: INVOICEIQ_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "bearer-token", "", "OAuth bearer token (env: INVOICEIQ_BEARER_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (env: INVOICEIQ_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP request timeout")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	config.LoadDotenv()

	path := configPath
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := home + "/.invoiceiq.yaml"
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			cfg = config.Default()
		} else {
			cfg = loaded
		}
	} else {
		cfg = config.Default()
	}

	cfg.ApplyEnv()

	// Flags win over config file and environment.
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if bearerToken != "" {
		cfg.BearerToken = bearerToken
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
}

// addPollFlags registers the polling flags on commands that support --wait.
func addPollFlags(c *cobra.Command) {
	c.Flags().DurationVar(&pollInitial, "poll-initial", 0, "Initial delay between status fetches")
	c.Flags().Float64Var(&pollMultiplier, "poll-multiplier", 0, "Backoff multiplier between status fetches")
	c.Flags().DurationVar(&pollMax, "poll-max", 0, "Maximum delay between status fetches")
	c.Flags().DurationVar(&pollTimeout, "poll-timeout", 0, "Total polling budget")
}

func newAPIClient() (*invoiceiq.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []invoiceiq.ClientOption{
		invoiceiq.WithBaseURL(cfg.BaseURL),
		invoiceiq.WithTimeout(cfg.Timeout),
	}
	if cfg.BearerToken != "" {
		opts = append(opts, invoiceiq.WithBearerToken(cfg.BearerToken))
	}
	return invoiceiq.NewClient(cfg.APIKey, opts...), nil
}

func pollConfig() invoiceiq.PollConfig {
	pc := invoiceiq.PollConfig{
		InitialDelay: cfg.Poll.InitialDelay,
		Multiplier:   cfg.Poll.Multiplier,
		MaxDelay:     cfg.Poll.MaxDelay,
		Timeout:      cfg.Poll.Timeout,
	}
	if pollInitial > 0 {
		pc.InitialDelay = pollInitial
	}
	if pollMultiplier > 1 {
		pc.Multiplier = pollMultiplier
	}
	if pollMax > 0 {
		pc.MaxDelay = pollMax
	}
	if pollTimeout > 0 {
		pc.Timeout = pollTimeout
	}
	return pc
}

func printJob(job *invoiceiq.Job) error {
	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(job)
	}

	fmt.Printf("%-12s %s\n", "ID:", job.ID)
	fmt.Printf("%-12s %s\n", "Status:", job.Status)
	if job.DownloadURL != "" {
		fmt.Printf("%-12s %s\n", "Download:", job.DownloadURL)
	}
	if job.ReportDownloadURL != "" {
		fmt.Printf("%-12s %s\n", "Report:", job.ReportDownloadURL)
	}
	return nil
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
