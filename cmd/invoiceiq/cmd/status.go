package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

var statusWait bool

var statusCmd = &cobra.Command{
	Use:   "status <transformation|generation|validation> <job-id>",
	Short: "Fetch the status of a job",
	Long: `Fetch the current status of a transformation, generation or validation job.

With --wait the job is polled until it reaches a terminal status.

Examples:
  invoiceiq status transformation job-42
  invoiceiq status generation job-7 --wait --poll-timeout 2m`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "Poll until the job is terminal")
	addPollFlags(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	var fetch invoiceiq.FetchFunc
	switch args[0] {
	case "transformation":
		fetch = client.GetTransformation
	case "generation":
		fetch = client.GetGeneration
	case "validation":
		fetch = client.GetValidation
	default:
		return fmt.Errorf("unknown job kind %q (want transformation, generation or validation)", args[0])
	}

	jobID := args[1]
	var job *invoiceiq.Job
	if statusWait {
		job, err = invoiceiq.WaitForJob(cmd.Context(), fetch, jobID, pollConfig())
	} else {
		job, err = fetch(cmd.Context(), jobID)
	}
	if err != nil {
		return err
	}
	return printJob(job)
}
