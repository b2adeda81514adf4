package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoiceiq-go/internal/extract"
	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

var (
	extractAPIKey  string
	extractBaseURL string
	extractModel   string
	extractImage   bool
	extractOutput  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Draft transformation metadata from raw invoice content using an LLM",
	Long: `Extract structured transformation metadata from invoice text (or an image
with --image) using an OpenAI-compatible model. Totals missing from the
model output are recomputed from the extracted lines.

The result is a metadata JSON file ready for 'invoiceiq transform'.

Examples:
  invoiceiq extract invoice.txt --llm-api-key $OPENROUTER_KEY -o meta.json
  invoiceiq extract scan.png --image --llm-model openai/gpt-4o`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&extractAPIKey, "llm-api-key", "", "LLM provider API key (env: LLM_API_KEY)")
	extractCmd.Flags().StringVar(&extractBaseURL, "llm-base-url", "", "LLM API base URL")
	extractCmd.Flags().StringVar(&extractModel, "llm-model", "", "Model to use")
	extractCmd.Flags().BoolVar(&extractImage, "image", false, "Treat the input as an image instead of text")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Write metadata JSON to this file instead of stdout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	key := extractAPIKey
	if key == "" {
		key = os.Getenv("LLM_API_KEY")
	}
	if key == "" {
		return fmt.Errorf("an LLM API key is required (--llm-api-key or LLM_API_KEY)")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	var clientOpts []extract.ClientOption
	if extractBaseURL != "" {
		clientOpts = append(clientOpts, extract.WithBaseURL(extractBaseURL))
	}
	client := extract.NewClient(key, clientOpts...)

	var extractorOpts []extract.ExtractorOption
	if extractModel != "" {
		extractorOpts = append(extractorOpts, extract.WithTextModel(extractModel))
		extractorOpts = append(extractorOpts, extract.WithVisionModel(extractModel))
	}
	extractor := extract.NewExtractor(client, extractorOpts...)

	meta, err := extractMetadata(cmd, extractor, data)
	if err != nil {
		return err
	}

	out := os.Stdout
	if extractOutput != "" {
		f, err := os.Create(extractOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meta)
}

func extractMetadata(cmd *cobra.Command, extractor *extract.Extractor, data []byte) (*invoiceiq.TransformationMetadata, error) {
	if extractImage {
		mimeType := detectImageMime(data)
		return extractor.FromImage(cmd.Context(), data, mimeType)
	}
	return extractor.FromText(cmd.Context(), string(data))
}

func detectImageMime(data []byte) string {
	switch {
	case len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case len(data) > 8 && string(data[1:4]) == "PNG":
		return "image/png"
	default:
		return "image/png"
	}
}
