package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

// Extractor turns unstructured invoice content into TransformationMetadata.
type Extractor struct {
	client      *Client
	textModel   string
	visionModel string
}

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithTextModel sets the model used for text extraction
func WithTextModel(model string) ExtractorOption {
	return func(e *Extractor) {
		e.textModel = model
	}
}

// WithVisionModel sets the model used for image extraction
func WithVisionModel(model string) ExtractorOption {
	return func(e *Extractor) {
		e.visionModel = model
	}
}

// NewExtractor creates an extractor backed by the given client
func NewExtractor(client *Client, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:      client,
		textModel:   ModelClaude35Sonnet,
		visionModel: ModelGPT4o,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromText extracts metadata from plain invoice text.
func (e *Extractor) FromText(ctx context.Context, text string) (*invoiceiq.TransformationMetadata, error) {
	prompt := fmt.Sprintf(UserPromptTextExtraction, text)
	resp, err := e.client.ChatText(ctx, e.textModel, SystemPromptMetadataExtractor, prompt)
	if err != nil {
		return nil, fmt.Errorf("text extraction: %w", err)
	}
	return parseMetadata(resp)
}

// FromImage extracts metadata from a scanned invoice image.
func (e *Extractor) FromImage(ctx context.Context, imageData []byte, mimeType string) (*invoiceiq.TransformationMetadata, error) {
	resp, err := e.client.ChatWithImage(ctx, e.visionModel, SystemPromptMetadataExtractor, UserPromptImageExtraction, imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("image extraction: %w", err)
	}
	return parseMetadata(resp)
}

func parseMetadata(response string) (*invoiceiq.TransformationMetadata, error) {
	raw := ExtractJSON(response)

	var meta invoiceiq.TransformationMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("parse extracted metadata: %w", err)
	}
	if meta.InvoiceNumber == "" {
		return nil, fmt.Errorf("extracted metadata has no invoice number")
	}

	// Models frequently omit or miscalculate totals; rebuild them from the
	// lines whenever totals are missing.
	if meta.TotalTaxInclusiveAmount == 0 && len(meta.Lines) > 0 {
		invoiceiq.ComputeTotals(&meta)
	}

	return &meta, nil
}
