// Package pdfcheck runs a client-side preflight over PDF uploads so obviously
// broken files are rejected before they consume an API job.
package pdfcheck

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfHeader = []byte("%PDF-")

// Result summarizes a successful preflight.
type Result struct {
	Pages int
}

// IsPDF reports whether data starts with the PDF file header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfHeader)
}

// Preflight validates the document structure and counts pages. Validation is
// relaxed: the API accepts slightly out-of-spec PDFs, so we only reject files
// pdfcpu cannot read at all.
func Preflight(data []byte) (*Result, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("not a PDF: missing %%PDF- header")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdf read: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("pdf validation: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	return &Result{Pages: ctx.PageCount}, nil
}
