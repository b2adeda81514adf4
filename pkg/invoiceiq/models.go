package invoiceiq

import "encoding/json"

// Job statuses reported by the API. The set is open-ended: servers may
// introduce new intermediate statuses at any time, so callers should compare
// against the terminal set rather than enumerate intermediate values.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusCanceled   = "CANCELED"
	StatusError      = "ERROR"
)

// Job is a server-tracked asynchronous unit of work (validation,
// transformation or generation). Raw holds the unmodified response body the
// Job was decoded from, for callers that need fields beyond the typed ones.
type Job struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	DownloadURL       string `json:"downloadUrl,omitempty"`
	ReportDownloadURL string `json:"reportDownloadUrl,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Address is a postal address attached to a Party.
type Address struct {
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	PostCode    string `json:"postCode,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// Party is a seller or buyer on an invoice.
type Party struct {
	Name           string   `json:"name"`
	RegistrationID string   `json:"registrationId,omitempty"`
	VATID          string   `json:"vatId,omitempty"`
	CountryCode    string   `json:"countryCode,omitempty"`
	Address        *Address `json:"address,omitempty"`
}

// LogoOptions controls logo rendering on generated invoices.
type LogoOptions struct {
	URL   string `json:"url,omitempty"`
	Width int    `json:"width,omitempty"`
	Align string `json:"align,omitempty"` // left, center or right
}

// FooterOptions controls footer rendering on generated invoices.
type FooterOptions struct {
	ExtraText       string `json:"extraText,omitempty"`
	ShowPageNumbers *bool  `json:"showPageNumbers,omitempty"`
}

// RenderingOptions customizes the visual output of invoice generation.
type RenderingOptions struct {
	Template     string         `json:"template,omitempty"`
	Font         string         `json:"font,omitempty"`
	PrimaryColor string         `json:"primaryColor,omitempty"`
	AccentColor  string         `json:"accentColor,omitempty"`
	Logo         *LogoOptions   `json:"logo,omitempty"`
	Footer       *FooterOptions `json:"footer,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Locale       string         `json:"locale,omitempty"`
}

// InvoiceLine is a single line item. TotalAmount is the tax-exclusive line
// total. NetPrice and UnitPrice are both accepted by the API; some payloads
// use one, some the other.
type InvoiceLine struct {
	ID                 string   `json:"id,omitempty"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	Quantity           float64  `json:"quantity"`
	UnitCode           string   `json:"unitCode,omitempty"` // defaults to C62 (unit)
	NetPrice           *float64 `json:"netPrice,omitempty"`
	UnitPrice          *float64 `json:"unitPrice,omitempty"`
	TaxRate            *float64 `json:"taxRate,omitempty"`
	TaxCategoryCode    string   `json:"taxCategoryCode,omitempty"` // defaults to S (standard rate)
	TaxExemptionReason string   `json:"taxExemptionReason,omitempty"`
	TotalAmount        float64  `json:"totalAmount"`
}

// TaxSummary aggregates line amounts per tax rate.
type TaxSummary struct {
	TaxRate            *float64 `json:"taxRate,omitempty"`
	BasisAmount        *float64 `json:"basisAmount,omitempty"`
	TaxableAmount      *float64 `json:"taxableAmount,omitempty"`
	TaxAmount          *float64 `json:"taxAmount,omitempty"`
	TaxCategoryCode    string   `json:"taxCategoryCode,omitempty"`
	TaxExemptionReason string   `json:"taxExemptionReason,omitempty"`
}

// TransformationMetadata carries the structured invoice data accompanying a
// PDF transformation. Monetary fields travel as JSON numbers; use
// ComputeTotals to derive them from Lines with decimal precision.
type TransformationMetadata struct {
	InvoiceNumber           string            `json:"invoiceNumber"`
	IssueDate               string            `json:"issueDate"` // YYYY-MM-DD
	Currency                string            `json:"currency,omitempty"` // defaults to EUR
	TypeCode                string            `json:"typeCode,omitempty"` // defaults to 380 (commercial invoice)
	Seller                  Party             `json:"seller"`
	Buyer                   Party             `json:"buyer"`
	Lines                   []InvoiceLine     `json:"lines,omitempty"`
	Taxes                   []TaxSummary      `json:"taxes,omitempty"`
	TaxSummaries            []TaxSummary      `json:"taxSummaries,omitempty"`
	TotalTaxExclusiveAmount float64           `json:"totalTaxExclusiveAmount"`
	TaxTotalAmount          float64           `json:"taxTotalAmount"`
	TotalTaxInclusiveAmount float64           `json:"totalTaxInclusiveAmount"`
	PurchaseOrderReference  string            `json:"purchaseOrderReference,omitempty"`
	Rendering               *RenderingOptions `json:"rendering,omitempty"`
}

// GenerationPayload is the body of an invoice generation request. It shares
// the transformation metadata schema.
type GenerationPayload = TransformationMetadata

// ValidationReport is the outcome of a document validation.
type ValidationReport struct {
	Transformation string            `json:"transformation,omitempty"`
	FinalScore     *float64          `json:"finalScore,omitempty"`
	Profile        string            `json:"profile,omitempty"`
	Issues         []ValidationIssue `json:"issues,omitempty"`
}

// ValidationIssue is a single finding in a validation report.
type ValidationIssue struct {
	Code     string `json:"code,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
	Path     string `json:"path,omitempty"`
}

// ValidationList is a page of validation jobs.
type ValidationList struct {
	Items      []Job  `json:"items"`
	Total      int    `json:"total"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for optional boolean fields.
func Bool(v bool) *bool { return &v }
