package invoiceiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.invoiceiq.fr"
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
)

const userAgent = "invoiceiq-go/1.0"

// Client talks to the InvoiceIQ API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// authTransport wraps an http.RoundTripper to attach auth and agent headers
// to every request.
type authTransport struct {
	base      http.RoundTripper
	apiKey    string
	bearer    string
	userAgent string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.apiKey != "" {
		req.Header.Set("X-API-KEY", t.apiKey)
	}
	if t.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+t.bearer)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	bearer     string
	timeout    time.Duration
	timeoutSet bool
	httpClient *http.Client
	userAgent  string
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(u string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseURL = u
	}
}

// WithBearerToken authenticates with an OAuth bearer token instead of, or in
// addition to, an API key.
func WithBearerToken(token string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.bearer = token
	}
}

// WithTimeout sets a custom HTTP timeout. It takes precedence over the
// Timeout of a client supplied via WithHTTPClient.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
		cfg.timeoutSet = true
	}
}

// WithHTTPClient supplies a custom http.Client. Its transport is wrapped to
// inject auth headers; the client itself is not mutated.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.userAgent = ua
	}
}

// NewClient creates an API client. apiKey may be empty for endpoints that
// accept unauthenticated calls, or when WithBearerToken is used.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hc := &http.Client{Timeout: cfg.timeout}
	var base http.RoundTripper
	if cfg.httpClient != nil {
		copied := *cfg.httpClient
		hc = &copied
		base = cfg.httpClient.Transport
		if cfg.timeoutSet {
			hc.Timeout = cfg.timeout
		}
	}
	hc.Transport = &authTransport{
		base:      base,
		apiKey:    apiKey,
		bearer:    cfg.bearer,
		userAgent: cfg.userAgent,
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.baseURL, "/"),
		httpClient: hc,
	}
}

// NewIdempotencyKey returns a fresh key for the Idempotency-Key header.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

// ValidateOptions are the optional fields of a validation submission.
type ValidateOptions struct {
	IdempotencyKey string
	CallbackURL    string
	ReferenceID    string
}

// TransformOptions are the optional fields of a transformation submission.
type TransformOptions struct {
	IdempotencyKey string
}

// GenerateOptions are the optional fields of a generation submission.
type GenerateOptions struct {
	IdempotencyKey string
}

// ListOptions filter and paginate ListValidations.
type ListOptions struct {
	Status string
	Limit  int
	Cursor string
}

// ValidateDocument uploads a document for validation and returns the created
// job handle.
func (c *Client) ValidateDocument(ctx context.Context, file io.Reader, filename string, opts *ValidateOptions) (*Job, error) {
	fields := map[string]string{}
	var header http.Header
	if opts != nil {
		if opts.CallbackURL != "" {
			fields["callbackUrl"] = opts.CallbackURL
		}
		if opts.ReferenceID != "" {
			fields["referenceId"] = opts.ReferenceID
		}
		if opts.IdempotencyKey != "" {
			header = http.Header{"Idempotency-Key": []string{opts.IdempotencyKey}}
		}
	}

	body, err := c.postMultipart(ctx, "/v1/validations", file, filename, fields, header)
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// GetValidation fetches the current snapshot of a validation job.
func (c *Client) GetValidation(ctx context.Context, validationID string) (*Job, error) {
	body, err := c.get(ctx, "/v1/validations/"+url.PathEscape(validationID))
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// GetValidationReport fetches the report of a completed validation.
func (c *Client) GetValidationReport(ctx context.Context, validationID string) (*ValidationReport, error) {
	body, err := c.get(ctx, "/v1/validations/"+url.PathEscape(validationID)+"/report")
	if err != nil {
		return nil, err
	}
	var report ValidationReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode validation report: %w", err)
	}
	return &report, nil
}

// ListValidations returns a page of validation jobs.
func (c *Client) ListValidations(ctx context.Context, opts *ListOptions) (*ValidationList, error) {
	q := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			q.Set("status", opts.Status)
		}
		if opts.Limit > 0 {
			q.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Cursor != "" {
			q.Set("cursor", opts.Cursor)
		}
	}
	path := "/v1/validations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var list ValidationList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode validation list: %w", err)
	}
	return &list, nil
}

// TransformPDF uploads a PDF and its structured metadata for transformation
// into an e-invoice. The metadata travels as a JSON string form field.
func (c *Client) TransformPDF(ctx context.Context, file io.Reader, filename string, meta *TransformationMetadata, opts *TransformOptions) (*Job, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	var header http.Header
	if opts != nil && opts.IdempotencyKey != "" {
		header = http.Header{"Idempotency-Key": []string{opts.IdempotencyKey}}
	}

	fields := map[string]string{"metadata": string(metaJSON)}
	body, err := c.postMultipart(ctx, "/api/v1/transformations", file, filename, fields, header)
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// GetTransformation fetches the current snapshot of a transformation job.
func (c *Client) GetTransformation(ctx context.Context, jobID string) (*Job, error) {
	body, err := c.get(ctx, "/api/v1/transformations/"+url.PathEscape(jobID))
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// GenerateInvoice submits a structured payload for full invoice generation.
func (c *Client) GenerateInvoice(ctx context.Context, payload *GenerationPayload, opts *GenerateOptions) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/generations", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if opts != nil && opts.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.IdempotencyKey)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// GetGeneration fetches the current snapshot of a generation job.
func (c *Client) GetGeneration(ctx context.Context, jobID string) (*Job, error) {
	body, err := c.get(ctx, "/api/v1/generations/"+url.PathEscape(jobID))
	if err != nil {
		return nil, err
	}
	return decodeJob(body)
}

// DownloadResult fetches the output document of a completed job.
func (c *Client) DownloadResult(ctx context.Context, job *Job) ([]byte, error) {
	if job == nil || job.DownloadURL == "" {
		return nil, fmt.Errorf("job has no download URL")
	}

	u := job.DownloadURL
	if strings.HasPrefix(u, "/") {
		u = c.baseURL + u
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) postMultipart(ctx context.Context, path string, file io.Reader, filename string, fields map[string]string, header http.Header) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart file field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write multipart field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// do executes the request and returns the response body, mapping any
// status >= 400 to *APIError. Transport errors are returned unmodified and
// never retried here.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeJob(body []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	job.Raw = json.RawMessage(bytes.Clone(body))
	return &job, nil
}
