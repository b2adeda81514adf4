package sandbox_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoiceiq-go/internal/sandbox"
	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

func newTestServer(completeAfter int) *sandbox.Server {
	return sandbox.NewServer(&sandbox.Config{
		Address:       ":0",
		CompleteAfter: completeAfter,
		Debug:         true,
	})
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "doc.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(2)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestCreateValidation_FileRequired(t *testing.T) {
	srv := newTestServer(2)

	req := httptest.NewRequest(http.MethodPost, "/v1/validations", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateValidation_AndProgression(t *testing.T) {
	srv := newTestServer(2)

	body, contentType := multipartBody(t, map[string]string{"referenceId": "R1"})
	req := httptest.NewRequest(http.MethodPost, "/v1/validations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)
	assert.Equal(t, invoiceiq.StatusPending, created["status"])

	// First poll: processing. Second poll: completed with download URLs.
	statuses := []string{invoiceiq.StatusProcessing, invoiceiq.StatusCompleted}
	for _, want := range statuses {
		req = httptest.NewRequest(http.MethodGet, "/v1/validations/"+id, nil)
		w = httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var job map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
		assert.Equal(t, want, job["status"])
	}

	// Completed: report is served.
	req = httptest.NewRequest(http.MethodGet, "/v1/validations/"+id+"/report", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var report invoiceiq.ValidationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "EN16931", report.Profile)
}

func TestValidationReport_BeforeCompletion(t *testing.T) {
	srv := newTestServer(5)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/validations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodGet, "/v1/validations/"+created["id"].(string)+"/report", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateTransformation_MetadataRequired(t *testing.T) {
	srv := newTestServer(2)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transformations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTransformation_BadMetadataJSON(t *testing.T) {
	srv := newTestServer(2)

	body, contentType := multipartBody(t, map[string]string{"metadata": "{not json"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transformations", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotencyKeyDeduplicates(t *testing.T) {
	srv := newTestServer(2)

	submit := func() (int, string) {
		body, contentType := multipartBody(t, map[string]string{"metadata": `{"invoiceNumber":"INV-1","issueDate":"2024-02-22","seller":{"name":"S"},"buyer":{"name":"B"},"totalTaxExclusiveAmount":100,"taxTotalAmount":20,"totalTaxInclusiveAmount":120}`})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transformations", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Idempotency-Key", "same-key")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		var job map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
		return w.Code, job["id"].(string)
	}

	code1, id1 := submit()
	code2, id2 := submit()

	assert.Equal(t, http.StatusAccepted, code1)
	assert.Equal(t, http.StatusOK, code2)
	assert.Equal(t, id1, id2)
}

func TestConcurrentResubmitAndPoll(t *testing.T) {
	srv := newTestServer(3)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/validations", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Idempotency-Key", "race-key")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"].(string)

	// Resubmits with the same key race against status polls that advance the
	// record. Every response must be an internally consistent snapshot.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		body, contentType := multipartBody(t, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/v1/validations", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Idempotency-Key", "race-key")
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)

			var job map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
			assert.Equal(t, id, job["id"])
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/v1/validations/"+id, nil)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()
}

func TestAPIKeyMiddleware(t *testing.T) {
	srv := sandbox.NewServer(&sandbox.Config{
		Address: ":0",
		APIKey:  "sandbox-key",
		Debug:   true,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/validations", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/validations", nil)
	req.Header.Set("X-API-KEY", "sandbox-key")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownJob_NotFound(t *testing.T) {
	srv := newTestServer(2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transformations/nope", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// End to end: the real SDK client submits a generation to the sandbox and
// polls it to completion.
func TestSDKAgainstSandbox(t *testing.T) {
	srv := newTestServer(3)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := invoiceiq.NewClient("", invoiceiq.WithBaseURL(ts.URL))

	payload := &invoiceiq.GenerationPayload{
		InvoiceNumber:           "INV-2024-42",
		IssueDate:               "2024-02-22",
		Seller:                  invoiceiq.Party{Name: "Seller", CountryCode: "FR"},
		Buyer:                   invoiceiq.Party{Name: "Buyer", CountryCode: "FR"},
		TotalTaxExclusiveAmount: 100,
		TaxTotalAmount:          20,
		TotalTaxInclusiveAmount: 120,
	}

	job, err := client.GenerateInvoice(context.Background(), payload, &invoiceiq.GenerateOptions{
		IdempotencyKey: invoiceiq.NewIdempotencyKey(),
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceiq.StatusPending, job.Status)

	final, err := client.WaitForGeneration(context.Background(), job.ID, invoiceiq.PollConfig{
		InitialDelay: 5 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     20 * time.Millisecond,
		Timeout:      2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, invoiceiq.StatusCompleted, final.Status)
	assert.NotEmpty(t, final.DownloadURL)

	data, err := client.DownloadResult(context.Background(), final)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF-1.4")
}
