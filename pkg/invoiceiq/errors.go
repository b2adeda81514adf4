package invoiceiq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPollTimeout matches any *TimeoutError via errors.Is.
var ErrPollTimeout = errors.New("invoiceiq: poll timeout")

// APIError is returned for any response with status >= 400. Message is
// extracted from the JSON "message" or "error" field when present, otherwise
// it carries the raw body text.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("invoiceiq: HTTP %d: %s", e.StatusCode, e.Message)
}

func newAPIError(statusCode int, body []byte) *APIError {
	msg := string(body)
	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			msg = payload.Message
		} else if payload.Err != "" {
			msg = payload.Err
		}
	}
	return &APIError{StatusCode: statusCode, Message: msg, Body: body}
}

// TimeoutError is returned by WaitForJob when the polling budget is exhausted
// before the job reaches a terminal status. Attempts counts status fetches
// actually performed.
type TimeoutError struct {
	JobID    string
	Timeout  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("invoiceiq: timed out after %s waiting for job %s (%d status fetches)",
		e.Timeout, e.JobID, e.Attempts)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrPollTimeout }
