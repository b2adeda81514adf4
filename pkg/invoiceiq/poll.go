package invoiceiq

import (
	"context"
	"strings"
	"time"
)

// Polling defaults applied for unset PollConfig fields.
const (
	DefaultPollInitialDelay = 1 * time.Second
	DefaultPollMultiplier   = 2.0
	DefaultPollMaxDelay     = 30 * time.Second
	DefaultPollTimeout      = 120 * time.Second
)

// DefaultTerminalStatuses returns the statuses after which no further state
// change is expected from the server.
func DefaultTerminalStatuses() []string {
	return []string{StatusCompleted, StatusFailed, StatusCanceled, StatusError}
}

// FetchFunc retrieves the current snapshot of a job. Client.GetTransformation,
// Client.GetGeneration and Client.GetValidation satisfy this signature.
type FetchFunc func(ctx context.Context, jobID string) (*Job, error)

// PollConfig controls WaitForJob. The zero value polls every 1s doubling up
// to 30s, for at most 120s, until one of the default terminal statuses.
type PollConfig struct {
	// InitialDelay is the wait after the first non-terminal fetch.
	InitialDelay time.Duration
	// Multiplier grows the delay between consecutive iterations. A
	// multiplier of exactly 1 polls at a constant interval.
	Multiplier float64
	// MaxDelay caps the grown delay.
	MaxDelay time.Duration
	// Timeout bounds the total wall-clock time spent polling.
	Timeout time.Duration
	// TerminalStatuses are compared case-insensitively against Job.Status.
	TerminalStatuses []string
}

func (c PollConfig) withDefaults() PollConfig {
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultPollInitialDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = DefaultPollMultiplier
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultPollMaxDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultPollTimeout
	}
	if len(c.TerminalStatuses) == 0 {
		c.TerminalStatuses = DefaultTerminalStatuses()
	}
	return c
}

func (c PollConfig) isTerminal(status string) bool {
	for _, s := range c.TerminalStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

// WaitForJob repeatedly fetches the job until it reaches a terminal status or
// the polling budget runs out.
//
// The first fetch happens immediately, with no initial sleep. A job whose
// status is in the terminal set is returned as-is, including FAILED and
// CANCELED: this layer does not interpret terminal statuses, that is the
// caller's responsibility. Any status outside the terminal set is treated
// uniformly as still pending.
//
// After a non-terminal fetch the poller sleeps for the current delay, then
// multiplies the delay by the configured multiplier, clamped at MaxDelay.
// The timeout is checked both before every fetch after the first and after
// every non-terminal fetch: once elapsed time reaches the timeout a
// *TimeoutError is returned without a further fetch or sleep.
//
// Errors from fetch propagate unmodified after no further calls or sleeps;
// transport retry policy belongs to the transport, not here. Cancelling ctx
// during a wait aborts promptly with ctx.Err().
func WaitForJob(ctx context.Context, fetch FetchFunc, jobID string, cfg PollConfig) (*Job, error) {
	cfg = cfg.withDefaults()

	start := time.Now()
	delay := cfg.InitialDelay
	attempts := 0

	for {
		if attempts > 0 && time.Since(start) >= cfg.Timeout {
			return nil, &TimeoutError{JobID: jobID, Timeout: cfg.Timeout, Attempts: attempts}
		}

		job, err := fetch(ctx, jobID)
		attempts++
		if err != nil {
			return nil, err
		}
		if cfg.isTerminal(job.Status) {
			return job, nil
		}

		if time.Since(start) >= cfg.Timeout {
			return nil, &TimeoutError{JobID: jobID, Timeout: cfg.Timeout, Attempts: attempts}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// WaitForTransformation polls a transformation job until it is terminal.
func (c *Client) WaitForTransformation(ctx context.Context, jobID string, cfg PollConfig) (*Job, error) {
	return WaitForJob(ctx, c.GetTransformation, jobID, cfg)
}

// WaitForGeneration polls a generation job until it is terminal.
func (c *Client) WaitForGeneration(ctx context.Context, jobID string, cfg PollConfig) (*Job, error) {
	return WaitForJob(ctx, c.GetGeneration, jobID, cfg)
}

// WaitForValidation polls a validation job until it is terminal.
func (c *Client) WaitForValidation(ctx context.Context, jobID string, cfg PollConfig) (*Job, error) {
	return WaitForJob(ctx, c.GetValidation, jobID, cfg)
}
