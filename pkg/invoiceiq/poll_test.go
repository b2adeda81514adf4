package invoiceiq_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

// fakeFetcher returns canned statuses in order, repeating the last one, and
// records the wall-clock time of every call.
type fakeFetcher struct {
	mu       sync.Mutex
	statuses []string
	err      error
	errAt    int // 1-indexed call at which err is returned; 0 = never
	calls    int
	times    []time.Time
}

func (f *fakeFetcher) fetch(_ context.Context, jobID string) (*invoiceiq.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.times = append(f.times, time.Now())
	if f.errAt > 0 && f.calls >= f.errAt {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return &invoiceiq.Job{ID: jobID, Status: f.statuses[idx]}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastPollConfig() invoiceiq.PollConfig {
	return invoiceiq.PollConfig{
		InitialDelay: 10 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     50 * time.Millisecond,
		Timeout:      100 * time.Millisecond,
	}
}

func TestWaitForJob_TerminalOnFirstFetch(t *testing.T) {
	f := &fakeFetcher{statuses: []string{invoiceiq.StatusCompleted}}

	start := time.Now()
	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", fastPollConfig())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, invoiceiq.StatusCompleted, job.Status)
	assert.Equal(t, 1, f.callCount())
	// No initial sleep: the call must return well under the first delay.
	assert.Less(t, elapsed, 10*time.Millisecond)
}

func TestWaitForJob_FailedIsTerminalToo(t *testing.T) {
	f := &fakeFetcher{statuses: []string{invoiceiq.StatusFailed}}

	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", fastPollConfig())

	require.NoError(t, err)
	assert.Equal(t, invoiceiq.StatusFailed, job.Status)
	assert.Equal(t, 1, f.callCount())
}

func TestWaitForJob_TerminalMatchIsCaseInsensitive(t *testing.T) {
	f := &fakeFetcher{statuses: []string{"completed"}}

	cfg := fastPollConfig()
	cfg.TerminalStatuses = []string{"COMPLETED"}
	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", cfg)

	require.NoError(t, err)
	assert.Equal(t, "completed", job.Status)
}

func TestWaitForJob_CompletesAfterBackoff(t *testing.T) {
	// Scaled version of: initial=1, multiplier=2, max=5, timeout=10,
	// statuses pending,pending,pending,completed.
	f := &fakeFetcher{statuses: []string{
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusCompleted,
	}}

	cfg := fastPollConfig()
	cfg.Timeout = 500 * time.Millisecond

	start := time.Now()
	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", cfg)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, invoiceiq.StatusCompleted, job.Status)
	assert.Equal(t, 4, f.callCount())
	// Sleeps of ~10ms, ~20ms, ~40ms: total ~70ms, well under the timeout.
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestWaitForJob_BackoffGrowthIsClampedAndNonDecreasing(t *testing.T) {
	f := &fakeFetcher{statuses: []string{
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusCompleted,
	}}

	cfg := invoiceiq.PollConfig{
		InitialDelay: 5 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     20 * time.Millisecond,
		Timeout:      time.Second,
	}
	_, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", cfg)
	require.NoError(t, err)
	require.Equal(t, 6, f.callCount())

	// Gaps between consecutive fetches approximate the applied delays:
	// 5, 10, 20, 20, 20 ms.
	const slack = 15 * time.Millisecond
	var prev time.Duration
	for i := 1; i < len(f.times); i++ {
		gap := f.times[i].Sub(f.times[i-1])
		assert.Less(t, gap, cfg.MaxDelay+slack, "gap %d exceeds clamp", i)
		if prev > 0 {
			// Non-decreasing up to scheduling jitter, and at most doubled.
			assert.GreaterOrEqual(t, gap+slack, prev, "gap %d shrank", i)
			assert.LessOrEqual(t, gap, 2*prev+slack, "gap %d grew faster than multiplier", i)
		}
		prev = gap
	}
}

func TestWaitForJob_MultiplierOfOnePollsAtConstantInterval(t *testing.T) {
	f := &fakeFetcher{statuses: []string{
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusPending,
		invoiceiq.StatusCompleted,
	}}

	cfg := invoiceiq.PollConfig{
		InitialDelay: 20 * time.Millisecond,
		Multiplier:   1,
		MaxDelay:     200 * time.Millisecond,
		Timeout:      time.Second,
	}
	_, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", cfg)
	require.NoError(t, err)
	require.Equal(t, 4, f.callCount())

	// Every gap stays at the initial delay; in particular none doubles.
	const slack = 15 * time.Millisecond
	for i := 1; i < len(f.times); i++ {
		gap := f.times[i].Sub(f.times[i-1])
		assert.GreaterOrEqual(t, gap, cfg.InitialDelay, "gap %d below the configured interval", i)
		assert.Less(t, gap, cfg.InitialDelay+slack, "gap %d grew despite multiplier 1", i)
	}
}

func TestWaitForJob_TimesOutWhenNeverTerminal(t *testing.T) {
	f := &fakeFetcher{statuses: []string{invoiceiq.StatusProcessing}}

	cfg := fastPollConfig()
	start := time.Now()
	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, job)
	assert.True(t, errors.Is(err, invoiceiq.ErrPollTimeout))

	var te *invoiceiq.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "job-1", te.JobID)
	assert.Equal(t, cfg.Timeout, te.Timeout)
	assert.Equal(t, f.callCount(), te.Attempts)

	// All fetches happened while elapsed time was under the timeout, and the
	// total call count is bounded by timeout / initial delay.
	for _, tm := range f.times {
		assert.Less(t, tm.Sub(start), cfg.Timeout)
	}
	assert.LessOrEqual(t, f.callCount(), int(cfg.Timeout/cfg.InitialDelay)+1)
	// The poller stops without sleeping past the budget by much.
	assert.Less(t, elapsed, cfg.Timeout+cfg.MaxDelay+20*time.Millisecond)
}

func TestWaitForJob_FetchErrorPropagatesUnmodified(t *testing.T) {
	boom := errors.New("connection reset")
	f := &fakeFetcher{
		statuses: []string{invoiceiq.StatusPending},
		err:      boom,
		errAt:    3,
	}

	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", fastPollConfig())

	assert.Nil(t, job)
	assert.Same(t, boom, err)
	assert.Equal(t, 3, f.callCount())
}

func TestWaitForJob_FetchErrorOnFirstCall(t *testing.T) {
	boom := errors.New("dns failure")
	f := &fakeFetcher{err: boom, errAt: 1}

	start := time.Now()
	_, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", fastPollConfig())

	assert.Same(t, boom, err)
	assert.Equal(t, 1, f.callCount())
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestWaitForJob_ContextCancellationAbortsWait(t *testing.T) {
	f := &fakeFetcher{statuses: []string{invoiceiq.StatusPending}}

	cfg := invoiceiq.PollConfig{
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     time.Second,
		Timeout:      10 * time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	job, err := invoiceiq.WaitForJob(ctx, f.fetch, "job-1", cfg)

	assert.Nil(t, job)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.callCount())
	// Cancelled promptly, long before the 500ms delay would elapse.
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestWaitForJob_ZeroConfigUsesDefaults(t *testing.T) {
	// With an immediately terminal job the defaults never sleep, so the zero
	// config is exercised without waiting out the real default delays.
	f := &fakeFetcher{statuses: []string{invoiceiq.StatusCanceled}}

	job, err := invoiceiq.WaitForJob(context.Background(), f.fetch, "job-1", invoiceiq.PollConfig{})

	require.NoError(t, err)
	assert.Equal(t, invoiceiq.StatusCanceled, job.Status)
	assert.Equal(t, 1, f.callCount())
}

func TestDefaultTerminalStatuses(t *testing.T) {
	terminal := invoiceiq.DefaultTerminalStatuses()
	assert.ElementsMatch(t, []string{
		invoiceiq.StatusCompleted,
		invoiceiq.StatusFailed,
		invoiceiq.StatusCanceled,
		invoiceiq.StatusError,
	}, terminal)
}
