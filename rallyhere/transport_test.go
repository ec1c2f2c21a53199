package rallyhere

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested delays without waiting
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.delays = append(f.delays, d)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fakeSleeper) Delays() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

func fixedRandom(r float64) func() float64 {
	return func() float64 { return r }
}

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 60 * time.Second, Jitter: DefaultJitter}
}

// rateLimitedServer answers 429 for the first n requests, then 200
func rateLimitedServer(t *testing.T, n int32, header http.Header) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= n {
			for k, vs := range header {
				for _, v := range vs {
					w.Header().Add(k, v)
				}
			}
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		attempt int
		r       float64
		want    time.Duration
	}{
		{attempt: 0, r: 0.5, want: time.Second},
		{attempt: 1, r: 0.5, want: 2 * time.Second},
		{attempt: 2, r: 0.5, want: 4 * time.Second},
		{attempt: 0, r: 0, want: 800 * time.Millisecond},
		{attempt: 10, r: 0.5, want: 60 * time.Second},
		{attempt: 10, r: 0, want: 48 * time.Second},
	}
	for _, tt := range tests {
		assert.InDelta(t, float64(tt.want), float64(p.NextDelay(tt.attempt, tt.r)), float64(time.Microsecond),
			"attempt %d r %v", tt.attempt, tt.r)
	}

	for attempt := range 8 {
		lo, hi := p.Bounds(attempt)
		for _, r := range []float64{0, 0.1, 0.5, 0.9, 0.999999} {
			d := p.NextDelay(attempt, r)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	d, ok := retryAfter(http.Header{"Retry-After": {"7"}}, now)
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, d)

	date := now.Add(30 * time.Second).Format(http.TimeFormat)
	d, ok = retryAfter(http.Header{"Retry-After": {date}}, now)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = retryAfter(http.Header{"Retry-After": {"soon"}}, now)
	assert.False(t, ok)
	_, ok = retryAfter(http.Header{}, now)
	assert.False(t, ok)
}

func TestTransportRetriesRateLimits(t *testing.T) {
	srv, calls := rateLimitedServer(t, 2, nil)
	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleeper.Sleep), WithRandom(fixedRandom(0.5)))

	resp, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/match/v1/player/u1/stats"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.Delays())
}

func TestTransportBackoffWithinBounds(t *testing.T) {
	policy := testPolicy()
	for _, r := range []float64{0, 0.25, 0.75, 0.99} {
		srv, _ := rateLimitedServer(t, 3, nil)
		sleeper := &fakeSleeper{}
		tr := NewTransport(policy, 0, zerolog.Nop(), WithSleeper(sleeper.Sleep), WithRandom(fixedRandom(r)))

		_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
		require.NoError(t, err)

		delays := sleeper.Delays()
		require.Len(t, delays, 3)
		for attempt, d := range delays {
			lo, hi := policy.Bounds(attempt)
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestTransportHonorsRetryAfter(t *testing.T) {
	srv, _ := rateLimitedServer(t, 1, http.Header{"Retry-After": {"7"}})
	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleeper.Sleep), WithRandom(fixedRandom(0.99)))

	_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, sleeper.Delays())
}

func TestTransportHonorsRetryAfterDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	srv, _ := rateLimitedServer(t, 1, http.Header{"Retry-After": {now.Add(90 * time.Second).Format(http.TimeFormat)}})
	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(),
		WithSleeper(sleeper.Sleep),
		WithClock(func() time.Time { return now }),
	)

	_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{90 * time.Second}, sleeper.Delays())
}

func TestTransportRateLimitExhausted(t *testing.T) {
	srv, calls := rateLimitedServer(t, 100, nil)
	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleeper.Sleep), WithRandom(fixedRandom(0.5)))

	_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/rank/v2/player/u1/rank"})
	require.Error(t, err)

	var rle *RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 4, rle.Attempts)
	assert.Equal(t, "/rank/v2/player/u1/rank", rle.Endpoint)
	require.NotNil(t, rle.LastResponse)
	assert.Equal(t, http.StatusTooManyRequests, rle.LastResponse.StatusCode)
	assert.Contains(t, string(rle.LastResponse.Body), "slow down")

	assert.Equal(t, int32(4), calls.Load())
	assert.Len(t, sleeper.Delays(), 3)
}

func TestTransportNetworkErrorsExhausted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleeper.Sleep))

	_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: url + "/users/v1/player"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 4, te.Attempts)
	assert.Zero(t, te.StatusCode)
	assert.Error(t, te.Err)
	assert.Len(t, sleeper.Delays(), 3)
}

func TestTransportInvalidRequestNotRetried(t *testing.T) {
	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleeper.Sleep))

	_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: "http://example.invalid/users/%zz"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 1, te.Attempts)
	assert.Zero(t, te.StatusCode)
	assert.Empty(t, sleeper.Delays())
}

func TestTransportNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such player"))
	}))
	defer srv.Close()

	sleeper := &fakeSleeper{}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleeper.Sleep))

	_, err := tr.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/users/v1/platform-user"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.IsNotFound())
	assert.False(t, te.IsUnauthorized())
	assert.Equal(t, "no such player", te.Body)
	assert.Equal(t, 1, te.Attempts)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, sleeper.Delays())
}

func TestTransportCancelledDuringBackoff(t *testing.T) {
	srv, calls := rateLimitedServer(t, 100, nil)
	ctx, cancel := context.WithCancel(context.Background())

	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	tr := NewTransport(testPolicy(), 0, zerolog.Nop(), WithSleeper(sleep))

	_, err := tr.Execute(ctx, Request{Method: http.MethodGet, URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTransportSendsHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr := NewTransport(testPolicy(), 0, zerolog.Nop())
	resp, err := tr.Execute(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   []byte(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
