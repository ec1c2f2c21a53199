package rallyhere

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Request is one HTTP exchange to perform.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs HTTP requests, retrying rate-limited responses and
// network errors with exponential backoff.
type Transport struct {
	httpClient *http.Client
	policy     RetryPolicy
	limiter    *rate.Limiter
	sleep      Sleeper
	now        func() time.Time
	random     func() float64
	logger     zerolog.Logger
}

// NewTransport creates a transport. A positive rateLimitDelay spaces out
// consecutive attempts by at least that long.
func NewTransport(policy RetryPolicy, rateLimitDelay time.Duration, logger zerolog.Logger, opts ...Option) *Transport {
	return newTransport(policy, rateLimitDelay, logger, defaultOptions().apply(opts))
}

func newTransport(policy RetryPolicy, rateLimitDelay time.Duration, logger zerolog.Logger, o *options) *Transport {
	t := &Transport{
		httpClient: o.httpClient,
		policy:     policy,
		sleep:      o.sleep,
		now:        o.now,
		random:     o.random,
		logger:     logger.With().Str("component", "transport").Logger(),
	}
	if rateLimitDelay > 0 {
		t.limiter = rate.NewLimiter(rate.Every(rateLimitDelay), 1)
	}
	return t
}

// Execute performs req. It returns the response of the first 2xx attempt,
// a *TransportError for any other status or exhausted network retries, or a
// *RateLimitExceededError when every attempt was answered with 429.
func (t *Transport) Execute(ctx context.Context, req Request) (*Response, error) {
	endpoint := endpointOf(req.URL)

	var (
		state    = stateAttempting
		attempts int
		lastResp *Response
		lastErr  error
	)

	for {
		switch state {
		case stateAttempting:
			if t.limiter != nil {
				if err := t.limiter.Wait(ctx); err != nil {
					return nil, err
				}
			}

			resp, err := t.do(ctx, req)
			attempts++

			switch {
			case errors.Is(err, ErrInvalidRequest):
				return nil, &TransportError{
					Method:   req.Method,
					Endpoint: endpoint,
					Attempts: attempts,
					Err:      err,
				}
			case err != nil:
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				lastResp, lastErr = nil, err
				state = t.afterFailure(attempts)
			case resp.StatusCode == http.StatusTooManyRequests:
				lastResp, lastErr = resp, nil
				state = t.afterFailure(attempts)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				state = stateSucceeded
				lastResp = resp
			default:
				return nil, &TransportError{
					Method:     req.Method,
					Endpoint:   endpoint,
					StatusCode: resp.StatusCode,
					Body:       string(resp.Body),
					Attempts:   attempts,
				}
			}

		case stateBackoff:
			delay := t.policy.NextDelay(attempts-1, t.random())
			reason := "network error"
			if lastResp != nil {
				reason = "rate limited"
				if d, ok := retryAfter(lastResp.Header, t.now()); ok {
					delay = d
				}
			}

			t.logger.Warn().
				Err(lastErr).
				Str("endpoint", endpoint).
				Int("attempt", attempts).
				Int("max_retries", t.policy.MaxRetries).
				Dur("delay", delay).
				Msgf("Request %s, backing off", reason)

			if err := t.sleep(ctx, delay); err != nil {
				return nil, err
			}
			state = stateAttempting

		case stateSucceeded:
			return lastResp, nil

		case stateExhausted:
			if lastResp != nil {
				return nil, &RateLimitExceededError{
					Endpoint:     endpoint,
					Attempts:     attempts,
					LastResponse: lastResp,
				}
			}
			return nil, &TransportError{
				Method:   req.Method,
				Endpoint: endpoint,
				Attempts: attempts,
				Err:      lastErr,
			}

		default:
			return nil, fmt.Errorf("invalid retry state %s", state)
		}
	}
}

// afterFailure picks the state following a retryable failure.
func (t *Transport) afterFailure(attempts int) retryState {
	if attempts > t.policy.MaxRetries {
		return stateExhausted
	}
	return stateBackoff
}

// do performs a single attempt and reads the whole body.
func (t *Transport) do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// endpointOf strips scheme, host and query from a request URL.
func endpointOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}

// isCanceled reports whether err came from context cancellation.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
