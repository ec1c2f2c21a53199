package rallyhere

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Default retry settings
const (
	DefaultMaxRetries     = 3
	DefaultBaseRetryDelay = time.Second
	DefaultMaxRetryDelay  = 60 * time.Second
	DefaultJitter         = 0.2
)

// RetryPolicy computes backoff delays for rate-limited and failed attempts.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Jitter is the relative spread applied around the computed delay
	Jitter float64
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseRetryDelay,
		MaxDelay:   DefaultMaxRetryDelay,
		Jitter:     DefaultJitter,
	}
}

// NextDelay returns the delay before retry number attempt (zero based):
// min(base*2^attempt, max) scaled by 1 + jitter*(2r-1), with r in [0,1).
func (p RetryPolicy) NextDelay(attempt int, r float64) time.Duration {
	capped := float64(p.MaxDelay)
	exp := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if exp < capped {
		capped = exp
	}
	d := capped * (1 + p.Jitter*(2*r-1))
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// Bounds returns the smallest and largest delay NextDelay can produce for
// attempt.
func (p RetryPolicy) Bounds(attempt int) (lo, hi time.Duration) {
	capped := min(float64(p.BaseDelay)*math.Pow(2, float64(attempt)), float64(p.MaxDelay))
	return time.Duration(capped * (1 - p.Jitter)), time.Duration(capped * (1 + p.Jitter))
}

// retryState is the phase of one Execute call.
type retryState int

const (
	stateAttempting retryState = iota
	stateBackoff
	stateSucceeded
	stateExhausted
)

func (s retryState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoff:
		return "backoff"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// retryAfter parses a Retry-After header as delta-seconds or an HTTP date.
func retryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
