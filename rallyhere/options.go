package rallyhere

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/s0up4200/s2match/cache"
	"github.com/s0up4200/s2match/smite"
)

// Option configures a Client or Transport.
type Option func(*options)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	store      cache.Store
	items      *smite.ItemTable
	pageSize   int
	sleep      Sleeper
	now        func() time.Time
	random     func() float64
}

func defaultOptions() *options {
	return &options{
		timeout:  30 * time.Second,
		pageSize: DefaultPageSize,
		sleep:    sleepContext,
		now:      time.Now,
		random:   rand.Float64,
	}
}

func (o *options) apply(opts []Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. It has no effect together with
// WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithCache sets the response store. Without it an in-memory store is used
// when caching is enabled.
func WithCache(store cache.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithItems sets the item reference table used to enrich matches.
func WithItems(items *smite.ItemTable) Option {
	return func(o *options) {
		o.items = items
	}
}

// WithPageSize sets the default page size for paginated endpoints.
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithSleeper replaces the function used to wait between retries.
func WithSleeper(sleep Sleeper) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithClock replaces the clock used for token expiry and Retry-After dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRandom replaces the source of jitter, which must return values in [0,1).
func WithRandom(random func() float64) Option {
	return func(o *options) {
		o.random = random
	}
}

// CallOption configures a single operation.
type CallOption func(*callOptions)

type callOptions struct {
	noCache bool
}

// NoCache bypasses the response cache for one call. The fresh response is
// not stored either.
func NoCache() CallOption {
	return func(o *callOptions) {
		o.noCache = true
	}
}

func applyCallOptions(opts []CallOption) callOptions {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
