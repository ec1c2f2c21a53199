package rallyhere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/s0up4200/s2match/cache"
	"github.com/s0up4200/s2match/smite"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pagination defaults
const (
	DefaultPageSize   = 10
	DefaultMaxMatches = 100
)

// Config holds the client settings. Zero retry delays fall back to the
// defaults; MaxRetries is used as given.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	CacheEnabled bool

	RateLimitDelay time.Duration
	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
}

// DefaultConfig returns a configuration with caching on and the default
// retry policy. Credentials and base URL still have to be set.
func DefaultConfig() Config {
	return Config{
		CacheEnabled:   true,
		MaxRetries:     DefaultMaxRetries,
		BaseRetryDelay: DefaultBaseRetryDelay,
		MaxRetryDelay:  DefaultMaxRetryDelay,
	}
}

func (c *Config) validate() error {
	if c.ClientID == "" {
		return &ConfigurationError{Field: "client_id", Reason: "is required"}
	}
	if c.ClientSecret == "" {
		return &ConfigurationError{Field: "client_secret", Reason: "is required"}
	}
	if c.BaseURL == "" {
		return &ConfigurationError{Field: "base_url", Reason: "is required"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigurationError{Field: "base_url", Reason: fmt.Sprintf("%q is not an absolute URL", c.BaseURL)}
	}
	if c.MaxRetries < 0 {
		return &ConfigurationError{Field: "max_retries", Reason: "must not be negative"}
	}
	if c.RateLimitDelay < 0 {
		return &ConfigurationError{Field: "rate_limit_delay", Reason: "must not be negative"}
	}
	if c.BaseRetryDelay < 0 || c.MaxRetryDelay < 0 {
		return &ConfigurationError{Field: "retry_delay", Reason: "must not be negative"}
	}

	if c.BaseRetryDelay == 0 {
		c.BaseRetryDelay = DefaultBaseRetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if c.BaseRetryDelay > c.MaxRetryDelay {
		return &ConfigurationError{Field: "base_retry_delay", Reason: "must not exceed max_retry_delay"}
	}
	return nil
}

// Client is the RallyHere API client. It owns its token, cache and retry
// state; separate clients share nothing unless given the same cache.Store.
type Client struct {
	baseURL   string
	transport *Transport
	tokens    *TokenManager
	cache     *cache.Cache
	items     *smite.ItemTable
	pageSize  int
	logger    zerolog.Logger
}

// New creates a client. Configuration errors are reported as
// *ConfigurationError before any network access.
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := defaultOptions().apply(opts)

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	policy := RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseRetryDelay,
		MaxDelay:   cfg.MaxRetryDelay,
		Jitter:     DefaultJitter,
	}

	transport := newTransport(policy, cfg.RateLimitDelay, logger, o)

	c := &Client{
		baseURL:   baseURL,
		transport: transport,
		tokens:    NewTokenManager(baseURL, cfg.ClientID, cfg.ClientSecret, transport, logger),
		items:     o.items,
		pageSize:  o.pageSize,
		logger:    logger,
	}

	if cfg.CacheEnabled {
		store := o.store
		if store == nil {
			store = cache.NewMemoryStore(0, 0)
		}
		c.cache = cache.New(store, logger)
	}

	return c, nil
}

// Items returns the item table used for enrichment, which may be nil.
func (c *Client) Items() *smite.ItemTable {
	return c.items
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// get returns the body of a GET request, from the cache when possible.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, co callOptions) ([]byte, error) {
	key := cache.NewKey(endpoint, params)
	return c.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, endpoint, params)
	}, co.noCache)
}

// getJSON performs a cached GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, co callOptions, v any) error {
	data, err := c.get(ctx, endpoint, params, co)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &TransportError{
			Method:     http.MethodGet,
			Endpoint:   endpoint,
			StatusCode: http.StatusOK,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

// fetch performs an authorized GET. A 401 discards the token and retries
// once with a fresh one.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	for retried := false; ; retried = true {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		header := http.Header{}
		header.Set("Accept", "application/json")
		header.Set("Authorization", "Bearer "+tok.Value)

		resp, err := c.transport.Execute(ctx, Request{
			Method: http.MethodGet,
			URL:    u,
			Header: header,
		})
		if err != nil {
			var te *TransportError
			if !retried && errors.As(err, &te) && te.IsUnauthorized() {
				c.logger.Debug().Str("endpoint", endpoint).Msg("Token rejected, refreshing")
				c.tokens.Invalidate()
				continue
			}
			return nil, err
		}
		return resp.Body, nil
	}
}
