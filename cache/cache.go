// Package cache memoizes raw API responses keyed by endpoint and request
// parameters. Entries are insert-if-absent: a key, once stored, is never
// overwritten with different content.
package cache

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Store is a byte store with insert-if-absent semantics.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// SetIfAbsent stores value unless key already exists and returns the
	// value that is stored under key afterwards.
	SetIfAbsent(ctx context.Context, key string, value []byte) ([]byte, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// FetchFunc produces the payload for a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Cache wraps a Store with fetch-on-miss. A nil *Cache is valid and
// behaves as a disabled cache.
type Cache struct {
	store  Store
	logger zerolog.Logger
}

// New creates a cache over store.
func New(store Store, logger zerolog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// GetOrFetch returns the payload stored under key, calling fetch and storing
// its result on a miss. With a disabled cache or bypass set, fetch is always
// called and nothing is read or written.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc, bypass bool) ([]byte, error) {
	if c == nil || bypass {
		return fetch(ctx)
	}

	k := key.String()
	if data, ok, err := c.store.Get(ctx, k); err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("Cache read failed, fetching")
	} else if ok {
		c.logger.Debug().Str("key", k).Msg("Cache hit")
		return data, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := c.store.SetIfAbsent(ctx, k, data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("Cache write failed")
		return data, nil
	}
	return stored, nil
}

// Clear removes every cached entry.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Key identifies one request: the endpoint plus its normalized parameters.
type Key struct {
	Endpoint string
	Params   string
}

// NewKey builds a key from an endpoint and its query parameters. Parameter
// names are sorted and so are the values of each parameter, so the same set
// of parameters always yields the same key regardless of order.
func NewKey(endpoint string, params url.Values) Key {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		values := append([]string(nil), params[name]...)
		sort.Strings(values)
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(name))
		sb.WriteByte('=')
		for j, v := range values {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(url.QueryEscape(v))
		}
	}

	return Key{Endpoint: endpoint, Params: sb.String()}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Endpoint
	}
	return k.Endpoint + "?" + k.Params
}
