package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// MemoryStore is an in-process Store backed by otter.
type MemoryStore struct {
	cache   *otter.Cache[string, []byte]
	counter *stats.Counter
}

// NewMemoryStore creates an in-memory store. A zero maxSize leaves the
// store unbounded and a zero ttl keeps entries until Clear.
func NewMemoryStore(ttl time.Duration, maxSize int) *MemoryStore {
	counter := stats.NewCounter()
	opts := &otter.Options[string, []byte]{
		MaximumSize:   maxSize,
		StatsRecorder: counter,
	}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryCreating[string, []byte](ttl)
	}

	return &MemoryStore{
		cache:   otter.Must(opts),
		counter: counter,
	}
}

// Get retrieves a payload from the store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.GetIfPresent(key)
	return v, ok, nil
}

// SetIfAbsent stores value unless key is already present.
func (m *MemoryStore) SetIfAbsent(_ context.Context, key string, value []byte) ([]byte, error) {
	current, _ := m.cache.SetIfAbsent(key, value)
	return current, nil
}

// Clear removes all entries.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.cache.InvalidateAll()
	return nil
}

// Stats returns the hit and miss counts since creation.
func (m *MemoryStore) Stats() (hits, misses uint64) {
	s := m.counter.Snapshot()
	return s.Hits, s.Misses
}
