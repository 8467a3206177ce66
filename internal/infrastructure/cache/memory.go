package cache

import (
	"context"
	"sync"
	"time"

	"github.com/golfmax/fitting-edge/internal/infrastructure/metrics"
)

// DefaultMicroTTL keeps the in-process tier short-lived: it is a latency
// optimization for a warm process, not a durable store.
const DefaultMicroTTL = 5 * time.Minute

type memoryEntry struct {
	body     []byte
	storedAt time.Time
}

// Memory is the warm-process micro tier of the response cache. It is
// local to one process, never synchronized across instances, and must
// not be treated as correctness-critical. Expiry is lazy: stale entries
// read as misses and are overwritten by the next Set.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-process response cache. A zero or negative
// ttl falls back to DefaultMicroTTL.
func NewMemory(ttl time.Duration) *Memory {
	return newMemoryWithClock(ttl, time.Now)
}

// newMemoryWithClock injects the clock for deterministic expiry tests.
func newMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultMicroTTL
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get retrieves a cached response body. Returns nil, nil on a miss or a
// stale entry.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().Sub(entry.storedAt) >= m.ttl {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeMemory).Inc()
		return nil, nil
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeMemory).Inc()
	return entry.body, nil
}

// Set stores a response body. Last writer wins; entries for the same key
// are equivalent derivations of the same upstream data.
func (m *Memory) Set(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{body: body, storedAt: m.now()}
	m.mu.Unlock()

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeMemory).Inc()
	return nil
}
