// Package cache provides a TTL key-value store with a stale-read fallback
// path, used to keep serving data through upstream provider outages.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is applied when Put is called with a zero TTL.
const DefaultTTL = 5 * time.Minute

// Store is the cache contract. Implementations may back it with memory,
// disk or an external key-value store; the expiry and stale-read semantics
// must hold regardless of medium.
type Store[T any] interface {
	// Put stores value under key with the given TTL (DefaultTTL when zero).
	Put(key string, value T, ttl time.Duration)

	// Get returns the value for key, or ok=false when absent or expired.
	Get(key string) (T, bool)

	// GetStale returns the value for key ignoring expiry. Used only by
	// callers explicitly falling back after a failed live fetch.
	GetStale(key string) (T, bool)

	// Age returns how long ago the entry was stored, or ok=false when absent.
	Age(key string) (time.Duration, bool)
}

// entry is an immutable cached value. Entries are replaced, never mutated,
// so last-writer-wins under concurrent Put is safe.
type entry[T any] struct {
	value      T
	observedAt time.Time
	expiresAt  time.Time
}

// Memory is an in-memory Store implementation safe for concurrent use.
type Memory[T any] struct {
	// StaleRetention bounds how long expired entries remain readable via
	// GetStale before lazy eviction removes them. Zero means 30 minutes.
	StaleRetention time.Duration

	mu      sync.RWMutex
	entries map[string]entry[T]
}

// NewMemory creates an empty in-memory cache.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{entries: make(map[string]entry[T])}
}

func (m *Memory[T]) staleRetention() time.Duration {
	if m.StaleRetention > 0 {
		return m.StaleRetention
	}
	return 30 * time.Minute
}

// Put stores value under key. Eviction of long-expired entries happens
// lazily here rather than on a background timer.
func (m *Memory[T]) Put(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked(now)
	m.entries[key] = entry[T]{
		value:      value,
		observedAt: now,
		expiresAt:  now.Add(ttl),
	}
}

// Get returns the fresh value for key, or ok=false when absent or expired.
// Expired entries are retained for GetStale until the stale retention
// window passes.
func (m *Memory[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetStale returns the value for key regardless of expiry.
func (m *Memory[T]) GetStale(key string) (T, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Age returns the time since the entry was stored.
func (m *Memory[T]) Age(key string) (time.Duration, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return 0, false
	}
	return time.Since(e.observedAt), true
}

// Len returns the number of entries currently held, including expired
// entries not yet evicted.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictLocked removes entries past the stale retention window.
// Caller must hold the write lock.
func (m *Memory[T]) evictLocked(now time.Time) {
	retention := m.staleRetention()
	for key, e := range m.entries {
		if now.Sub(e.expiresAt) > retention {
			delete(m.entries, key)
		}
	}
}
