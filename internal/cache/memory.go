package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Provider with a TTL. Entries expire rather
// than refresh on access, so a long-lived process re-queries the model
// eventually even for identical requests.
//
// A TTL of 0 disables the cache entirely.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	value    []byte
	cachedAt time.Time
}

// NewMemory creates an in-memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if m.ttl <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if time.Since(entry.cachedAt) > m.ttl {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}

	// Copy so callers cannot mutate the cached bytes.
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	if m.ttl <= 0 {
		return nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = memoryEntry{value: stored, cachedAt: time.Now()}
	m.mu.Unlock()
	return nil
}

// Len returns the number of live entries. Expired entries that have not
// been looked up yet still count.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
