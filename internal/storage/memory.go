package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process registry with optional expiry. State is lost on exit.
type MemoryRegistry struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]time.Time // uri -> registered at
	now   func() time.Time
}

// NewMemoryRegistry creates an empty registry. ttl <= 0 never expires.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		ttl:   ttl,
		items: make(map[string]time.Time),
		now:   time.Now,
	}
}

func (m *MemoryRegistry) live(at, now time.Time) bool {
	return m.ttl <= 0 || now.Sub(at) < m.ttl
}

func (m *MemoryRegistry) CheckRegistered(_ context.Context, uris []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make(map[string]bool, len(uris))
	for _, uri := range uris {
		at, ok := m.items[uri]
		out[uri] = ok && m.live(at, now)
	}
	return out, nil
}

func (m *MemoryRegistry) Register(_ context.Context, uri string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if at, ok := m.items[uri]; ok && m.live(at, now) {
		return true, nil
	}
	m.items[uri] = now
	return false, nil
}

// Cleanup drops expired entries.
func (m *MemoryRegistry) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for uri, at := range m.items {
		if !m.live(at, now) {
			delete(m.items, uri)
		}
	}
}

// Len returns the number of entries, expired ones included until Cleanup.
func (m *MemoryRegistry) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
