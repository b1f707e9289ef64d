package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and the memory backend.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) GetOrLoad(_ context.Context, key string, ttl time.Duration, load Loader) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && (e.expiresAt.IsZero() || m.now().Before(e.expiresAt)) {
		return e.data, nil
	}

	data, err := load()
	if err != nil {
		return nil, err
	}
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return data, nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Len reports live entries; used by tests to assert invalidation.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.expiresAt.IsZero() || m.now().Before(e.expiresAt) {
			n++
		}
	}
	return n
}
