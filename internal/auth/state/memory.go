package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     string
	createdAt time.Time
}

// MemoryBackend keeps states in process memory, bounded by a TTL
type MemoryBackend struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryEntry
}

// NewMemoryBackend creates a MemoryBackend. A zero ttl keeps entries forever.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryEntry),
	}
}

func (m *MemoryBackend) Save(_ context.Context, key, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	m.items[key] = memoryEntry{state: state, createdAt: m.now()}
	return nil
}

func (m *MemoryBackend) Load(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	entry, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return entry.state, nil
}

func (m *MemoryBackend) cleanupLocked() {
	if m.ttl <= 0 || len(m.items) == 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for key, entry := range m.items {
		if entry.createdAt.Before(cutoff) {
			delete(m.items, key)
		}
	}
}

// Memory is a single-slot Store, for one authorization attempt at a time
type Memory struct {
	mu       sync.Mutex
	expected string
}

// NewMemory creates an empty single-slot Store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Issue(context.Context) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.expected = token
	m.mu.Unlock()
	return token, nil
}

func (m *Memory) Validate(_ context.Context, state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return matches(m.expected, state)
}
