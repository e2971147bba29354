package store

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// memoryEntry holds one counter or state snapshot with its expiry.
type memoryEntry struct {
	counter   int64
	state     []byte
	expiresAt time.Time
}

// MemoryCounterStore is an in-process CounterStore for tests and single-node
// deployments. A mutex stands in for the per-key atomicity a shared store
// provides.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Increment atomically increments the counter at key.
func (m *MemoryCounterStore) Increment(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key)
	if entry == nil {
		entry = &memoryEntry{expiresAt: m.now().Add(ttl)}
		m.entries[key] = entry
	}
	entry.counter++
	return entry.counter, nil
}

// GetCounter returns the counter at key, or zero when absent or expired.
func (m *MemoryCounterStore) GetCounter(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key)
	if entry == nil {
		return 0, nil
	}
	return entry.counter, nil
}

// GetState returns the state snapshot at key, or nil when absent or expired.
func (m *MemoryCounterStore) GetState(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key)
	if entry == nil {
		return nil, nil
	}
	state := make([]byte, len(entry.state))
	copy(state, entry.state)
	return state, nil
}

// CompareAndSwap replaces the state at key only if it still equals current.
func (m *MemoryCounterStore) CompareAndSwap(
	ctx context.Context,
	key string,
	current, next []byte,
	ttl time.Duration,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.live(key)
	switch {
	case entry == nil:
		if current != nil {
			return false, nil
		}
	case !bytes.Equal(entry.state, current):
		return false, nil
	}

	state := make([]byte, len(next))
	copy(state, next)
	m.entries[key] = &memoryEntry{state: state, expiresAt: m.now().Add(ttl)}
	return true, nil
}

// live returns the entry at key if it has not expired, dropping it otherwise.
// Callers must hold the mutex.
func (m *MemoryCounterStore) live(key string) *memoryEntry {
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return entry
}
