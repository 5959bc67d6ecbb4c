package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps values in a process-local map. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// Compile-time check to ensure MemoryStore implements Storage
var _ Storage = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Read returns the value stored under key. Returns ErrNotFound if missing or empty.
func (m *MemoryStore) Read(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value := m.values[key]
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Write stores value under key.
func (m *MemoryStore) Write(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
