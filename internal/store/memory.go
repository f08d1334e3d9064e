package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory DocumentStore. Contents are lost on process
// exit; intended for tests and ephemeral demo runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Load returns the document stored under key, or ErrNotFound
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save overwrites the document stored under key
func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.docs[key] = stored
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }

// HealthCheck always succeeds for the in-memory store
func (s *MemoryStore) HealthCheck(_ context.Context) error { return nil }
