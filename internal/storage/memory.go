package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, userID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[userID][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, key)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, userID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.records[userID]
	if !ok {
		byKey = make(map[string][]byte)
		s.records[userID] = byKey
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	byKey[key] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[userID], key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
