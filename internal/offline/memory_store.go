package offline

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store. This is intended
// for testing and single-instance deployments. Shared deployments should
// use ValkeyStore.
type MemoryStore struct {
	mu          sync.RWMutex
	generations map[string]map[string]*Entry
	current     string
}

// NewMemoryStore creates a new in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		generations: make(map[string]map[string]*Entry),
	}
}

// Names lists every generation present.
func (s *MemoryStore) Names(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.generations))
	for name := range s.generations {
		names = append(names, name)
	}
	return names, nil
}

// Delete removes a generation and all its entries.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.generations, name)
	return nil
}

// Get returns the entry stored under key, or ErrCacheMiss.
func (s *MemoryStore) Get(_ context.Context, name, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gen, ok := s.generations[name]
	if !ok {
		return nil, ErrCacheMiss
	}
	e, ok := gen[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return copyEntry(e), nil
}

// Put stores an entry, creating the generation if needed.
func (s *MemoryStore) Put(_ context.Context, name, key string, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen, ok := s.generations[name]
	if !ok {
		gen = make(map[string]*Entry)
		s.generations[name] = gen
	}
	gen[key] = copyEntry(e)
	return nil
}

// Current returns the promoted generation name.
func (s *MemoryStore) Current(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Promote makes the named generation current.
func (s *MemoryStore) Promote(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = name
	return nil
}
