package profile

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory implementation of Store. This is intended
// for testing and single-shot CLI use. Production should use PostgresStore.
type MemoryStore struct {
	mu     sync.RWMutex
	record []byte
}

// NewMemoryStore creates a new in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored profile.
func (s *MemoryStore) Load(_ context.Context) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeRecord(s.record)
}

// Save overwrites the stored record.
func (s *MemoryStore) Save(_ context.Context, p *Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = raw
	return nil
}

// SetRecord replaces the raw stored payload. Test seam for exercising the
// corrupt-record path.
func (s *MemoryStore) SetRecord(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = raw
}
