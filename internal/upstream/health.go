package upstream

import (
	"sync"
	"time"
)

// Health tracks the most recent outcome of calls to one upstream. It feeds
// the gateway's /ops/status endpoint.
type Health struct {
	mu            sync.RWMutex
	name          string
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

func newHealth(name string) *Health {
	return &Health{name: name}
}

func (h *Health) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.lastSuccessAt = &now
}

func (h *Health) recordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	h.lastFailureAt = &now
	if err != nil {
		h.lastError = err.Error()
	}
}

// Snapshot is a point-in-time view of upstream health.
type Snapshot struct {
	Name          string     `json:"name"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// Snapshot returns a copy of the current health state.
func (h *Health) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap := Snapshot{
		Name:      h.name,
		LastError: h.lastError,
	}
	if h.lastSuccessAt != nil {
		t := *h.lastSuccessAt
		snap.LastSuccessAt = &t
	}
	if h.lastFailureAt != nil {
		t := *h.lastFailureAt
		snap.LastFailureAt = &t
	}
	return snap
}
