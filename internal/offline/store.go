// Package offline implements the cache-managing request router that keeps
// the app shell usable without connectivity: versioned cache generations,
// request classification, and one fetch strategy per request class.
package offline

import (
	"context"
	"errors"
	"net/http"
)

// Store errors.
var (
	// ErrCacheMiss is returned by Get when the generation has no entry
	// for the key.
	ErrCacheMiss = errors.New("cache miss")
)

// Entry is one cached response.
type Entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Store holds named cache generations. Exactly one generation is promoted
// ("current") at any time; superseded generations are garbage and get
// deleted at activation.
type Store interface {
	// Names lists every generation present in the store.
	Names(ctx context.Context) ([]string, error)

	// Delete removes a generation and all its entries.
	Delete(ctx context.Context, name string) error

	// Get returns the entry stored under key in the named generation, or
	// ErrCacheMiss.
	Get(ctx context.Context, name, key string) (*Entry, error)

	// Put stores an entry under key in the named generation, creating the
	// generation if needed.
	Put(ctx context.Context, name, key string, e *Entry) error

	// Current returns the promoted generation name, or "" when none has
	// been promoted yet.
	Current(ctx context.Context) (string, error)

	// Promote makes the named generation current.
	Promote(ctx context.Context, name string) error
}

// copyEntry clones an entry so callers cannot mutate stored state.
func copyEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	cp := &Entry{
		Status: e.Status,
		Header: e.Header.Clone(),
		Body:   make([]byte, len(e.Body)),
	}
	copy(cp.Body, e.Body)
	return cp
}
