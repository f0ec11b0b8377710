package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore persists cache generations in a Valkey-compatible database so
// the gateway and the release worker share one view of the cache.
//
// Layout under the prefix:
//
//	<prefix>:names            set of generation names
//	<prefix>:keys:<name>      set of entry keys in a generation
//	<prefix>:entry:<name>:<k> JSON-encoded Entry
//	<prefix>:current          promoted generation name
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "dawa:cache"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Names lists every generation present.
func (s *ValkeyStore) Names(ctx context.Context) ([]string, error) {
	resp := s.client.Do(ctx, s.client.B().Smembers().Key(s.namesKey()).Build())
	names, err := resp.AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	return names, nil
}

// Delete removes a generation, its key set and all its entries.
func (s *ValkeyStore) Delete(ctx context.Context, name string) error {
	keys, err := s.client.Do(ctx, s.client.B().Smembers().Key(s.keysKey(name)).Build()).AsStrSlice()
	if err != nil && !valkey.IsValkeyNil(err) {
		return fmt.Errorf("listing generation keys: %w", err)
	}

	for _, key := range keys {
		if err := s.client.Do(ctx, s.client.B().Del().Key(s.entryKey(name, key)).Build()).Error(); err != nil {
			return fmt.Errorf("deleting entry: %w", err)
		}
	}
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.keysKey(name)).Build()).Error(); err != nil {
		return fmt.Errorf("deleting key set: %w", err)
	}
	if err := s.client.Do(ctx, s.client.B().Srem().Key(s.namesKey()).Member(name).Build()).Error(); err != nil {
		return fmt.Errorf("removing generation name: %w", err)
	}
	return nil
}

// Get returns the entry stored under key, or ErrCacheMiss.
func (s *ValkeyStore) Get(ctx context.Context, name, key string) (*Entry, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(name, key)).Build())
	payload, err := resp.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("reading entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	return &e, nil
}

// Put stores an entry and registers the generation and key.
func (s *ValkeyStore) Put(ctx context.Context, name, key string, e *Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if err := s.client.Do(ctx, s.client.B().Set().Key(s.entryKey(name, key)).Value(string(payload)).Build()).Error(); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	if err := s.client.Do(ctx, s.client.B().Sadd().Key(s.keysKey(name)).Member(key).Build()).Error(); err != nil {
		return fmt.Errorf("registering key: %w", err)
	}
	if err := s.client.Do(ctx, s.client.B().Sadd().Key(s.namesKey()).Member(name).Build()).Error(); err != nil {
		return fmt.Errorf("registering generation: %w", err)
	}
	return nil
}

// Current returns the promoted generation name, "" when unset.
func (s *ValkeyStore) Current(ctx context.Context) (string, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.currentKey()).Build())
	name, err := resp.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading current generation: %w", err)
	}
	return name, nil
}

// Promote makes the named generation current.
func (s *ValkeyStore) Promote(ctx context.Context, name string) error {
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.currentKey()).Value(name).Build()).Error(); err != nil {
		return fmt.Errorf("promoting generation: %w", err)
	}
	return nil
}

func (s *ValkeyStore) namesKey() string { return s.prefix + ":names" }

func (s *ValkeyStore) keysKey(name string) string { return s.prefix + ":keys:" + name }

func (s *ValkeyStore) currentKey() string { return s.prefix + ":current" }

func (s *ValkeyStore) entryKey(name, k string) string {
	return s.prefix + ":entry:" + name + ":" + k
}
