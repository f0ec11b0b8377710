package profile

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Load when no usable record exists. A corrupt
// record is indistinguishable from an absent one: the caller re-prompts for
// profile entry either way.
var ErrNotFound = errors.New("profile not found")

// Store persists the single profile record.
type Store interface {
	// Load returns the persisted profile, or ErrNotFound when the record
	// is missing or unreadable. It never returns a partially decoded record.
	Load(ctx context.Context) (*Profile, error)

	// Save overwrites the record in a single write.
	Save(ctx context.Context, p *Profile) error
}

// decodeRecord turns a stored payload into a profile. Malformed payloads
// map to ErrNotFound.
func decodeRecord(raw []byte) (*Profile, error) {
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}
