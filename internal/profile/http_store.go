package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Doer executes HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStore persists the profile through the gateway's profile endpoints,
// identified by a per-device ID sent in the X-Device-Id header.
type HTTPStore struct {
	baseURL  string
	deviceID string
	client   Doer
}

// NewHTTPStore creates a store talking to the gateway at baseURL.
func NewHTTPStore(baseURL, deviceID string, client Doer) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{baseURL: baseURL, deviceID: deviceID, client: client}
}

// Load fetches the profile. A 404 maps to ErrNotFound.
func (s *HTTPStore) Load(ctx context.Context) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Device-Id", s.deviceID)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("loading profile: status %d", resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}

// Save upserts the profile.
func (s *HTTPStore) Save(ctx context.Context, p *Profile) error {
	// The gateway revalidates through the same Input path as local entry.
	body, err := json.Marshal(Input{
		Age:       fmt.Sprintf("%d", p.Age),
		Gender:    p.Gender,
		Weight:    fmt.Sprintf("%g", p.Weight),
		Pregnant:  p.Pregnant,
		Allergies: p.Allergies,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/api/profile", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("X-Device-Id", s.deviceID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("saving profile: status %d", resp.StatusCode)
	}
	return nil
}
