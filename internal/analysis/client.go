package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dawapahchan/dawapahchan/internal/upstream"
)

// DefaultEndpointPath is the analysis endpoint path on the backend.
const DefaultEndpointPath = "/api/analyze"

// Doer executes an HTTP request. Satisfied by *upstream.Client and by
// plain *http.Client in tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Submission is one scan request: the image plus every profile field.
// Zero values match the defaults the backend expects for a missing
// profile (age/weight 0, empty gender/allergies, not pregnant).
type Submission struct {
	Image     io.Reader
	ImageName string
	ImageType string

	Age       int
	Gender    string
	Weight    float64
	Pregnant  bool
	Allergies string
}

// ClientConfig holds configuration for the analysis client.
type ClientConfig struct {
	// BaseURL is the backend base URL (required).
	BaseURL string

	// EndpointPath overrides DefaultEndpointPath (optional).
	EndpointPath string

	// HTTPClient executes requests (optional). Defaults to a resilient
	// upstream client.
	HTTPClient Doer

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client submits scans to the analysis backend.
type Client struct {
	baseURL    string
	path       string
	httpClient Doer
	logger     zerolog.Logger
}

// NewClient creates a new analysis client.
func NewClient(cfg ClientConfig) *Client {
	path := cfg.EndpointPath
	if path == "" {
		path = DefaultEndpointPath
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = upstream.NewClient(upstream.DefaultConfig("analysis"))
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		path:       path,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Analyze posts the submission as a multipart form and decodes the JSON
// answer. A non-2xx status, a transport failure, or an undecodable body
// all yield an error; callers translate that into the retry flow.
func (c *Client) Analyze(ctx context.Context, sub Submission) (*Result, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("analysis request failed")
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("analysis backend returned non-2xx")
		return nil, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &result, nil
}

// encodeSubmission builds the multipart form body. Field names are part of
// the backend contract and must not change.
func encodeSubmission(sub Submission) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	name := sub.ImageName
	if name == "" {
		name = "scan"
	}
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, "", err
	}
	if sub.Image != nil {
		if _, err := io.Copy(part, sub.Image); err != nil {
			return nil, "", err
		}
	}

	fields := map[string]string{
		"age":       strconv.Itoa(sub.Age),
		"gender":    sub.Gender,
		"weight":    strconv.FormatFloat(sub.Weight, 'f', -1, 64),
		"pregnant":  strconv.FormatBool(sub.Pregnant),
		"allergies": sub.Allergies,
	}
	for field, value := range fields {
		if err := w.WriteField(field, value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
