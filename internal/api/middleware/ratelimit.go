package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/dawapahchan/dawapahchan/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
}

// Default rate limit configurations.
var (
	// ScanRateLimit applies to analysis submissions, which fan out to the
	// vision backend (30 req/min).
	ScanRateLimit = RateLimitConfig{
		RequestLimit: 30,
		WindowLength: time.Minute,
	}

	// StandardRateLimit applies to standard endpoints (100 req/min).
	StandardRateLimit = RateLimitConfig{
		RequestLimit: 100,
		WindowLength: time.Minute,
	}
)

// RateLimitByIP creates a rate limiter middleware using client IP address.
// Uses X-Forwarded-For header if present (extracted by chi's RealIP middleware).
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(rateLimitExceededHandler),
	)
}

// RateLimitByDevice creates a rate limiter middleware keyed on the
// X-Device-Id header. Falls back to IP-based limiting for requests
// without one.
func RateLimitByDevice(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByDeviceOrIP),
		httprate.WithLimitHandler(rateLimitExceededHandler),
	)
}

// keyByDeviceOrIP returns the device ID if the request carries one,
// otherwise the client IP.
func keyByDeviceOrIP(r *http.Request) (string, error) {
	if deviceID := r.Header.Get("X-Device-Id"); deviceID != "" {
		return "device:" + deviceID, nil
	}
	return httprate.KeyByRealIP(r)
}

// rateLimitExceededHandler writes an RFC7807 Problem response when rate limit is exceeded.
func rateLimitExceededHandler(w http.ResponseWriter, r *http.Request) {
	traceID := GetRequestID(r.Context())

	problem := models.NewTooManyRequests(traceID, "Rate limit exceeded. Please try again later.")
	problem.Instance = r.URL.Path

	// Add Retry-After header (estimate based on window)
	// httprate doesn't expose exact reset time, so we use a conservative estimate
	w.Header().Set("Retry-After", strconv.Itoa(60)) // 60 seconds

	problem.Write(w)
}
