// Package api provides the HTTP surface of the DawaPahchan gateway.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dawapahchan/dawapahchan/internal/api/handler"
	"github.com/dawapahchan/dawapahchan/internal/api/middleware"
)

// RouterConfig holds configuration for the router. Build metadata lives on
// the Ops handler, which reports it.
type RouterConfig struct {
	Logger        zerolog.Logger
	ServiceName   string
	Metrics       *middleware.Metrics
	Ops           *handler.OpsHandler
	ProfileStores handler.ProfileStoreFactory

	// Cache serves everything the explicit routes don't: the app shell,
	// static assets, the font hosts and the analysis API proxy.
	Cache http.Handler
}

// NewRouter creates a new chi router with all gateway routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "dawapahchan-gateway"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)

	// Rate limit middleware for different endpoint categories
	scanRateLimit := middleware.RateLimitByDevice(middleware.ScanRateLimit)     // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit) // 100 req/min

	// Ops endpoints (public)
	r.Route("/ops", func(r chi.Router) {
		r.Use(standardRateLimit)
		r.Get("/health", cfg.Ops.HealthCheck)
		r.Get("/ready", cfg.Ops.ReadinessCheck)
		r.Get("/status", cfg.Ops.SystemStatus)
	})

	// Device profile endpoints
	if cfg.ProfileStores != nil {
		profileHandler := handler.NewProfileHandler(cfg.ProfileStores)
		r.Route("/api/profile", func(r chi.Router) {
			r.Use(middleware.RateLimitByDevice(middleware.StandardRateLimit))
			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpsertProfile)
		})
	}

	// Everything else goes through the offline cache router. The analysis
	// submission fans out to the vision backend, so it gets the tighter
	// per-device limit.
	if cfg.Cache != nil {
		r.With(scanRateLimit).Handle("/api/analyze", cfg.Cache)
		r.Handle("/*", cfg.Cache)
	}

	return r
}
