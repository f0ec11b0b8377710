// Package main provides the entrypoint for the DawaPahchan gateway.
package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/valkey-io/valkey-go"

	"github.com/dawapahchan/dawapahchan/internal/api"
	"github.com/dawapahchan/dawapahchan/internal/api/handler"
	"github.com/dawapahchan/dawapahchan/internal/api/middleware"
	"github.com/dawapahchan/dawapahchan/internal/database"
	"github.com/dawapahchan/dawapahchan/internal/offline"
	"github.com/dawapahchan/dawapahchan/internal/profile"
	"github.com/dawapahchan/dawapahchan/internal/telemetry"
	"github.com/dawapahchan/dawapahchan/internal/upstream"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dawapahchan-gateway"

	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting DawaPahchan gateway")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	originURL := os.Getenv("ORIGIN_URL")
	if originURL == "" {
		originURL = "http://localhost:9000"
	}
	origin, err := url.Parse(originURL)
	if err != nil {
		log.Fatal().Err(err).Str("url", originURL).Msg("invalid ORIGIN_URL")
	}

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = originURL
	}
	backend, err := url.Parse(backendURL)
	if err != nil {
		log.Fatal().Err(err).Str("url", backendURL).Msg("invalid BACKEND_URL")
	}

	cacheVersion := os.Getenv("CACHE_VERSION")
	if cacheVersion == "" {
		cacheVersion = "dawa-pahchan-v1"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to the profile database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Open the cache store. Valkey is shared with the release worker so a
	// release promoted there is picked up here on the next request.
	var store offline.Store
	if addr := os.Getenv("VALKEY_ADDRESS"); addr != "" {
		client, verr := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
		if verr != nil {
			log.Fatal().Err(verr).Str("address", addr).Msg("failed to connect to valkey")
		}
		defer client.Close()
		store = offline.NewValkeyStore(client, "")
		log.Info().Str("address", addr).Msg("valkey cache store connected")
	} else {
		store = offline.NewMemoryStore()
		log.Warn().Msg("VALKEY_ADDRESS not set, using in-process cache store")
	}

	// One resilient client fronts both the origin and the backend.
	fetcher := upstream.NewClient(upstream.DefaultConfig("backend"))

	cacheRouter := offline.NewRouter(offline.RouterConfig{
		Version: cacheVersion,
		Store:   store,
		Origin:  origin,
		Backend: backend,
		Fetcher: fetcher,
		Logger:  log,
	})

	// First boot of a fresh store: install and promote the bundled
	// manifest so navigations have a shell to fall back to.
	if current, cerr := store.Current(ctx); cerr == nil && current == "" {
		log.Info().Str("version", cacheVersion).Msg("no promoted generation, bootstrapping cache")
		if ierr := cacheRouter.Install(ctx); ierr != nil {
			log.Warn().Err(ierr).Msg("cache bootstrap install failed, serving network-first until next release")
		} else if aerr := cacheRouter.Activate(ctx); aerr != nil {
			log.Warn().Err(aerr).Msg("cache bootstrap activation failed")
		}
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Ops:         handler.NewOpsHandler(Version, BuildTime, store, pool, fetcher),
		ProfileStores: func(deviceID string) profile.Store {
			return profile.NewPostgresStore(pool, deviceID)
		},
		Cache: cacheRouter,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
