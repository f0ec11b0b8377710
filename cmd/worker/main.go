// Package main provides the entrypoint for the cache release worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/valkey-io/valkey-go"

	"github.com/dawapahchan/dawapahchan/internal/offline"
	"github.com/dawapahchan/dawapahchan/internal/telemetry"
	"github.com/dawapahchan/dawapahchan/internal/upstream"
	"github.com/dawapahchan/dawapahchan/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "dawapahchan-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting cache release worker")

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

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscription == "" {
		subscription = "cache-releases"
	}
	if projectID == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required")
	}

	addr := os.Getenv("VALKEY_ADDRESS")
	if addr == "" {
		log.Fatal().Msg("VALKEY_ADDRESS is required; releases must land on the shared store")
	}

	// Initialize OpenTelemetry
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to the shared cache store
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		log.Fatal().Err(err).Str("address", addr).Msg("failed to connect to valkey")
	}
	defer client.Close()
	store := offline.NewValkeyStore(client, "")
	log.Info().Str("address", addr).Msg("valkey cache store connected")

	releaseJob := worker.NewReleaseJob(worker.ReleaseJobConfig{
		Config:  worker.DefaultReleaseConfig(),
		Logger:  log,
		Store:   store,
		Origin:  origin,
		Fetcher: upstream.NewClient(upstream.DefaultConfig("origin")),
	})

	pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscription,
		ReleaseJob:       releaseJob,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer pubsubHandler.Close()

	// Health check server for the platform's liveness probe
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start receiving release messages
	go func() {
		if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("pubsub receive failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
