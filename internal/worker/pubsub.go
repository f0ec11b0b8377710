package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	releaseJob       *ReleaseJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	ReleaseJob       *ReleaseJob
	Logger           zerolog.Logger
}

// ReleaseMessage represents a cache release job message, published by the
// deploy pipeline after new shell assets go live on the origin.
type ReleaseMessage struct {
	JobType string   `json:"job_type"`
	Version string   `json:"version,omitempty"`
	Assets  []string `json:"assets,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings. Releases must not run concurrently:
	// two installs racing on Promote would break the single-current
	// invariant of the store.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		releaseJob:       cfg.ReleaseJob,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var releaseMsg ReleaseMessage
	if err := json.Unmarshal(msg.Data, &releaseMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch releaseMsg.JobType {
	case "release":
		err = h.handleRelease(ctx, releaseMsg)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", releaseMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", releaseMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

func (h *PubSubHandler) handleRelease(ctx context.Context, msg ReleaseMessage) error {
	if msg.Version == "" {
		// Malformed release, redelivery won't fix it.
		h.logger.Warn().Msg("release message without version, dropping")
		return nil
	}

	result, err := h.releaseJob.Run(ctx, msg.Version, msg.Assets)
	if err != nil {
		return err
	}

	h.logger.Info().
		Str("version", result.Version).
		Dur("duration", result.Duration).
		Int("precached", result.Precached).
		Strs("superseded", result.Superseded).
		Msg("cache release applied")

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	if err := h.releaseJob.Verify(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
