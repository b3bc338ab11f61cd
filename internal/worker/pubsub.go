package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job type values accepted on the worker subscription.
const (
	JobCacheWarm   = "cache_warm"
	JobHealthCheck = "health_check"
)

// PubSubHandler dispatches worker jobs arriving as Pub/Sub messages.
type PubSubHandler struct {
	client       *pubsub.Client
	subscriber   *pubsub.Subscriber
	subscription string
	warmJob      *WarmJob
	logger       zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	WarmJob          *WarmJob
	Logger           zerolog.Logger
}

// JobMessage is the payload published to trigger a worker job.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:       client,
		subscriber:   subscriber,
		subscription: cfg.SubscriptionName,
		warmJob:      cfg.WarmJob,
		logger:       cfg.Logger,
	}, nil
}

// Start blocks receiving messages until the context is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscription).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, h.handleMessage)
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

	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	var err error
	switch jobMsg.JobType {
	case JobCacheWarm:
		err = h.handleCacheWarm(ctx)
	case JobHealthCheck:
		err = h.handleHealthCheck(ctx)
	default:
		// Ack unknown job types so they are not redelivered forever.
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack()
		return
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", jobMsg.JobType).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed")

	msg.Ack()
}

func (h *PubSubHandler) handleCacheWarm(ctx context.Context) error {
	result := h.warmJob.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("total_points", result.TotalPoints).
		Msg("cache warm completed")

	// Consider the run successful if more than half the points warmed.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many warm failures: %d/%d", result.Failed, result.TotalPoints)
	}

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Warm a single point to verify provider connectivity.
	singlePointConfig := WarmConfig{
		Targets: []WarmTarget{
			{
				Name:     "health-check",
				Priority: 1,
				Points:   []Point{{Lat: 13.7563, Lon: 100.5018}}, // Bangkok
			},
		},
		Concurrency:  1,
		Timeout:      10 * time.Second,
		WarmReadings: true,
	}

	healthCheckJob := NewWarmJob(WarmJobConfig{
		Config:            singlePointConfig,
		Logger:            h.logger,
		AirQualityService: h.warmJob.airQualityService,
	})

	result := healthCheckJob.Run(ctx)

	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
