// Package main provides the entrypoint for the AirAware background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/airquality/waqi"
	"github.com/airaware/airaware/internal/cache"
	"github.com/airaware/airaware/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airaware-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirAware worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	waqiToken := os.Getenv("WAQI_TOKEN")
	if waqiToken == "" {
		log.Fatal().Msg("WAQI_TOKEN is required")
	}

	airQualityService := airquality.NewService(airquality.ServiceConfig{
		Provider: waqi.NewClient(waqi.ClientConfig{
			Token:  waqiToken,
			Logger: log,
		}),
		Logger:    log,
		Readings:  cache.NewMemory[*airquality.StationReading](),
		Estimates: cache.NewMemory[*airquality.InterpolatedPoint](),
	})

	warmJob := worker.NewWarmJob(worker.WarmJobConfig{
		Config:            worker.DefaultWarmConfig(),
		Logger:            log,
		AirQualityService: airQualityService,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create HTTP server for health checks
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

	// When a Pub/Sub subscription is configured, jobs arrive as messages.
	// Otherwise fall back to a local interval timer.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			WarmJob:          warmJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := pubsubHandler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
	} else {
		interval := 10 * time.Minute
		if raw := os.Getenv("WARM_INTERVAL_MINUTES"); raw != "" {
			if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
				interval = time.Duration(minutes) * time.Minute
			}
		}

		go func() {
			log.Info().Dur("interval", interval).Msg("running cache warm on local timer")

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			warmJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					warmJob.Run(ctx)
					log.Debug().Fields(warmJob.MetricsSnapshot()).Msg("warm metrics")
				}
			}
		}()
	}

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
