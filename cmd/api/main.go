// Package main provides the entrypoint for the AirAware API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/airquality/waqi"
	"github.com/airaware/airaware/internal/api"
	"github.com/airaware/airaware/internal/api/handler"
	"github.com/airaware/airaware/internal/api/middleware"
	"github.com/airaware/airaware/internal/cache"
	"github.com/airaware/airaware/internal/database"
	"github.com/airaware/airaware/internal/history"
	"github.com/airaware/airaware/internal/provider/resilience"
	"github.com/airaware/airaware/internal/route"
	"github.com/airaware/airaware/internal/routing"
	"github.com/airaware/airaware/internal/routing/openrouteservice"
	"github.com/airaware/airaware/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airaware-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting AirAware API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	waqiToken := os.Getenv("WAQI_TOKEN")
	if waqiToken == "" {
		log.Fatal().Msg("WAQI_TOKEN is required")
	}

	orsAPIKey := os.Getenv("ORS_API_KEY")
	if orsAPIKey == "" {
		log.Fatal().Msg("ORS_API_KEY is required")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
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

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Provider health registry, surfaced through /v1/ops/status
	registry := resilience.NewRegistry()

	// Initialize air quality provider and service
	waqiClient := waqi.NewClient(waqi.ClientConfig{
		Token:    waqiToken,
		Logger:   log,
		Registry: registry,
	})

	airQualityService := airquality.NewService(airquality.ServiceConfig{
		Provider:  waqiClient,
		Logger:    log,
		Readings:  cache.NewMemory[*airquality.StationReading](),
		Estimates: cache.NewMemory[*airquality.InterpolatedPoint](),
	})
	log.Info().Str("provider", waqiClient.Name()).Msg("air quality service initialized")

	// Initialize routing provider and service
	orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:   orsAPIKey,
		Logger:   log,
		Registry: registry,
	})

	routingService := routing.NewService(routing.ServiceConfig{
		Provider:   orsClient,
		Logger:     log,
		Directions: cache.NewMemory[*routing.DirectionsResponse](),
	})
	log.Info().Str("provider", orsClient.Name()).Msg("routing service initialized")

	// Route exposure sampler
	sampler := route.NewSampler(route.SamplerConfig{
		Source: airQualityService,
		Logger: log,
	})

	// Connect to database; assessment history is optional and the API
	// degrades to score-only responses without it.
	readyChecks := map[string]handler.ReadyCheck{}
	var historyService *history.Service

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable - assessment history disabled")
	} else {
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		historyService = history.NewService(history.ServiceConfig{
			Repository: history.NewPostgresRepository(pool),
			Logger:     log,
		})
		readyChecks["database"] = pool.Ping
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		AirQualityService: airQualityService,
		HistoryService:    historyService,
		RoutingService:    routingService,
		Sampler:           sampler,
		Registry:          registry,
		ReadyChecks:       readyChecks,
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
