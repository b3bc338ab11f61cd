// Package api provides the HTTP API for AirAware.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/api/handler"
	"github.com/airaware/airaware/internal/api/middleware"
	"github.com/airaware/airaware/internal/history"
	"github.com/airaware/airaware/internal/provider/resilience"
	"github.com/airaware/airaware/internal/route"
	"github.com/airaware/airaware/internal/routing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version           string
	BuildTime         string
	Logger            zerolog.Logger
	ServiceName       string
	Metrics           *middleware.Metrics
	AirQualityService *airquality.Service
	HistoryService    *history.Service
	RoutingService    *routing.Service
	Sampler           *route.Sampler
	Registry          *resilience.Registry
	ReadyChecks       map[string]handler.ReadyCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airaware-api"
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
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.ReadyChecks)
	airQualityHandler := handler.NewAirQualityHandler(cfg.AirQualityService)
	riskHandler := handler.NewRiskHandler(cfg.AirQualityService, cfg.HistoryService)
	routeHandler := handler.NewRouteHandler(cfg.RoutingService, cfg.Sampler)

	// Rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Air quality lookups - standard rate limiting
		r.Route("/air-quality", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", airQualityHandler.Current)
			r.Get("/interpolated", airQualityHandler.Interpolated)
		})

		// Risk scoring and assessment history - standard rate limiting
		r.Route("/risk", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.With(middleware.RequireJSON).Post("/score", riskHandler.Score)
			r.Get("/assessments", riskHandler.ListAssessments)
		})

		// Route ranking - expensive compute, strict rate limiting
		r.With(expensiveRateLimit, middleware.RequireJSON).
			Post("/routes/rank", routeHandler.Rank)
	})

	return r
}
