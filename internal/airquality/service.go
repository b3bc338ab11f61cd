package airquality

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/cache"
)

// Provider defines the interface for upstream air quality providers.
type Provider interface {
	// FetchByCoordinate fetches the observation for the station nearest
	// to the given coordinate.
	FetchByCoordinate(ctx context.Context, lat, lon float64) (*RawObservation, error)

	// FetchNearby fetches observations for all stations within radiusKm
	// of the coordinate.
	FetchNearby(ctx context.Context, lat, lon, radiusKm float64) ([]*RawObservation, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Readings caches normalized point readings. Required.
	Readings cache.Store[*StationReading]

	// Estimates caches interpolated points. Required when EstimateAt is used.
	Estimates cache.Store[*InterpolatedPoint]

	// CacheTTL for fresh entries (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize quantizes coordinates into cache cells, in degrees
	// (default: 0.01, ~1.1km). Points in the same cell share an entry.
	CacheGridSize float64

	// Interpolation parameters; zero fields take defaults.
	Interpolation InterpolationConfig
}

// Service is the fetch orchestrator: cache, provider, validation,
// normalization and stale fallback behind one linear call.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	readings      cache.Store[*StationReading]
	estimates     cache.Store[*InterpolatedPoint]
	interpolator  *Interpolator
	cacheTTL      time.Duration
	cacheGridSize float64
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	readings := cfg.Readings
	if readings == nil {
		readings = cache.NewMemory[*StationReading]()
	}
	estimates := cfg.Estimates
	if estimates == nil {
		estimates = cache.NewMemory[*InterpolatedPoint]()
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		readings:      readings,
		estimates:     estimates,
		interpolator:  NewInterpolator(cfg.Interpolation),
		cacheTTL:      cacheTTL,
		cacheGridSize: cacheGridSize,
	}
}

// Fetch returns the nearest-station reading for a coordinate.
//
// Order of operations: cache (when useCache), then the upstream provider
// with validation and normalization, then the stale-cache fallback.
// Provider failures never escape as errors beyond ErrNoData: they degrade
// to a stale reading or FreshnessUnavailable.
func (s *Service) Fetch(ctx context.Context, lat, lon float64, useCache bool) (*StationReading, Freshness, error) {
	key := s.cacheKey("pt", lat, lon)

	if useCache {
		if reading, ok := s.readings.Get(key); ok {
			s.logger.Debug().Str("cache_key", key).Msg("cache hit for reading")
			return reading, FreshnessFresh, nil
		}
	}

	raw, err := s.provider.FetchByCoordinate(ctx, lat, lon)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Str("provider", s.provider.Name()).
			Msg("provider fetch failed")
		return s.staleFallback(key, err)
	}

	reading, validation := Normalize(raw, time.Now())
	if reading == nil {
		s.logger.Warn().
			Strs("errors", validation.Errors).
			Str("provider", s.provider.Name()).
			Msg("discarding invalid upstream reading")
		return s.staleFallback(key, ErrInvalidReading)
	}
	for _, w := range validation.Warnings {
		s.logger.Warn().Str("station_id", reading.StationID).Msg("reading warning: " + w)
	}

	s.readings.Put(key, reading, s.cacheTTL)
	return reading, FreshnessFresh, nil
}

// EstimateAt returns an interpolated estimate for a coordinate from all
// stations within interpolation range, with the same cache-then-provider-
// then-stale ladder as Fetch.
func (s *Service) EstimateAt(ctx context.Context, lat, lon float64) (*InterpolatedPoint, Freshness, error) {
	key := s.cacheKey("idw", lat, lon)

	if point, ok := s.estimates.Get(key); ok {
		s.logger.Debug().Str("cache_key", key).Msg("cache hit for estimate")
		return point, FreshnessFresh, nil
	}

	raws, err := s.provider.FetchNearby(ctx, lat, lon, s.interpolator.config.MaxDistanceKm)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("provider nearby fetch failed")
		return s.staleEstimateFallback(key, err)
	}

	now := time.Now()
	readings := make([]*StationReading, 0, len(raws))
	discarded := 0
	for _, raw := range raws {
		reading, validation := Normalize(raw, now)
		if reading == nil {
			discarded++
			s.logger.Debug().Strs("errors", validation.Errors).Msg("discarding invalid station in nearby set")
			continue
		}
		readings = append(readings, reading)
	}
	if discarded > 0 {
		s.logger.Warn().Int("discarded", discarded).Int("kept", len(readings)).Msg("some nearby stations failed validation")
	}

	point, err := s.interpolator.Interpolate(lat, lon, readings)
	if err != nil {
		// Not a provider failure: there is genuinely nothing in range.
		return nil, FreshnessUnavailable, err
	}

	s.estimates.Put(key, point, s.cacheTTL)
	return point, FreshnessFresh, nil
}

// ReadingAge reports how long ago the cached reading for a coordinate was
// stored.
func (s *Service) ReadingAge(lat, lon float64) (time.Duration, bool) {
	return s.readings.Age(s.cacheKey("pt", lat, lon))
}

// ProviderName returns the upstream provider identifier.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// staleFallback serves an expired cache entry when the live path failed.
// With nothing cached the cause (provider error or ErrInvalidReading) is
// wrapped under ErrNoData so callers can still inspect it.
func (s *Service) staleFallback(key string, cause error) (*StationReading, Freshness, error) {
	if reading, ok := s.readings.GetStale(key); ok {
		s.logger.Warn().
			Str("cache_key", key).
			Time("fetched_at", reading.FetchedAt).
			Msg("serving stale air quality reading due to provider error")
		return reading, FreshnessStale, nil
	}
	return nil, FreshnessUnavailable, fmt.Errorf("%w: %w", ErrNoData, cause)
}

func (s *Service) staleEstimateFallback(key string, cause error) (*InterpolatedPoint, Freshness, error) {
	if point, ok := s.estimates.GetStale(key); ok {
		s.logger.Warn().
			Str("cache_key", key).
			Msg("serving stale interpolated estimate due to provider error")
		return point, FreshnessStale, nil
	}
	return nil, FreshnessUnavailable, fmt.Errorf("%w: %w", ErrNoData, cause)
}

// cacheKey quantizes a coordinate onto the cache grid.
func (s *Service) cacheKey(kind string, lat, lon float64) string {
	gridLat := math.Floor(lat/s.cacheGridSize) * s.cacheGridSize
	gridLon := math.Floor(lon/s.cacheGridSize) * s.cacheGridSize
	return fmt.Sprintf("%s:%.2f,%.2f", kind, gridLat, gridLon)
}
