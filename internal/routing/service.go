package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/cache"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the directions backend.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Directions is the cache backend. Defaults to an in-memory store.
	Directions cache.Store[*DirectionsResponse]

	// CacheTTL is how long directions stay fresh (default: 10 minutes;
	// road geometry changes far slower than air quality).
	CacheTTL time.Duration

	// CacheGridSize quantizes endpoints into grid cells for cache keys
	// (default: 0.01 degrees, about 1.1 km).
	CacheGridSize float64
}

// Service fetches directions with caching and a stale-if-error fallback.
type Service struct {
	provider      Provider
	logger        zerolog.Logger
	directions    cache.Store[*DirectionsResponse]
	cacheTTL      time.Duration
	cacheGridSize float64
}

// NewService creates a routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	directions := cfg.Directions
	if directions == nil {
		directions = cache.NewMemory[*DirectionsResponse]()
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		directions:    directions,
		cacheTTL:      cacheTTL,
		cacheGridSize: cacheGridSize,
	}
}

// GetDirections returns route alternatives between two points, serving
// cached results when fresh and stale results when the provider fails.
func (s *Service) GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	if !req.Origin.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if !req.Destination.Valid() {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}

	key := s.cacheKey(req)

	if cached, ok := s.directions.Get(key); ok {
		s.logger.Debug().
			Str("cache_key", key).
			Msg("cache hit for directions")
		return cached, nil
	}

	resp, err := s.provider.GetDirections(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("origin_lat", req.Origin.Lat).
			Float64("origin_lon", req.Origin.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Str("profile", string(req.Profile)).
			Msg("failed to fetch directions")

		if stale, ok := s.directions.GetStale(key); ok {
			s.logger.Warn().
				Str("cache_key", key).
				Time("fetched_at", stale.FetchedAt).
				Msg("serving stale directions after provider error")
			return stale, nil
		}

		return nil, err
	}

	s.directions.Put(key, resp, s.cacheTTL)

	s.logger.Debug().
		Str("cache_key", key).
		Int("route_count", len(resp.Routes)).
		Msg("cached directions response")

	return resp, nil
}

// ProviderName returns the underlying provider's identifier.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// cacheKey quantizes both endpoints onto the grid so nearby requests
// share a cache entry. Format: {profile}:{oLat},{oLon}:{dLat},{dLon}.
func (s *Service) cacheKey(req DirectionsRequest) string {
	snap := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%s:%.2f,%.2f:%.2f,%.2f",
		req.Profile,
		snap(req.Origin.Lat), snap(req.Origin.Lon),
		snap(req.Destination.Lat), snap(req.Destination.Lon),
	)
}
