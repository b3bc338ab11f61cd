// Package routing retrieves alternative route geometries from a
// directions provider for exposure comparison.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/airaware/airaware/internal/geo"
	"github.com/airaware/airaware/internal/risk"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the directions provider is down or
	// its circuit breaker is open.
	ErrProviderUnavailable = errors.New("directions provider unavailable")
	// ErrNoRouteFound indicates no route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider quota was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates out-of-range coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider is a directions backend.
type Provider interface {
	// GetDirections retrieves route alternatives between two points.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name identifies the provider for logging and health reporting.
	Name() string
	// SupportedProfiles lists the profiles this provider can route.
	SupportedProfiles() []Profile
}

// Profile is a provider routing profile.
type Profile string

const (
	ProfileWalk  Profile = "foot-walking"
	ProfileBike  Profile = "cycling-regular"
	ProfileDrive Profile = "driving-car"
)

// ProfileForMode maps a travel mode to the closest routing profile.
// Transit modes have no street-level profile and route as driving, which
// approximates the road network they follow.
func ProfileForMode(mode risk.TravelMode) Profile {
	switch mode {
	case risk.TravelWalking:
		return ProfileWalk
	case risk.TravelCycling:
		return ProfileBike
	default:
		return ProfileDrive
	}
}

// DirectionsRequest asks for route alternatives between two points.
type DirectionsRequest struct {
	Origin      geo.Point
	Destination geo.Point
	Profile     Profile
	// MaxAlternatives caps returned alternatives (default: 2).
	MaxAlternatives int
}

// DirectionsResponse carries the provider's route alternatives.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is one alternative returned by the provider.
type Route struct {
	// GeometryPolyline is the encoded geometry at 1e-5 precision.
	GeometryPolyline string
	DistanceMeters   int
	DurationSeconds  int
	Summary          string
}

// Error carries provider-level error detail.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
