// Package airquality provides ingestion, normalization, interpolation and
// cached access for third-party air quality readings.
package airquality

import (
	"errors"
	"time"

	"github.com/airaware/airaware/internal/aqi"
)

// Sentinel errors.
var (
	// ErrNoData indicates no fresh or stale reading is available for a point.
	ErrNoData = errors.New("no air quality data available")
	// ErrProviderUnavailable indicates the upstream provider could not be reached.
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	// ErrNoStationsInRange indicates no station lies within interpolation range.
	ErrNoStationsInRange = errors.New("no stations within interpolation range")
	// ErrInvalidReading indicates the upstream payload failed validation.
	ErrInvalidReading = errors.New("invalid upstream reading")
)

// RawObservation is the typed DTO for an upstream payload before
// validation. Pointer fields are nil when the upstream omitted the value
// or supplied something non-numeric.
type RawObservation struct {
	// AQI is the composite index. Nil when missing or non-numeric.
	AQI *float64

	// Latitude/Longitude from the station metadata, when reported.
	Latitude  *float64
	Longitude *float64

	StationID   string
	StationName string

	// DominantPollutant as named by the provider (e.g. "pm25").
	DominantPollutant string

	// SubIndices holds per-pollutant AQI sub-indices from the provider's
	// iaqi map. Values are on the AQI scale, not µg/m³.
	SubIndices map[aqi.Pollutant]float64

	// ObservedAt is the provider's observation timestamp, unparsed.
	ObservedAt string
}

// StationReading is one normalized pollutant observation. Readings are
// immutable once created; a fresher reading supersedes rather than
// mutates an older one.
type StationReading struct {
	// AQI is the composite index, always within [0,500].
	AQI int

	// PM25 and PM10 are concentrations in µg/m³. PM25 is never negative
	// and never nil after normalization (derived from AQI when the
	// provider omits it).
	PM25 *float64
	PM10 *float64

	// O3, NO2, SO2, CO are raw AQI sub-indices: no concentration table
	// is defined for them, so the values pass through untranslated.
	// Callers must not treat them as µg/m³.
	O3  *float64
	NO2 *float64
	SO2 *float64
	CO  *float64

	Latitude    float64
	Longitude   float64
	HasLocation bool

	StationID   string
	StationName string

	DominantPollutant string

	// ObservedAt is when the station measured; FetchedAt is when this
	// process retrieved it.
	ObservedAt time.Time
	FetchedAt  time.Time

	// IsInterpolated is false for directly normalized readings.
	IsInterpolated bool
}

// PM25Value returns the PM2.5 concentration, with ok=false when absent.
func (r *StationReading) PM25Value() (float64, bool) {
	if r.PM25 == nil {
		return 0, false
	}
	return *r.PM25, true
}

// Freshness describes how a fetched reading was obtained.
type Freshness string

const (
	// FreshnessFresh means the reading came from cache within TTL or a
	// live provider call.
	FreshnessFresh Freshness = "fresh"
	// FreshnessStale means an expired cache entry was served because the
	// live fetch failed.
	FreshnessStale Freshness = "stale"
	// FreshnessUnavailable means neither a live nor a stale reading exists.
	FreshnessUnavailable Freshness = "unavailable"
)
