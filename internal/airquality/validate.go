package airquality

import (
	"fmt"
	"time"

	"github.com/airaware/airaware/internal/aqi"
)

// Validation bounds.
const (
	// MaxPlausiblePM25 is the upper bound of the plausible PM2.5 band in
	// µg/m³. Sub-indices outside it are flagged, not rejected.
	MaxPlausiblePM25 = 1000.0

	// MaxObservationAge is how old an observation may be before a
	// staleness warning is emitted.
	MaxObservationAge = 2 * time.Hour
)

// ValidationResult reports structural and range checks on a raw payload.
// Errors are fatal (the reading must be discarded); warnings are not.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate inspects a raw observation without mutating it.
//
// Fatal: AQI missing, non-numeric or outside [0,500]; coordinates present
// but outside WGS84 ranges. Warnings: PM2.5 sub-index outside the
// plausible band, unparseable timestamp, observation older than
// MaxObservationAge.
func Validate(raw *RawObservation) ValidationResult {
	return validateAt(raw, time.Now())
}

// validateAt is Validate with an injectable clock for tests.
func validateAt(raw *RawObservation, now time.Time) ValidationResult {
	var result ValidationResult

	if raw == nil {
		result.Errors = append(result.Errors, "payload is empty")
		return result
	}

	if raw.AQI == nil {
		result.Errors = append(result.Errors, "aqi is missing or non-numeric")
	} else if *raw.AQI < 0 || *raw.AQI > 500 {
		result.Errors = append(result.Errors, fmt.Sprintf("aqi %v outside [0,500]", *raw.AQI))
	}

	if raw.Latitude != nil && (*raw.Latitude < -90 || *raw.Latitude > 90) {
		result.Errors = append(result.Errors, fmt.Sprintf("latitude %v outside [-90,90]", *raw.Latitude))
	}
	if raw.Longitude != nil && (*raw.Longitude < -180 || *raw.Longitude > 180) {
		result.Errors = append(result.Errors, fmt.Sprintf("longitude %v outside [-180,180]", *raw.Longitude))
	}

	if pm25, ok := raw.SubIndices[aqi.PollutantPM25]; ok {
		if pm25 < 0 || pm25 > MaxPlausiblePM25 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("pm25 %v outside plausible [0,%v] band", pm25, MaxPlausiblePM25))
		}
	}

	if raw.ObservedAt != "" {
		observedAt, err := time.Parse(time.RFC3339, raw.ObservedAt)
		if err != nil {
			result.Warnings = append(result.Warnings, "timestamp unparseable: "+raw.ObservedAt)
		} else if now.Sub(observedAt) > MaxObservationAge {
			result.Warnings = append(result.Warnings, fmt.Sprintf("observation is %s old", now.Sub(observedAt).Round(time.Minute)))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
