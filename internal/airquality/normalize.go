package airquality

import (
	"time"

	"github.com/airaware/airaware/internal/aqi"
)

// Normalize maps a raw observation into a StationReading. It returns nil
// alongside the validation result when validation fails; the caller is
// responsible for logging the errors.
//
// When PM2.5 is absent but AQI is present, the concentration is derived
// from the composite AQI via the breakpoint tables: downstream risk
// scoring needs a concentration, never a bare index.
func Normalize(raw *RawObservation, fetchedAt time.Time) (*StationReading, ValidationResult) {
	validation := Validate(raw)
	if !validation.Valid {
		return nil, validation
	}

	reading := &StationReading{
		AQI:               int(*raw.AQI),
		StationID:         raw.StationID,
		StationName:       raw.StationName,
		DominantPollutant: raw.DominantPollutant,
		FetchedAt:         fetchedAt,
		IsInterpolated:    false,
	}

	if raw.Latitude != nil && raw.Longitude != nil {
		reading.Latitude = *raw.Latitude
		reading.Longitude = *raw.Longitude
		reading.HasLocation = true
	}

	if observedAt, err := time.Parse(time.RFC3339, raw.ObservedAt); err == nil {
		reading.ObservedAt = observedAt
	} else {
		// Unparseable timestamps were already flagged as a warning.
		reading.ObservedAt = fetchedAt
	}

	if sub, ok := raw.SubIndices[aqi.PollutantPM25]; ok {
		c := aqi.ConcentrationFromAQI(aqi.PollutantPM25, sub)
		reading.PM25 = &c.Value
	} else {
		// Derive from the composite AQI instead of leaving it null.
		c := aqi.ConcentrationFromAQI(aqi.PollutantPM25, *raw.AQI)
		reading.PM25 = &c.Value
	}

	if sub, ok := raw.SubIndices[aqi.PollutantPM10]; ok {
		c := aqi.ConcentrationFromAQI(aqi.PollutantPM10, sub)
		reading.PM10 = &c.Value
	}

	// Additive pollutants have no concentration tables: raw sub-indices
	// pass through (see StationReading field docs).
	reading.O3 = subIndexPtr(raw, aqi.PollutantO3)
	reading.NO2 = subIndexPtr(raw, aqi.PollutantNO2)
	reading.SO2 = subIndexPtr(raw, aqi.PollutantSO2)
	reading.CO = subIndexPtr(raw, aqi.PollutantCO)

	return reading, validation
}

func subIndexPtr(raw *RawObservation, pollutant aqi.Pollutant) *float64 {
	if v, ok := raw.SubIndices[pollutant]; ok {
		return &v
	}
	return nil
}
