package airquality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/aqi"
)

func floatPtr(v float64) *float64 { return &v }

func validRaw(now time.Time) *RawObservation {
	return &RawObservation{
		AQI:               floatPtr(118),
		Latitude:          floatPtr(13.7563),
		Longitude:         floatPtr(100.5018),
		StationID:         "5773",
		StationName:       "Bangkok",
		DominantPollutant: "pm25",
		SubIndices: map[aqi.Pollutant]float64{
			aqi.PollutantPM25: 118,
			aqi.PollutantO3:   22,
		},
		ObservedAt: now.Add(-10 * time.Minute).Format(time.RFC3339),
	}
}

func TestValidate_ValidPayload(t *testing.T) {
	now := time.Now()
	result := validateAt(validRaw(now), now)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_FatalCases(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(*RawObservation)
	}{
		{"missing aqi", func(r *RawObservation) { r.AQI = nil }},
		{"aqi negative", func(r *RawObservation) { r.AQI = floatPtr(-1) }},
		{"aqi above 500", func(r *RawObservation) { r.AQI = floatPtr(501) }},
		{"latitude out of range", func(r *RawObservation) { r.Latitude = floatPtr(95) }},
		{"longitude out of range", func(r *RawObservation) { r.Longitude = floatPtr(-200) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw(now)
			tt.mutate(raw)

			result := validateAt(raw, now)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Errors)
		})
	}
}

func TestValidate_NilPayload(t *testing.T) {
	result := Validate(nil)
	assert.False(t, result.Valid)
}

func TestValidate_MissingCoordinatesAreNotFatal(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw.Latitude = nil
	raw.Longitude = nil

	result := validateAt(raw, now)
	assert.True(t, result.Valid, "coordinates are only checked when present")
}

func TestValidate_WarningCases(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(*RawObservation)
	}{
		{"implausible pm25", func(r *RawObservation) { r.SubIndices[aqi.PollutantPM25] = 1500 }},
		{"negative pm25", func(r *RawObservation) { r.SubIndices[aqi.PollutantPM25] = -3 }},
		{"unparseable timestamp", func(r *RawObservation) { r.ObservedAt = "yesterday-ish" }},
		{"observation older than 2h", func(r *RawObservation) {
			r.ObservedAt = now.Add(-3 * time.Hour).Format(time.RFC3339)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw(now)
			tt.mutate(raw)

			result := validateAt(raw, now)
			assert.True(t, result.Valid, "warnings are non-fatal")
			assert.NotEmpty(t, result.Warnings)
		})
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	before := *raw
	beforeSubIndices := map[aqi.Pollutant]float64{}
	for k, v := range raw.SubIndices {
		beforeSubIndices[k] = v
	}

	_ = validateAt(raw, now)

	require.Equal(t, before.AQI, raw.AQI)
	require.Equal(t, before.ObservedAt, raw.ObservedAt)
	require.Equal(t, beforeSubIndices, raw.SubIndices)
}
