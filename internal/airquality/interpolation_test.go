package airquality_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/airquality"
)

func stationReading(id string, lat, lon, pm25 float64, aqiValue int) *airquality.StationReading {
	return &airquality.StationReading{
		AQI:         aqiValue,
		PM25:        &pm25,
		Latitude:    lat,
		Longitude:   lon,
		HasLocation: true,
		StationID:   id,
		StationName: id,
		ObservedAt:  time.Now(),
		FetchedAt:   time.Now(),
	}
}

func TestInterpolator_BetweenTwoStations(t *testing.T) {
	// Bangkok test geometry: query point halfway between two stations.
	readings := []*airquality.StationReading{
		stationReading("A", 13.70, 100.50, 20, 60),
		stationReading("B", 13.80, 100.60, 80, 160),
	}

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	point, err := interpolator.Interpolate(13.75, 100.55, readings)
	require.NoError(t, err)

	assert.Greater(t, point.PM25, 20.0)
	assert.Less(t, point.PM25, 80.0)
	assert.Less(t, point.Confidence, 1.0)
	assert.Len(t, point.Contributors, 2, "both stations must be listed as contributors")
}

func TestInterpolator_NoStationsInRange(t *testing.T) {
	readings := []*airquality.StationReading{
		stationReading("far", 13.70, 100.50, 20, 60),
	}

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	// Chiang Mai, several hundred km from Bangkok.
	_, err := interpolator.Interpolate(18.79, 98.98, readings)
	require.Error(t, err)
	assert.ErrorIs(t, err, airquality.ErrNoStationsInRange)
}

func TestInterpolator_NearStationShortCircuit(t *testing.T) {
	readings := []*airquality.StationReading{
		stationReading("close", 13.7563, 100.5018, 42.5, 118),
		stationReading("other", 13.80, 100.60, 80, 160),
	}

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	point, err := interpolator.Interpolate(13.7563, 100.5018, readings)
	require.NoError(t, err)

	assert.Equal(t, 42.5, point.PM25, "exact station coordinate reproduces the station value")
	assert.Equal(t, 1.0, point.Confidence)
	require.Len(t, point.Contributors, 1)
	assert.Equal(t, "close", point.Contributors[0].StationID)
	assert.Equal(t, 1.0, point.Contributors[0].Weight)
}

func TestInterpolator_WeightsSumToOne(t *testing.T) {
	readings := []*airquality.StationReading{
		stationReading("A", 13.70, 100.50, 20, 60),
		stationReading("B", 13.80, 100.60, 80, 160),
		stationReading("C", 13.72, 100.58, 35, 100),
	}

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	point, err := interpolator.Interpolate(13.75, 100.55, readings)
	require.NoError(t, err)

	var total float64
	for _, c := range point.Contributors {
		total += c.Weight
		assert.Greater(t, c.DistanceKm, 0.0)
	}
	assert.InDelta(t, 1.0, total, 0.001)
}

func TestInterpolator_ConfidenceBounds(t *testing.T) {
	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())

	cases := [][]*airquality.StationReading{
		{stationReading("lone", 13.70, 100.50, 20, 60)},
		{
			stationReading("A", 13.70, 100.50, 20, 60),
			stationReading("B", 13.80, 100.60, 80, 160),
			stationReading("C", 13.72, 100.58, 35, 100),
			stationReading("D", 13.78, 100.52, 50, 130),
			stationReading("E", 13.74, 100.56, 44, 120),
		},
	}

	for _, readings := range cases {
		point, err := interpolator.Interpolate(13.75, 100.55, readings)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, point.Confidence, 0.0)
		assert.LessOrEqual(t, point.Confidence, 1.0)
	}
}

func TestInterpolator_CloserStationDominates(t *testing.T) {
	readings := []*airquality.StationReading{
		stationReading("near", 13.76, 100.50, 10, 40),
		stationReading("far", 13.95, 100.50, 100, 180),
	}

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	point, err := interpolator.Interpolate(13.775, 100.50, readings)
	require.NoError(t, err)

	assert.Less(t, point.PM25, 30.0, "closer station should dominate: got %f", point.PM25)
}

func TestInterpolator_DuplicateStationsCountedSeparately(t *testing.T) {
	// Two instruments at one physical location are both weighted; this
	// skews the estimate toward their shared coordinate.
	readings := []*airquality.StationReading{
		stationReading("dup-1", 13.70, 100.50, 60, 140),
		stationReading("dup-2", 13.70, 100.50, 60, 140),
		stationReading("other", 13.80, 100.60, 20, 60),
	}

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	point, err := interpolator.Interpolate(13.75, 100.55, readings)
	require.NoError(t, err)
	assert.Len(t, point.Contributors, 3)
	assert.Greater(t, point.PM25, 40.0, "duplicated location pulls the estimate toward it")
}

func TestInterpolator_SkipsReadingsWithoutLocationOrPM25(t *testing.T) {
	noLocation := stationReading("no-loc", 13.75, 100.55, 30, 90)
	noLocation.HasLocation = false

	noPM25 := stationReading("no-pm", 13.75, 100.55, 0, 90)
	noPM25.PM25 = nil

	interpolator := airquality.NewInterpolator(airquality.DefaultInterpolationConfig())
	_, err := interpolator.Interpolate(13.75, 100.55, []*airquality.StationReading{noLocation, noPM25})
	assert.ErrorIs(t, err, airquality.ErrNoStationsInRange)
}
