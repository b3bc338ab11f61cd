package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/aqi"
	"github.com/airaware/airaware/internal/cache"
	"github.com/airaware/airaware/internal/worker"
)

// countingProvider records coordinate fetches and optionally fails.
type countingProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *countingProvider) FetchByCoordinate(_ context.Context, lat, lon float64) (*airquality.RawObservation, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	value := 90.0
	return &airquality.RawObservation{
		AQI:               &value,
		Latitude:          &lat,
		Longitude:         &lon,
		StationID:         "station-test",
		DominantPollutant: "pm25",
		SubIndices:        map[aqi.Pollutant]float64{aqi.PollutantPM25: value},
	}, nil
}

func (p *countingProvider) FetchNearby(ctx context.Context, lat, lon, _ float64) ([]*airquality.RawObservation, error) {
	obs, err := p.FetchByCoordinate(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return []*airquality.RawObservation{obs}, nil
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testAirQualityService(provider airquality.Provider) *airquality.Service {
	return airquality.NewService(airquality.ServiceConfig{
		Provider:  provider,
		Logger:    zerolog.Nop(),
		Readings:  cache.NewMemory[*airquality.StationReading](),
		Estimates: cache.NewMemory[*airquality.InterpolatedPoint](),
	})
}

func TestDefaultWarmConfig(t *testing.T) {
	cfg := worker.DefaultWarmConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.WarmReadings)
	assert.True(t, cfg.WarmEstimates)
	assert.NotEmpty(t, cfg.Targets)
}

func TestDefaultWarmTargets(t *testing.T) {
	targets := worker.DefaultWarmTargets()

	assert.GreaterOrEqual(t, len(targets), 5)

	var central *worker.WarmTarget
	for i := range targets {
		if targets[i].Name == "Bangkok Central" {
			central = &targets[i]
			break
		}
	}
	require.NotNil(t, central, "Bangkok Central should be in targets")
	assert.Equal(t, 1, central.Priority)
	assert.GreaterOrEqual(t, len(central.Points), 2)
}

func TestWarmConfig_AllPoints(t *testing.T) {
	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name:   "City A",
				Points: []worker.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
			},
			{
				Name:   "City B",
				Points: []worker.Point{{Lat: 3, Lon: 3}},
			},
		},
	}

	points := cfg.AllPoints()
	assert.Len(t, points, 3)
	assert.Equal(t, 3, cfg.TotalPoints())
}

func TestWarmJob_Run_FetchesEveryPoint(t *testing.T) {
	provider := &countingProvider{}

	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name: "Test",
				Points: []worker.Point{
					{Lat: 13.75, Lon: 100.50},
					{Lat: 13.76, Lon: 100.51},
					{Lat: 13.77, Lon: 100.52},
				},
			},
		},
		Concurrency:  2,
		Timeout:      time.Second,
		WarmReadings: true,
	}

	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config:            cfg,
		Logger:            zerolog.Nop(),
		AirQualityService: testAirQualityService(provider),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalPoints)
	assert.Equal(t, 3, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 3, provider.callCount())
}

func TestWarmJob_Run_ProviderFailure(t *testing.T) {
	provider := &countingProvider{err: errors.New("upstream down")}

	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 13.75, Lon: 100.50}},
			},
		},
		Concurrency:  1,
		Timeout:      time.Second,
		WarmReadings: true,
	}

	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config:            cfg,
		Logger:            zerolog.Nop(),
		AirQualityService: testAirQualityService(provider),
	})

	result := job.Run(context.Background())

	assert.Equal(t, 1, result.Failed)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "reading", result.Errors[0].Operation)
}

func TestWarmJob_Run_NoService(t *testing.T) {
	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 13.75, Lon: 100.50}},
			},
		},
		Concurrency:   1,
		Timeout:       time.Second,
		WarmReadings:  true,
		WarmEstimates: true,
	}

	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config: cfg,
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	// Should complete without panicking
	assert.NotNil(t, result)
	assert.Equal(t, 1, result.TotalPoints)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestWarmJob_GetMetrics(t *testing.T) {
	provider := &countingProvider{}

	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 13.75, Lon: 100.50}},
			},
		},
		Concurrency:  1,
		Timeout:      time.Second,
		WarmReadings: true,
	}

	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config:            cfg,
		Logger:            zerolog.Nop(),
		AirQualityService: testAirQualityService(provider),
	})

	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRuns)
	assert.Equal(t, int64(1), metrics.ReadingWarms)
	assert.NotZero(t, metrics.LastRunAt)
	assert.Greater(t, metrics.LastRunDuration, time.Duration(0))
}

func TestWarmJob_MetricsSnapshot(t *testing.T) {
	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name:   "Test",
				Points: []worker.Point{{Lat: 13.75, Lon: 100.50}},
			},
		},
		Concurrency: 1,
		Timeout:     time.Second,
	}

	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config: cfg,
		Logger: zerolog.Nop(),
	})

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_runs")
	assert.Contains(t, snapshot, "successful_warms")
	assert.Contains(t, snapshot, "failed_warms")
	assert.Contains(t, snapshot, "last_run_at")
	assert.Contains(t, snapshot, "last_run_duration")
}

func TestWarmJob_Run_ContextCancellation(t *testing.T) {
	points := make([]worker.Point, 50)
	for i := range points {
		points[i] = worker.Point{Lat: 13.0 + float64(i)*0.01, Lon: 100.0 + float64(i)*0.01}
	}

	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{
				Name:   "Test",
				Points: points,
			},
		},
		Concurrency:  2,
		Timeout:      time.Second,
		WarmReadings: true,
	}

	provider := &countingProvider{}
	job := worker.NewWarmJob(worker.WarmJobConfig{
		Config:            cfg,
		Logger:            zerolog.Nop(),
		AirQualityService: testAirQualityService(provider),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	// Cancelled before any point completed; nothing should be counted as
	// successful plus failed beyond what was already in flight.
	assert.LessOrEqual(t, result.Successful+result.Failed, len(points))
}
