package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/airquality"
)

// WarmJob keeps the air quality caches populated for configured points so
// interactive requests rarely pay the provider round trip.
type WarmJob struct {
	config WarmConfig
	logger zerolog.Logger

	airQualityService *airquality.Service

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics.
type WarmMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns       int64
	SuccessfulWarms int64
	FailedWarms     int64
	ReadingWarms    int64
	EstimateWarms   int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config            WarmConfig
	Logger            zerolog.Logger
	AirQualityService *airquality.Service
}

// NewWarmJob creates a new warm job processor.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultWarmConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &WarmJob{
		config:            config,
		logger:            cfg.Logger,
		airQualityService: cfg.AirQualityService,
		metrics:           &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm run.
type WarmResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []WarmError
}

// WarmError represents an error during a warm run.
type WarmError struct {
	Operation string
	Point     Point
	Error     string
}

// Run executes the warm job for all configured targets.
func (j *WarmJob) Run(ctx context.Context) *WarmResult {
	startTime := time.Now()
	result := &WarmResult{
		StartTime:   startTime,
		TotalPoints: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache warm job")

	points := j.config.AllPoints()

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache warm job completed")

	return result
}

type pointResult struct {
	point   Point
	success bool
	errors  []WarmError
}

func (j *WarmJob) warmWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmPoint(ctx, point)
		}
	}
}

func (j *WarmJob) warmPoint(ctx context.Context, point Point) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.WarmReadings && j.airQualityService != nil {
		if err := j.warmReading(pointCtx, point); err != nil {
			result.errors = append(result.errors, WarmError{
				Operation: "reading",
				Point:     point,
				Error:     err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.ReadingWarms, 1)
		}
	}

	if j.config.WarmEstimates && j.airQualityService != nil {
		if err := j.warmEstimate(pointCtx, point); err != nil {
			result.errors = append(result.errors, WarmError{
				Operation: "estimate",
				Point:     point,
				Error:     err.Error(),
			})
			// Estimate failures are non-fatal: sparse regions legitimately
			// have no stations in range.
		} else {
			atomic.AddInt64(&j.metrics.EstimateWarms, 1)
		}
	}

	return result
}

func (j *WarmJob) warmReading(ctx context.Context, point Point) error {
	// Bypass the cache so the provider is always consulted and the entry
	// TTL restarts from now.
	_, _, err := j.airQualityService.Fetch(ctx, point.Lat, point.Lon, false)
	return err
}

func (j *WarmJob) warmEstimate(ctx context.Context, point Point) error {
	_, _, err := j.airQualityService.EstimateAt(ctx, point.Lat, point.Lon)
	return err
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulWarms += int64(result.Successful)
	j.metrics.FailedWarms += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulWarms: j.metrics.SuccessfulWarms,
		FailedWarms:     j.metrics.FailedWarms,
		ReadingWarms:    atomic.LoadInt64(&j.metrics.ReadingWarms),
		EstimateWarms:   atomic.LoadInt64(&j.metrics.EstimateWarms),
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for logging.
func (j *WarmJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_warms":  m.SuccessfulWarms,
		"failed_warms":      m.FailedWarms,
		"reading_warms":     m.ReadingWarms,
		"estimate_warms":    m.EstimateWarms,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
