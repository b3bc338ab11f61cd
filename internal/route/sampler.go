package route

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airaware/airaware/internal/airquality"
	"github.com/airaware/airaware/internal/geo"
)

// ExposureSource estimates pollution at a coordinate. Satisfied by
// airquality.Service.
type ExposureSource interface {
	EstimateAt(ctx context.Context, lat, lon float64) (*airquality.InterpolatedPoint, airquality.Freshness, error)
}

// SamplerConfig holds configuration for the route sampler.
type SamplerConfig struct {
	// Source resolves PM2.5 estimates for sample points.
	Source ExposureSource

	// Logger for sampler operations.
	Logger zerolog.Logger

	// IntervalKm is the target spacing between samples (default: 1.0).
	IntervalKm float64

	// MaxConcurrent caps in-flight estimate lookups (default: 4).
	// Upstream providers throttle per-second volume, so keep this modest.
	MaxConcurrent int

	// CallDelay is an optional pause before each lookup dispatch, a
	// second knob for respecting provider quotas (default: 0).
	CallDelay time.Duration
}

// Sampler walks route geometries and annotates them with exposure data.
type Sampler struct {
	source        ExposureSource
	logger        zerolog.Logger
	intervalKm    float64
	maxConcurrent int
	callDelay     time.Duration
}

// NewSampler creates a route sampler.
func NewSampler(cfg SamplerConfig) *Sampler {
	intervalKm := cfg.IntervalKm
	if intervalKm <= 0 {
		intervalKm = 1.0
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &Sampler{
		source:        cfg.Source,
		logger:        cfg.Logger,
		intervalKm:    intervalKm,
		maxConcurrent: maxConcurrent,
		callDelay:     cfg.CallDelay,
	}
}

// SamplePoints reduces a route geometry to points spaced roughly
// intervalKm apart. The first and last vertex are always included, so
// short routes still get endpoint coverage.
func SamplePoints(coords []geo.Point, intervalKm float64) []geo.Point {
	if len(coords) == 0 {
		return nil
	}
	if intervalKm <= 0 {
		return coords
	}

	points := []geo.Point{coords[0]}
	accumulated := 0.0

	for i := 1; i < len(coords)-1; i++ {
		accumulated += geo.HaversineKm(coords[i-1], coords[i])
		if accumulated >= intervalKm {
			points = append(points, coords[i])
			accumulated = 0
		}
	}

	last := coords[len(coords)-1]
	if points[len(points)-1] != last {
		points = append(points, last)
	}

	return points
}

// Annotate samples the candidate's geometry and fills in Samples with
// PM2.5 estimates, preserving route order. Lookups run with bounded
// concurrency; cancelling ctx abandons outstanding lookups. Points the
// source cannot cover are kept with HasData=false rather than dropped,
// so callers can distinguish "no data" from "clean air".
func (s *Sampler) Annotate(ctx context.Context, candidate *Candidate) error {
	if len(candidate.Coordinates) == 0 {
		return ErrNoGeometry
	}

	points := SamplePoints(candidate.Coordinates, s.intervalKm)
	samples := make([]Sample, len(points))

	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, p := range points {
		samples[i] = Sample{Point: p}

		if s.callDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.callDelay):
			}
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p geo.Point) {
			defer wg.Done()
			defer func() { <-sem }()

			estimate, _, err := s.source.EstimateAt(ctx, p.Lat, p.Lon)
			if err != nil {
				s.logger.Debug().Err(err).
					Float64("lat", p.Lat).
					Float64("lon", p.Lon).
					Msg("no exposure data for sample point")
				return
			}

			samples[i].PM25 = estimate.PM25
			samples[i].Confidence = estimate.Confidence
			samples[i].HasData = true
		}(i, p)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	candidate.Samples = samples

	covered := 0
	for _, smp := range samples {
		if smp.HasData {
			covered++
		}
	}
	s.logger.Debug().
		Int("samples", len(samples)).
		Int("covered", covered).
		Int("distance_m", candidate.DistanceMeters).
		Msg("annotated route candidate")

	return nil
}
