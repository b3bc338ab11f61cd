// Package route samples route geometries against the air quality engine
// and ranks alternatives by personal health risk.
package route

import (
	"errors"

	"github.com/airaware/airaware/internal/geo"
	"github.com/airaware/airaware/internal/risk"
	"github.com/airaware/airaware/pkg/polyline"
)

// Sentinel errors for route operations.
var (
	// ErrNoRoutes indicates an empty candidate list was submitted for ranking.
	ErrNoRoutes = errors.New("no route candidates to rank")
	// ErrNoGeometry indicates a candidate has no usable coordinate list.
	ErrNoGeometry = errors.New("route candidate has no geometry")
)

// Candidate is one route alternative to be sampled and ranked.
type Candidate struct {
	// Coordinates is the ordered route geometry.
	Coordinates []geo.Point

	DistanceMeters  int
	DurationSeconds int
	Summary         string

	// Samples is populated by the Sampler.
	Samples []Sample
}

// Sample is one exposure measurement along a route.
type Sample struct {
	Point      geo.Point `json:"point"`
	PM25       float64   `json:"pm25"`
	Confidence float64   `json:"confidence"`
	// HasData is false when no station or estimate covered this point;
	// such samples are excluded from the aggregates rather than treated
	// as zero pollution.
	HasData bool `json:"hasData"`
}

// CandidateFromPolyline decodes an encoded polyline geometry into a
// Candidate.
func CandidateFromPolyline(encoded string, distanceMeters, durationSeconds int) (*Candidate, error) {
	coords := polyline.Decode(encoded)
	if len(coords) == 0 {
		return nil, ErrNoGeometry
	}

	points := make([]geo.Point, len(coords))
	for i, c := range coords {
		points[i] = geo.Point{Lat: c.Lat, Lon: c.Lon}
	}

	return &Candidate{
		Coordinates:     points,
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
	}, nil
}

// AveragePM25 averages the PM2.5 of samples that carried data. Returns
// false when no sample had data.
func (c *Candidate) AveragePM25() (float64, bool) {
	var sum float64
	var n int
	for _, s := range c.Samples {
		if s.HasData {
			sum += s.PM25
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MaxPM25 returns the worst sampled PM2.5 along the route. Returns false
// when no sample had data.
func (c *Candidate) MaxPM25() (float64, bool) {
	var max float64
	var found bool
	for _, s := range c.Samples {
		if s.HasData && (!found || s.PM25 > max) {
			max = s.PM25
			found = true
		}
	}
	return max, found
}

// Analysis is the scored outcome for one candidate.
type Analysis struct {
	Index           int             `json:"index"`
	AveragePM25     float64         `json:"averagePm25"`
	MaxPM25         float64         `json:"maxPm25"`
	HasData         bool            `json:"hasData"`
	DistanceMeters  int             `json:"distanceMeters"`
	DurationSeconds int             `json:"durationSeconds"`
	Risk            risk.PHRIResult `json:"risk"`
	SampleCount     int             `json:"sampleCount"`
}

// Ranking is the result of comparing all candidates.
type Ranking struct {
	Analyses     []Analysis `json:"analyses"`
	SafestIndex  int        `json:"safestIndex"`
	FastestIndex int        `json:"fastestIndex"`
	TradeOff     string     `json:"tradeOff"`
}
