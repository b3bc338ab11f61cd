package airquality

import (
	"math"
	"sort"

	"github.com/airaware/airaware/internal/geo"
)

// InterpolationConfig holds the IDW parameters.
type InterpolationConfig struct {
	// MaxDistanceKm is the cutoff beyond which stations are ignored.
	// Default: 50.
	MaxDistanceKm float64

	// NearStationKm short-circuits interpolation: when the nearest
	// station is closer than this, its values are returned verbatim with
	// confidence 1.0. Avoids the 1/d^p blow-up at near-zero distance, and
	// very close stations dominate reality anyway. Default: 1.
	NearStationKm float64

	// Power is the inverse-distance exponent. Default: 2.
	Power float64

	// FullConfidenceStations is the station count at which the count
	// factor saturates. Default: 5.
	FullConfidenceStations int
}

// DefaultInterpolationConfig returns the default IDW parameters.
func DefaultInterpolationConfig() InterpolationConfig {
	return InterpolationConfig{
		MaxDistanceKm:          50,
		NearStationKm:          1,
		Power:                  2.0,
		FullConfidenceStations: 5,
	}
}

// Confidence blend weights. The nearest-distance factor carries the most
// weight; the entropy factor rewards an even spread of contributions.
const (
	confidenceCountWeight    = 0.3
	confidenceDistanceWeight = 0.5
	confidenceEntropyWeight  = 0.2
)

// Contribution describes one station's share of an interpolated value.
type Contribution struct {
	StationID  string
	Weight     float64 // normalized, contributions sum to 1
	DistanceKm float64
}

// InterpolatedPoint is a derived, never-fetched estimate for a coordinate
// not co-located with a station. An empty Contributors list never occurs:
// when no value can be computed the Interpolator returns an error instead
// of a dummy zero.
type InterpolatedPoint struct {
	Latitude  float64
	Longitude float64
	PM25      float64
	AQI       float64
	// Confidence is in [0,1], rounded to 2 decimals.
	Confidence   float64
	Contributors []Contribution
}

// Interpolator estimates pollutant concentration at arbitrary coordinates
// from nearby station readings via inverse distance weighting. It is
// stateless and safe for concurrent use.
//
// Stations reporting the same physical location under different IDs are
// each counted separately; co-located duplicates therefore skew the
// weighting toward that location.
type Interpolator struct {
	config InterpolationConfig
}

// NewInterpolator creates an Interpolator, filling zero config fields
// with defaults.
func NewInterpolator(config InterpolationConfig) *Interpolator {
	def := DefaultInterpolationConfig()
	if config.MaxDistanceKm <= 0 {
		config.MaxDistanceKm = def.MaxDistanceKm
	}
	if config.NearStationKm <= 0 {
		config.NearStationKm = def.NearStationKm
	}
	if config.Power <= 0 {
		config.Power = def.Power
	}
	if config.FullConfidenceStations <= 0 {
		config.FullConfidenceStations = def.FullConfidenceStations
	}
	return &Interpolator{config: config}
}

type stationDistance struct {
	reading    *StationReading
	pm25       float64
	distanceKm float64
}

// Interpolate estimates PM2.5 and AQI at the target coordinate.
// Returns ErrNoStationsInRange when no usable station lies within
// MaxDistanceKm; callers must surface this as "no data", never as zero.
func (i *Interpolator) Interpolate(lat, lon float64, readings []*StationReading) (*InterpolatedPoint, error) {
	target := geo.Point{Lat: lat, Lon: lon}

	var candidates []stationDistance
	for _, r := range readings {
		if r == nil || !r.HasLocation {
			continue
		}
		pm25, ok := r.PM25Value()
		if !ok {
			continue
		}
		dist := geo.HaversineKm(target, geo.Point{Lat: r.Latitude, Lon: r.Longitude})
		if dist > i.config.MaxDistanceKm {
			continue
		}
		candidates = append(candidates, stationDistance{reading: r, pm25: pm25, distanceKm: dist})
	}

	if len(candidates) == 0 {
		return nil, ErrNoStationsInRange
	}

	// Ties keep input order.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distanceKm < candidates[b].distanceKm
	})

	nearest := candidates[0]
	if nearest.distanceKm < i.config.NearStationKm {
		return &InterpolatedPoint{
			Latitude:   lat,
			Longitude:  lon,
			PM25:       nearest.pm25,
			AQI:        float64(nearest.reading.AQI),
			Confidence: 1.0,
			Contributors: []Contribution{{
				StationID:  nearest.reading.StationID,
				Weight:     1.0,
				DistanceKm: nearest.distanceKm,
			}},
		}, nil
	}

	var totalWeight, pm25Sum, aqiSum float64
	weights := make([]float64, len(candidates))
	for idx, c := range candidates {
		w := 1.0 / math.Pow(c.distanceKm, i.config.Power)
		weights[idx] = w
		totalWeight += w
		pm25Sum += w * c.pm25
		aqiSum += w * float64(c.reading.AQI)
	}

	contributors := make([]Contribution, len(candidates))
	for idx, c := range candidates {
		contributors[idx] = Contribution{
			StationID:  c.reading.StationID,
			Weight:     weights[idx] / totalWeight,
			DistanceKm: c.distanceKm,
		}
	}

	return &InterpolatedPoint{
		Latitude:     lat,
		Longitude:    lon,
		PM25:         pm25Sum / totalWeight,
		AQI:          aqiSum / totalWeight,
		Confidence:   i.confidence(contributors, nearest.distanceKm),
		Contributors: contributors,
	}, nil
}

// confidence blends three normalized factors: station count, nearest
// distance, and the Shannon entropy of the weight distribution (more even
// contribution across stations raises confidence).
func (i *Interpolator) confidence(contributors []Contribution, nearestKm float64) float64 {
	countFactor := math.Min(float64(len(contributors))/float64(i.config.FullConfidenceStations), 1)
	distanceFactor := 1 - nearestKm/i.config.MaxDistanceKm

	entropyFactor := 1.0
	if len(contributors) > 1 {
		var entropy float64
		for _, c := range contributors {
			if c.Weight > 0 {
				entropy -= c.Weight * math.Log(c.Weight)
			}
		}
		entropyFactor = entropy / math.Log(float64(len(contributors)))
	}

	c := confidenceCountWeight*countFactor +
		confidenceDistanceWeight*distanceFactor +
		confidenceEntropyWeight*entropyFactor
	return math.Round(c*100) / 100
}
