package route

import (
	"errors"
	"fmt"
	"math"

	"github.com/airaware/airaware/internal/risk"
)

// ReferenceActivity is the exertion level route scores are computed at.
// Commuting sits between rest and moderate exercise; the rider's travel
// mode is reflected through the dose-factor table instead.
const ReferenceActivity = risk.ActivityLight

// ErrNoExposureData indicates no candidate carried any sampled PM2.5, so
// routes cannot be compared on health risk.
var ErrNoExposureData = errors.New("no exposure data on any route candidate")

// RankRequest compares sampled candidates for one person and travel mode.
type RankRequest struct {
	Candidates []*Candidate
	TravelMode risk.TravelMode
	Person     risk.PersonProfile
}

// Rank scores every candidate and identifies the safest and fastest.
// Deterministic: identical input always yields identical ordering. Ties
// on risk prefer the shorter route, then the lower index.
func Rank(req RankRequest) (*Ranking, error) {
	if len(req.Candidates) == 0 {
		return nil, ErrNoRoutes
	}

	analyses := make([]Analysis, len(req.Candidates))
	anyData := false

	for i, c := range req.Candidates {
		avg, ok := c.AveragePM25()
		maxPM25, _ := c.MaxPM25()

		a := Analysis{
			Index:           i,
			AveragePM25:     avg,
			MaxPM25:         maxPM25,
			HasData:         ok,
			DistanceMeters:  c.DistanceMeters,
			DurationSeconds: c.DurationSeconds,
			SampleCount:     len(c.Samples),
		}

		if ok {
			anyData = true
			a.Risk = risk.ComputePHRI(risk.ExposureProfile{
				PM25:            avg,
				DurationMinutes: float64(c.DurationSeconds) / 60.0,
				ActivityLevel:   ReferenceActivity,
				IsOutdoor:       true,
				TravelMode:      req.TravelMode,
			}, req.Person)
		}

		analyses[i] = a
	}

	if !anyData {
		return nil, ErrNoExposureData
	}

	safest := -1
	fastest := 0
	for i := range analyses {
		if analyses[i].HasData && (safest < 0 || saferThan(analyses[i], analyses[safest])) {
			safest = i
		}
		if analyses[i].DurationSeconds < analyses[fastest].DurationSeconds {
			fastest = i
		}
	}

	return &Ranking{
		Analyses:     analyses,
		SafestIndex:  safest,
		FastestIndex: fastest,
		TradeOff:     tradeOffMessage(analyses, safest, fastest),
	}, nil
}

// saferThan reports whether a should be preferred over b as the safest
// route: lower risk first, then shorter duration, then lower index.
func saferThan(a, b Analysis) bool {
	if a.Risk.Score != b.Risk.Score {
		return a.Risk.Score < b.Risk.Score
	}
	if a.DurationSeconds != b.DurationSeconds {
		return a.DurationSeconds < b.DurationSeconds
	}
	return a.Index < b.Index
}

func tradeOffMessage(analyses []Analysis, safest, fastest int) string {
	if safest == fastest {
		return "The fastest route is also the safest."
	}

	s := analyses[safest]
	f := analyses[fastest]

	extraMinutes := float64(s.DurationSeconds-f.DurationSeconds) / 60.0

	if !f.HasData || f.AveragePM25 <= 0 {
		return fmt.Sprintf(
			"The safest route takes about %.0f extra minutes; the fastest route has no exposure data for comparison.",
			extraMinutes,
		)
	}

	reduction := (f.AveragePM25 - s.AveragePM25) / f.AveragePM25 * 100

	if reduction <= 0 {
		return fmt.Sprintf(
			"The safest route lowers overall risk through shorter exposure, at about %.0f extra minutes of travel.",
			extraMinutes,
		)
	}

	return fmt.Sprintf(
		"The safest route reduces PM2.5 exposure by %.0f%% for about %.0f extra minutes of travel.",
		math.Round(reduction), math.Round(extraMinutes),
	)
}
