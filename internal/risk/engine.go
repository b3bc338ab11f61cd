// Package risk computes the Personal Health Risk Index (PHRI): a bounded
// [0,100] score combining a pollutant exposure profile with a personal
// disease profile. All functions are pure; the calibration values are
// named constants so domain experts can retune them without touching the
// engine logic.
package risk

import "math"

// ActivityLevel describes physical exertion during exposure. Minute
// ventilation rises with exertion, so the multipliers are strictly
// ordered rest < light < moderate < heavy.
type ActivityLevel string

const (
	ActivityRest     ActivityLevel = "rest"
	ActivityLight    ActivityLevel = "light"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHeavy    ActivityLevel = "heavy"
)

// Disease tags increasing sensitivity to particulate exposure.
type Disease string

const (
	DiseaseAsthma         Disease = "asthma"
	DiseaseCOPD           Disease = "copd"
	DiseaseCardiovascular Disease = "cardiovascular"
	DiseaseElderly        Disease = "elderly"
	DiseaseGeneral        Disease = "general"
)

// RiskLevel categorizes a PHRI score.
type RiskLevel string

const (
	LevelLow      RiskLevel = "low"
	LevelModerate RiskLevel = "moderate"
	LevelHigh     RiskLevel = "high"
	LevelSevere   RiskLevel = "severe"
)

// Category thresholds. Exposed as constants so tests and future
// recalibration can target them explicitly.
const (
	ThresholdModerate = 25.0
	ThresholdHigh     = 50.0
	ThresholdSevere   = 75.0
)

// Calibration parameters. Ordering invariants matter more than the exact
// values: masks and indoor shelter never raise dose, disease tags never
// lower sensitivity.
const (
	// scoreScale converts effective dose (µg/m³·h equivalents) to score
	// points.
	scoreScale = 0.12

	// MaskDoseFactor is the remaining effective dose fraction with an
	// N95-class mask worn.
	MaskDoseFactor = 0.4

	// IndoorDoseFactor is the remaining effective dose fraction indoors,
	// assuming building filtration.
	IndoorDoseFactor = 0.5
)

// activityMultipliers approximate relative minute ventilation.
var activityMultipliers = map[ActivityLevel]float64{
	ActivityRest:     1.0,
	ActivityLight:    1.5,
	ActivityModerate: 2.0,
	ActivityHeavy:    3.0,
}

// diseaseExcess is each tag's additional sensitivity above baseline.
// Tags accumulate additively: sensitivity = 1 + Σ excess.
var diseaseExcess = map[Disease]float64{
	DiseaseAsthma:         0.5,
	DiseaseCOPD:           0.7,
	DiseaseCardiovascular: 0.4,
	DiseaseElderly:        0.3,
	DiseaseGeneral:        0.0,
}

// ExposureProfile describes one pollutant exposure episode.
type ExposureProfile struct {
	// PM25 is the concentration in µg/m³.
	PM25 float64

	DurationMinutes float64
	ActivityLevel   ActivityLevel
	IsOutdoor       bool
	HasMask         bool
	TravelMode      TravelMode
}

// PersonProfile describes the exposed person.
type PersonProfile struct {
	Age           int
	Diseases      []Disease
	SmokingStatus bool
}

// Breakdown lists the factors behind a score, for explanation surfaces.
type Breakdown struct {
	EffectivePM25      float64 `json:"effectivePm25"`
	Hours              float64 `json:"hours"`
	ActivityMultiplier float64 `json:"activityMultiplier"`
	DoseFactor         float64 `json:"doseFactor"`
	Sensitivity        float64 `json:"sensitivity"`
}

// PHRIResult is the scored outcome.
type PHRIResult struct {
	// Score is in [0,100] and monotonic in exposure.
	Score     float64    `json:"score"`
	Level     RiskLevel  `json:"level"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// ComputePHRI scores an exposure episode for a person. Pure function:
// identical inputs always produce identical results.
func ComputePHRI(exposure ExposureProfile, person PersonProfile) PHRIResult {
	effectivePM25 := exposure.PM25 * exposure.TravelMode.DoseFactor()
	hours := exposure.DurationMinutes / 60.0

	activity, ok := activityMultipliers[exposure.ActivityLevel]
	if !ok {
		activity = activityMultipliers[ActivityLight]
	}

	doseFactor := 1.0
	if exposure.HasMask {
		doseFactor *= MaskDoseFactor
	}
	if !exposure.IsOutdoor {
		doseFactor *= IndoorDoseFactor
	}

	sensitivity := 1.0
	for _, d := range person.Diseases {
		sensitivity += diseaseExcess[d]
	}

	hazard := effectivePM25 * hours * activity * doseFactor * sensitivity
	score := math.Min(math.Max(hazard*scoreScale, 0), 100)

	return PHRIResult{
		Score: score,
		Level: Categorize(score),
		Breakdown: &Breakdown{
			EffectivePM25:      effectivePM25,
			Hours:              hours,
			ActivityMultiplier: activity,
			DoseFactor:         doseFactor,
			Sensitivity:        sensitivity,
		},
	}
}

// Categorize maps a score to its risk level.
func Categorize(score float64) RiskLevel {
	switch {
	case score < ThresholdModerate:
		return LevelLow
	case score < ThresholdHigh:
		return LevelModerate
	case score < ThresholdSevere:
		return LevelHigh
	default:
		return LevelSevere
	}
}
