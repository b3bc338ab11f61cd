package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airaware/airaware/internal/risk"
)

func heavyOutdoorHour(pm25 float64) risk.ExposureProfile {
	return risk.ExposureProfile{
		PM25:            pm25,
		DurationMinutes: 60,
		ActivityLevel:   risk.ActivityHeavy,
		IsOutdoor:       true,
		TravelMode:      risk.TravelWalking,
	}
}

func TestComputePHRISevereForAsthmaticRunnerInHaze(t *testing.T) {
	exposure := heavyOutdoorHour(150)
	person := risk.PersonProfile{Age: 34, Diseases: []risk.Disease{risk.DiseaseAsthma}}

	result := risk.ComputePHRI(exposure, person)

	assert.GreaterOrEqual(t, result.Score, risk.ThresholdSevere)
	assert.Equal(t, risk.LevelSevere, result.Level)
	require.NotNil(t, result.Breakdown)
	assert.InDelta(t, 1.5, result.Breakdown.Sensitivity, 1e-9)
	assert.InDelta(t, 3.0, result.Breakdown.ActivityMultiplier, 1e-9)
}

func TestComputePHRIMaskStrictlyLowersScore(t *testing.T) {
	person := risk.PersonProfile{Diseases: []risk.Disease{risk.DiseaseAsthma}}

	unmasked := risk.ComputePHRI(heavyOutdoorHour(150), person)

	masked := heavyOutdoorHour(150)
	masked.HasMask = true
	withMask := risk.ComputePHRI(masked, person)

	assert.Less(t, withMask.Score, unmasked.Score)
	assert.InDelta(t, unmasked.Score*risk.MaskDoseFactor, withMask.Score, 1e-9)
}

func TestComputePHRIIndoorLowersScore(t *testing.T) {
	outdoor := heavyOutdoorHour(80)
	indoor := outdoor
	indoor.IsOutdoor = false

	out := risk.ComputePHRI(outdoor, risk.PersonProfile{})
	in := risk.ComputePHRI(indoor, risk.PersonProfile{})

	assert.Less(t, in.Score, out.Score)
}

func TestComputePHRIMonotonicInDuration(t *testing.T) {
	person := risk.PersonProfile{}
	prev := -1.0
	for _, minutes := range []float64{10, 30, 60, 120, 240} {
		e := heavyOutdoorHour(60)
		e.DurationMinutes = minutes
		score := risk.ComputePHRI(e, person).Score
		assert.Greater(t, score, prev, "score should rise with duration (%v min)", minutes)
		prev = score
	}
}

func TestComputePHRIDiseasesAccumulateAdditively(t *testing.T) {
	e := heavyOutdoorHour(40)

	single := risk.ComputePHRI(e, risk.PersonProfile{Diseases: []risk.Disease{risk.DiseaseAsthma}})
	double := risk.ComputePHRI(e, risk.PersonProfile{
		Diseases: []risk.Disease{risk.DiseaseAsthma, risk.DiseaseCOPD},
	})

	require.NotNil(t, double.Breakdown)
	assert.InDelta(t, 2.2, double.Breakdown.Sensitivity, 1e-9)
	assert.Greater(t, double.Score, single.Score)
}

func TestComputePHRIClampedToHundred(t *testing.T) {
	e := heavyOutdoorHour(900)
	e.DurationMinutes = 600
	result := risk.ComputePHRI(e, risk.PersonProfile{Diseases: []risk.Disease{risk.DiseaseCOPD}})

	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, risk.LevelSevere, result.Level)
}

func TestComputePHRIZeroExposureIsLow(t *testing.T) {
	result := risk.ComputePHRI(risk.ExposureProfile{ActivityLevel: risk.ActivityRest}, risk.PersonProfile{})

	assert.Zero(t, result.Score)
	assert.Equal(t, risk.LevelLow, result.Level)
}

func TestComputePHRIIsPure(t *testing.T) {
	e := heavyOutdoorHour(75)
	p := risk.PersonProfile{Diseases: []risk.Disease{risk.DiseaseElderly}}

	first := risk.ComputePHRI(e, p)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, risk.ComputePHRI(e, p))
	}
}

func TestCategorizeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  risk.RiskLevel
	}{
		{0, risk.LevelLow},
		{24.99, risk.LevelLow},
		{25, risk.LevelModerate},
		{49.99, risk.LevelModerate},
		{50, risk.LevelHigh},
		{74.99, risk.LevelHigh},
		{75, risk.LevelSevere},
		{100, risk.LevelSevere},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, risk.Categorize(tc.score), "score %v", tc.score)
	}
}

func TestTravelModeDoseFactorOrdering(t *testing.T) {
	assert.Equal(t, 1.0, risk.TravelWalking.DoseFactor())
	assert.Less(t, risk.TravelMetro.DoseFactor(), risk.TravelCar.DoseFactor())
	assert.Less(t, risk.TravelCar.DoseFactor(), risk.TravelBus.DoseFactor())
	assert.Less(t, risk.TravelBus.DoseFactor(), risk.TravelCycling.DoseFactor())

	// Unknown mode falls back to the conservative open-air factor.
	assert.Equal(t, 1.0, risk.TravelMode("hovercraft").DoseFactor())
	assert.False(t, risk.TravelMode("hovercraft").Valid())
	assert.True(t, risk.TravelMetro.Valid())
}
