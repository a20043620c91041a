package skincare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}), 1e-12)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}), 1e-12)
	assert.Zero(t, Pearson([]float64{3, 3, 3}, []float64{1, 2, 3}))
	assert.Zero(t, Pearson([]float64{1, 2}, []float64{1}))
	assert.Zero(t, Pearson(nil, nil))
	// x = 1..5, y = 2,1,4,3,5 -> cov 8, var 10 each
	assert.InDelta(t, 0.8, Pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 1, 4, 3, 5}), 1e-12)
}

func TestConfidenceAndStrength(t *testing.T) {
	assert.Equal(t, ConfidenceInsufficient, Confidence(4))
	assert.Equal(t, ConfidenceLow, Confidence(5))
	assert.Equal(t, ConfidenceLow, Confidence(13))
	assert.Equal(t, ConfidenceMedium, Confidence(14))
	assert.Equal(t, ConfidenceMedium, Confidence(29))
	assert.Equal(t, ConfidenceHigh, Confidence(30))

	assert.Equal(t, StrengthNone, Strength(0.05))
	assert.Equal(t, StrengthWeak, Strength(-0.1))
	assert.Equal(t, StrengthModerate, Strength(0.3))
	assert.Equal(t, StrengthStrong, Strength(-0.5))
}

func TestAnalyzeInsufficientData(t *testing.T) {
	rep := Analyze([]Day{{SkinCondition: 3, SleepHours: 7}, {SkinCondition: 4, SleepHours: 8}})
	assert.Equal(t, ConfidenceInsufficient, rep.Confidence)
	require.Len(t, rep.Correlations, 4)
	for _, c := range rep.Correlations {
		assert.Nil(t, c.Coefficient)
		assert.Equal(t, StrengthNone, c.Strength)
	}
	assert.Empty(t, rep.Insights)
}

func TestAnalyzeFindsSleepAndStress(t *testing.T) {
	days := []Day{
		{SkinCondition: 1, SleepHours: 5, StressLevel: 5, WaterMl: 1500, ProductCount: 3},
		{SkinCondition: 2, SleepHours: 6, StressLevel: 4, WaterMl: 1500, ProductCount: 3},
		{SkinCondition: 3, SleepHours: 7, StressLevel: 3, WaterMl: 1500, ProductCount: 3},
		{SkinCondition: 4, SleepHours: 8, StressLevel: 2, WaterMl: 1500, ProductCount: 3},
		{SkinCondition: 5, SleepHours: 9, StressLevel: 1, WaterMl: 1500, ProductCount: 3},
	}
	rep := Analyze(days)
	assert.Equal(t, ConfidenceLow, rep.Confidence)

	byFactor := map[string]FactorCorrelation{}
	for _, c := range rep.Correlations {
		byFactor[c.Factor] = c
	}
	require.NotNil(t, byFactor[FactorSleep].Coefficient)
	assert.Equal(t, 1.0, *byFactor[FactorSleep].Coefficient)
	assert.Equal(t, "positive", byFactor[FactorSleep].Direction)
	assert.Equal(t, -1.0, *byFactor[FactorStress].Coefficient)
	assert.Equal(t, StrengthStrong, byFactor[FactorStress].Strength)

	// constant water intake has no variance
	assert.Equal(t, 0.0, *byFactor[FactorWater].Coefficient)
	assert.Equal(t, StrengthNone, byFactor[FactorWater].Strength)
	assert.Empty(t, byFactor[FactorWater].Direction)

	require.Len(t, rep.Insights, 2)
	assert.Equal(t, FactorSleep, rep.Insights[0].Factor)
	assert.Equal(t, FactorStress, rep.Insights[1].Factor)
	assert.Contains(t, rep.Insights[1].Message, "worse")
}
