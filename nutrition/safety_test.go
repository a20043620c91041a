package nutrition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestAssessSodium(t *testing.T) {
	ws := Assess("ramen", map[string]float64{"NA": 1000}, AssessmentContext{AgeYears: 30})
	require.Len(t, ws, 1)
	assert.Equal(t, "sodium_very_high", ws[0].Code)
	assert.Equal(t, SeverityHigh, ws[0].Severity)
	assert.InDelta(t, 43.48, ws[0].PercentOfLimit, 0.01)
	assert.False(t, Safe(ws))

	ws = Assess("soup", map[string]float64{"NA": 500}, AssessmentContext{AgeYears: 30})
	assert.Equal(t, []string{"sodium_high"}, codes(ws))
	assert.True(t, Safe(ws))
}

func TestAssessChildSodiumLimit(t *testing.T) {
	// 500 mg is 33% of the 4-8y limit of 1500 mg
	ws := Assess("soup", map[string]float64{"NA": 500}, AssessmentContext{AgeYears: 6})
	require.Len(t, ws, 1)
	assert.InDelta(t, 33.33, ws[0].Value, 0.01)
}

func TestAssessTransFat(t *testing.T) {
	ws := Assess("snack", map[string]float64{"FATRN": 0.3}, AssessmentContext{})
	assert.Equal(t, []string{"trans_fat_present"}, codes(ws))
	assert.Equal(t, SeverityCaution, ws[0].Severity)

	ws = Assess("snack", map[string]float64{"FATRN": 0.6}, AssessmentContext{})
	assert.Equal(t, SeverityHigh, ws[0].Severity)
}

func TestAssessInfantAddedSugar(t *testing.T) {
	ws := Assess("puree", map[string]float64{"SUGAR.added": 5}, AssessmentContext{AgeYears: 1})
	assert.Equal(t, []string{"added_sugars_infants"}, codes(ws))
	assert.Equal(t, []string{"Under age 2: avoid added sugars."}, Messages(ws))
}

func TestAssessAddedSugarDailyShare(t *testing.T) {
	// 1000 kcal target -> 25 g/day limit; 12 g is 48%
	ws := Assess("soda", map[string]float64{"SUGAR_ADDED": 12, "ENERC_KCAL": 48}, AssessmentContext{CalorieTarget: 1000})
	assert.ElementsMatch(t, []string{"added_sugars_high_item", "added_sugars_very_high_daily_share"}, codes(ws))
}

func TestAssessNameHeuristics(t *testing.T) {
	assert.Contains(t, codes(Assess("Butter croissant", nil, AssessmentContext{})), "satfat_source_heuristic")
	assert.Contains(t, codes(Assess("Oatmeal", nil, AssessmentContext{})), "whole_grain_positive")
	assert.Contains(t, codes(Assess("white rice", nil, AssessmentContext{})), "refined_grain_nudge")
	assert.Empty(t, Assess("apple", nil, AssessmentContext{}))
}

func TestAssessMacroDistribution(t *testing.T) {
	ws := Assess("candy", map[string]float64{"CHOCDF": 50, "PROCNT": 5, "FAT": 1}, AssessmentContext{})
	assert.ElementsMatch(t, []string{
		"amdr_carbs_out_of_range",
		"amdr_protein_out_of_range",
		"amdr_fat_out_of_range",
	}, codes(ws))
}

func TestAssessEnergyDensity(t *testing.T) {
	ws := Assess("nuts", map[string]float64{"ENERC_KCAL": 180, "SERVING_SIZE_G": 30}, AssessmentContext{})
	assert.Equal(t, []string{"energy_density_very_high"}, codes(ws))
	assert.Equal(t, 600.0, ws[0].Value)
}

func TestPickToleratesKeyVariants(t *testing.T) {
	n := map[string]float64{"sugar_added": 3, "Na": 10}
	assert.Equal(t, 3.0, pick(n, "SUGAR.added"))
	assert.Equal(t, 10.0, pick(n, "NA"))
	assert.Equal(t, 0.0, pick(n, "K"))
}

func TestAgeOn(t *testing.T) {
	bday := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, AgeOn(bday, time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, AgeOn(bday, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeOn(time.Time{}, time.Now()))

	ctx := NewAssessmentContext(bday, " Female ", 1800, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, AssessmentContext{AgeYears: 25, Sex: "female", CalorieTarget: 1800}, ctx)
}
