package nutrition

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	GoalLose     = "lose"
	GoalMaintain = "maintain"
	GoalGain     = "gain"
)

var activityFactors = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

var goalAdjust = map[string]float64{
	GoalLose:     -500,
	GoalMaintain: 0,
	GoalGain:     300,
}

// protein / carbs / fat share of calories
var macroSplits = map[string][3]float64{
	GoalLose:     {0.30, 0.40, 0.30},
	GoalMaintain: {0.20, 0.50, 0.30},
	GoalGain:     {0.25, 0.50, 0.25},
}

const (
	minCalorieTarget    = 1200
	defaultWaterGoalMl  = 2000
	waterMlPerKg        = 30
	defaultWeightKg     = 70
	defaultActivityName = "moderate"
)

var ErrUnknownGoal = errors.New("unknown goal")

// Body is what the energy equations need about a person.
type Body struct {
	Sex      string
	AgeYears int
	HeightCm float64
	WeightKg float64
}

type Targets struct {
	BMR           float64 `json:"bmr"`
	TDEE          float64 `json:"tdee"`
	CalorieTarget float64 `json:"calorie_target"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
	SodiumLimitMg float64 `json:"sodium_limit_mg"`
	SugarLimitG   float64 `json:"sugar_limit_g"`
	WaterGoalMl   int     `json:"water_goal_ml"`
}

func ValidGoal(goal string) bool {
	_, ok := goalAdjust[goal]
	return ok
}

func ValidActivityLevel(level string) bool {
	_, ok := activityFactors[level]
	return ok
}

// BMR is the Mifflin-St Jeor resting energy. Unknown sex uses the midpoint of
// the two constants. Returns 0 when height, weight or age is missing.
func BMR(b Body) float64 {
	if b.HeightCm <= 0 || b.WeightKg <= 0 || b.AgeYears <= 0 {
		return 0
	}
	base := 10*b.WeightKg + 6.25*b.HeightCm - 5*float64(b.AgeYears)
	switch strings.ToLower(b.Sex) {
	case "male", "m":
		return base + 5
	case "female", "f":
		return base - 161
	default:
		return base - 78
	}
}

// ComputeTargets derives daily targets for a goal and activity level.
// Without enough body data the calorie target falls back to the reference
// table value for the person's sex.
func ComputeTargets(b Body, goal, activity string) (Targets, error) {
	adj, ok := goalAdjust[goal]
	if !ok {
		return Targets{}, fmt.Errorf("%w: %q", ErrUnknownGoal, goal)
	}
	factor, ok := activityFactors[activity]
	if !ok {
		factor = activityFactors[defaultActivityName]
	}

	t := Targets{BMR: math.Round(BMR(b))}
	if t.BMR > 0 {
		t.TDEE = math.Round(t.BMR * factor)
	} else {
		t.TDEE = referenceFor("calories", Profile{Sex: b.Sex})
	}
	t.CalorieTarget = math.Max(minCalorieTarget, t.TDEE+adj)

	split := macroSplits[goal]
	t.ProteinG = math.Round(t.CalorieTarget * split[0] / 4)
	t.CarbsG = math.Round(t.CalorieTarget * split[1] / 4)
	t.FatG = math.Round(t.CalorieTarget * split[2] / 9)
	t.SodiumLimitMg = SodiumLimitByAge(b.AgeYears)
	t.SugarLimitG = math.Round(0.10 * t.CalorieTarget / 4)
	t.WaterGoalMl = WaterGoal(b.WeightKg)
	return t, nil
}

// WaterGoal is 30 ml per kg of body weight, 2000 ml when weight is unknown.
func WaterGoal(weightKg float64) int {
	if weightKg <= 0 {
		return defaultWaterGoalMl
	}
	return int(math.Round(weightKg * waterMlPerKg))
}

// METFor looks up the MET value of an activity; unknown types use "other".
func METFor(activity string) float64 {
	if v, ok := metTable.Activities[strings.ToLower(activity)]; ok {
		return v
	}
	return metTable.Activities["other"]
}

func ValidWorkoutType(activity string) bool {
	_, ok := metTable.Activities[strings.ToLower(activity)]
	return ok
}

func ValidIntensity(intensity string) bool {
	_, ok := metTable.Intensity[intensity]
	return ok
}

// CaloriesBurned = MET x intensity multiplier x kg x hours.
func CaloriesBurned(activity, intensity string, weightKg float64, minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	if weightKg <= 0 {
		weightKg = defaultWeightKg
	}
	mult, ok := metTable.Intensity[intensity]
	if !ok {
		mult = 1
	}
	return math.Round(METFor(activity) * mult * weightKg * float64(minutes) / 60)
}

func referenceFor(key string, p Profile) float64 {
	for _, r := range references {
		if r.Key == key {
			return r.ReferenceValue(p)
		}
	}
	return 0
}
