// Package skincare correlates daily lifestyle factors with self-rated skin condition.
package skincare

import (
	"math"
	"sort"
)

const (
	minSamples = 5

	ConfidenceInsufficient = "insufficient_data"
	ConfidenceLow          = "low"
	ConfidenceMedium       = "medium"
	ConfidenceHigh         = "high"

	StrengthNone     = "none"
	StrengthWeak     = "weak"
	StrengthModerate = "moderate"
	StrengthStrong   = "strong"

	insightThreshold = 0.3
)

const (
	FactorSleep    = "sleep_hours"
	FactorWater    = "water_ml"
	FactorStress   = "stress_level"
	FactorProducts = "product_count"
)

// Day is one diary observation.
type Day struct {
	SkinCondition float64
	SleepHours    float64
	WaterMl       float64
	StressLevel   float64
	ProductCount  float64
}

type FactorCorrelation struct {
	Factor      string   `json:"factor"`
	Coefficient *float64 `json:"coefficient"`
	Strength    string   `json:"strength"`
	Direction   string   `json:"direction,omitempty"`
	Samples     int      `json:"samples"`
}

type Insight struct {
	Factor      string  `json:"factor"`
	Coefficient float64 `json:"coefficient"`
	Message     string  `json:"message"`
}

type Report struct {
	Samples      int                 `json:"samples"`
	Confidence   string              `json:"confidence"`
	Correlations []FactorCorrelation `json:"correlations"`
	Insights     []Insight           `json:"insights"`
}

var factors = []struct {
	name  string
	value func(Day) float64
	// phrases for positive / negative association with better skin
	up, down string
}{
	{FactorSleep, func(d Day) float64 { return d.SleepHours },
		"More sleep lines up with better skin days.", "Longer sleep lines up with worse skin days."},
	{FactorWater, func(d Day) float64 { return d.WaterMl },
		"Drinking more water lines up with better skin days.", "Higher water intake lines up with worse skin days."},
	{FactorStress, func(d Day) float64 { return d.StressLevel },
		"Higher stress days line up with better skin.", "Stress lines up with worse skin days; try to wind down before bed."},
	{FactorProducts, func(d Day) float64 { return d.ProductCount },
		"Using more products lines up with better skin days.", "Heavier product routines line up with worse skin days; consider simplifying."},
}

// Analyze computes the Pearson coefficient between each factor and skin
// condition. Fewer than five days yields insufficient_data and no coefficients.
func Analyze(days []Day) Report {
	n := len(days)
	rep := Report{Samples: n, Confidence: Confidence(n), Correlations: []FactorCorrelation{}, Insights: []Insight{}}

	skin := make([]float64, n)
	for i, d := range days {
		skin[i] = d.SkinCondition
	}

	for _, f := range factors {
		fc := FactorCorrelation{Factor: f.name, Samples: n, Strength: StrengthNone}
		if n < minSamples {
			rep.Correlations = append(rep.Correlations, fc)
			continue
		}
		xs := make([]float64, n)
		for i, d := range days {
			xs[i] = f.value(d)
		}
		r := math.Round(Pearson(xs, skin)*1000) / 1000
		fc.Coefficient = &r
		fc.Strength = Strength(r)
		switch {
		case r > 0:
			fc.Direction = "positive"
		case r < 0:
			fc.Direction = "negative"
		}
		rep.Correlations = append(rep.Correlations, fc)

		if math.Abs(r) >= insightThreshold {
			msg := f.up
			if r < 0 {
				msg = f.down
			}
			rep.Insights = append(rep.Insights, Insight{Factor: f.name, Coefficient: r, Message: msg})
		}
	}
	sort.SliceStable(rep.Insights, func(i, j int) bool {
		return math.Abs(rep.Insights[i].Coefficient) > math.Abs(rep.Insights[j].Coefficient)
	})
	return rep
}

// Pearson returns the sample correlation coefficient of xs and ys. Zero
// variance in either series (or mismatched lengths) yields 0.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	r := cov / math.Sqrt(vx*vy)
	return math.Max(-1, math.Min(1, r))
}

func Confidence(n int) string {
	switch {
	case n < minSamples:
		return ConfidenceInsufficient
	case n < 14:
		return ConfidenceLow
	case n < 30:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

func Strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a < 0.1:
		return StrengthNone
	case a < 0.3:
		return StrengthWeak
	case a < 0.5:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}
