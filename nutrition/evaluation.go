package nutrition

import (
	"math"
	"sort"
)

const (
	StatusDeficient    = "deficient"
	StatusInsufficient = "insufficient"
	StatusAdequate     = "adequate"
	StatusExcessive    = "excessive"
)

const (
	deficientBelow    = 0.5
	insufficientBelow = 0.8
	targetUpper       = 1.5
	limitUpper        = 1.0
)

type NutrientResult struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Unit      string  `json:"unit"`
	Kind      string  `json:"kind"`
	Intake    float64 `json:"intake"`
	Reference float64 `json:"reference"`
	Ratio     float64 `json:"ratio"`
	Percent   float64 `json:"percent"`
	Status    string  `json:"status"`
	Score     float64 `json:"score"`
}

type Evaluation struct {
	Score        int              `json:"score"`
	Grade        string           `json:"grade"`
	Nutrients    []NutrientResult `json:"nutrients"`
	Deficiencies []string         `json:"deficiencies"`
	Excesses     []string         `json:"excesses"`
	Advice       []string         `json:"advice"`
}

// Evaluate compares a day's intake (keyed like the reference table) against
// the person's reference values. Nutrients without a reference are skipped.
func Evaluate(intake map[string]float64, p Profile) Evaluation {
	ev := Evaluation{Nutrients: []NutrientResult{}, Deficiencies: []string{}, Excesses: []string{}, Advice: []string{}}

	var weighted, weights float64
	type flagged struct {
		ref   Reference
		ratio float64
		low   bool
	}
	var flags []flagged

	for _, ref := range references {
		refVal := ref.ReferenceValue(p)
		if refVal <= 0 {
			continue
		}
		in := math.Max(0, intake[ref.Key])
		ratio := in / refVal
		status, score := Band(ratio, ref.Kind)

		ev.Nutrients = append(ev.Nutrients, NutrientResult{
			Key:       ref.Key,
			Label:     ref.Label,
			Unit:      ref.Unit,
			Kind:      ref.Kind,
			Intake:    round2(in),
			Reference: round2(refVal),
			Ratio:     round2(ratio),
			Percent:   math.Round(ratio * 100),
			Status:    status,
			Score:     round2(score),
		})
		w := ref.Weight
		if w <= 0 {
			w = 1
		}
		weighted += w * score
		weights += w

		switch status {
		case StatusDeficient, StatusInsufficient:
			flags = append(flags, flagged{ref, ratio, true})
		case StatusExcessive:
			flags = append(flags, flagged{ref, ratio, false})
		}
	}

	if weights > 0 {
		ev.Score = int(math.Round(weighted / weights))
	}
	ev.Grade = grade(ev.Score)

	// worst offenders first: lowest ratio for shortfalls, highest for excesses
	sort.SliceStable(flags, func(i, j int) bool {
		return distance(flags[i].ratio, flags[i].low) > distance(flags[j].ratio, flags[j].low)
	})
	for _, f := range flags {
		if f.low {
			ev.Deficiencies = append(ev.Deficiencies, f.ref.Key)
			if f.ref.AdviceLow != "" {
				ev.Advice = append(ev.Advice, f.ref.AdviceLow)
			}
		} else {
			ev.Excesses = append(ev.Excesses, f.ref.Key)
			if f.ref.AdviceHigh != "" {
				ev.Advice = append(ev.Advice, f.ref.AdviceHigh)
			}
		}
	}
	return ev
}

// Band maps an intake/reference ratio to a status and a 0-100 score.
//
//	deficient     r < 0.5          linear 0 -> 60
//	insufficient  0.5 <= r < 0.8   linear 60 -> 100
//	adequate      0.8 <= r <= up   100
//	excessive     r > up           100 - 100*((r-up)/up)^2, floor 0
//
// Limit nutrients (up = 1.0) have no lower bands.
func Band(ratio float64, kind string) (string, float64) {
	upper := targetUpper
	if kind == KindLimit {
		upper = limitUpper
		if ratio <= upper {
			return StatusAdequate, 100
		}
	}
	switch {
	case ratio < deficientBelow:
		return StatusDeficient, ratio / deficientBelow * 60
	case ratio < insufficientBelow:
		return StatusInsufficient, 60 + (ratio-deficientBelow)/(insufficientBelow-deficientBelow)*40
	case ratio <= upper:
		return StatusAdequate, 100
	default:
		over := (ratio - upper) / upper
		return StatusExcessive, math.Max(0, 100-100*over*over)
	}
}

func distance(ratio float64, low bool) float64 {
	if low {
		return 1 - ratio
	}
	return ratio - 1
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
