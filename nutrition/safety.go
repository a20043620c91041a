package nutrition

import (
	"fmt"
	"strings"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityCaution Severity = "caution"
	SeverityHigh    Severity = "high"
)

// Warning is one finding of the per-serving safety rules.
type Warning struct {
	Code           string   `json:"code"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Metric         string   `json:"metric,omitempty"`
	Value          float64  `json:"value,omitempty"`
	Limit          float64  `json:"limit,omitempty"`
	PercentOfLimit float64  `json:"percent_of_limit,omitempty"`
	Reference      string   `json:"reference,omitempty"`
}

// Blocking reports whether the warning should mark the item unsafe.
func (w Warning) Blocking() bool { return w.Severity == SeverityHigh }

type AssessmentContext struct {
	AgeYears      int
	Sex           string
	CalorieTarget float64 // 0 means 2000 kcal
}

// NewAssessmentContext derives the age from a birthday (zero means unknown).
func NewAssessmentContext(birthday time.Time, sex string, calorieTarget float64, now time.Time) AssessmentContext {
	return AssessmentContext{
		AgeYears:      AgeOn(birthday, now),
		Sex:           strings.ToLower(strings.TrimSpace(sex)),
		CalorieTarget: calorieTarget,
	}
}

// AgeOn returns completed years between birthday and now.
func AgeOn(birthday, now time.Time) int {
	if birthday.IsZero() || now.Before(birthday) {
		return 0
	}
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return age
}

// serving is the normalised input shared by every rule.
type serving struct {
	name        string
	kcal        float64
	addedSugar  float64
	totalSugar  float64
	satFat      float64
	transFat    float64
	sodium      float64
	potassium   float64
	fiber       float64
	carbs       float64
	protein     float64
	fat         float64
	grams       float64
	sodiumLimit float64
	sugarLimit  float64 // g/day of added sugar
	satLimit    float64 // g/day of saturated fat
	age         int
}

type rule func(s serving) []Warning

var rules = []rule{
	addedSugarRule,
	saturatedFatRule,
	sodiumRule,
	transFatRule,
	macroDistributionRule,
	fiberRule,
	grainRule,
	energyDensityRule,
}

// Assess runs the dietary-guideline rules over one serving. Nutrients use
// Edamam codes (ENERC_KCAL, FASAT, NA, ...). Rules only fire on data that is
// present.
func Assess(foodName string, nutrients map[string]float64, ctx AssessmentContext) []Warning {
	s := serving{
		name:       strings.ToLower(foodName),
		kcal:       pick(nutrients, "ENERC_KCAL", "Energy", "kcal", "Calories"),
		addedSugar: pick(nutrients, "SUGAR.added", "SUGAR_ADDED"),
		totalSugar: pick(nutrients, "SUGAR", "Sugar"),
		satFat:     pick(nutrients, "FASAT", "FAT_SAT"),
		transFat:   pick(nutrients, "FATRN", "FAT_TRANS"),
		sodium:     pick(nutrients, "NA", "SODIUM", "Sodium"),
		potassium:  pick(nutrients, "K", "POTASSIUM"),
		fiber:      pick(nutrients, "FIBTG", "Fiber"),
		carbs:      pick(nutrients, "CHOCDF", "Carbs"),
		protein:    pick(nutrients, "PROCNT", "Protein"),
		fat:        pick(nutrients, "FAT", "Fat"),
		grams:      pick(nutrients, "SERVING_SIZE_G", "weight_g"),
		age:        ctx.AgeYears,
	}
	if s.kcal <= 0 {
		s.kcal = 4*s.carbs + 4*s.protein + 9*s.fat + 7*pick(nutrients, "ALC")
	}
	target := ctx.CalorieTarget
	if target <= 0 {
		target = 2000
	}
	s.sodiumLimit = SodiumLimitByAge(ctx.AgeYears)
	s.sugarLimit = 0.10 * target / 4
	s.satLimit = 0.10 * target / 9

	out := []Warning{}
	for _, r := range rules {
		out = append(out, r(s)...)
	}
	return out
}

// Messages flattens warnings for storage on a meal item.
func Messages(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Message)
	}
	return out
}

// Safe is false when any warning is high severity.
func Safe(ws []Warning) bool {
	for _, w := range ws {
		if w.Blocking() {
			return false
		}
	}
	return true
}

func addedSugarRule(s serving) []Warning {
	if s.age > 0 && s.age < 2 {
		if s.addedSugar > 0 {
			return []Warning{{
				Code: "added_sugars_infants", Severity: SeverityHigh,
				Message: "Under age 2: avoid added sugars.",
				Metric:  "added_sugar_g", Value: round2(s.addedSugar),
				Reference: guideline("Added sugars: avoid for <2y"),
			}}
		}
		return nil
	}
	var out []Warning
	if s.kcal > 0 {
		switch {
		case s.addedSugar > 0:
			if pct := s.addedSugar * 4 / s.kcal; pct >= 0.10 {
				out = append(out, Warning{
					Code: "added_sugars_high_item", Severity: SeverityHigh,
					Message: fmt.Sprintf("High added sugars for this item (%.0f%% of its calories).", pct*100),
					Metric:  "added_sugar_%_of_item_kcal", Value: round2(pct * 100), Limit: 10,
					Reference: guideline("Added sugars ≤10% kcal"),
				})
			}
		case s.totalSugar > 0:
			if pct := s.totalSugar * 4 / s.kcal; pct >= 0.10 {
				out = append(out, Warning{
					Code: "total_sugars_proxy_high", Severity: SeverityCaution,
					Message: fmt.Sprintf("High sugars for this item (%.0f%% of its calories); may include added sugars.", pct*100),
					Metric:  "total_sugar_%_of_item_kcal", Value: round2(pct * 100), Limit: 10,
					Reference: guideline("Added sugars ≤10% kcal"),
				})
			}
		}
	}
	if s.addedSugar > 0 {
		if w, ok := dailyShare("added_sugars", "added-sugar", s.addedSugar, s.sugarLimit); ok {
			out = append(out, w)
		}
	}
	return out
}

func saturatedFatRule(s serving) []Warning {
	var out []Warning
	if s.satFat > 0 {
		if (s.age == 0 || s.age >= 2) && s.kcal > 0 {
			if pct := s.satFat * 9 / s.kcal; pct >= 0.10 {
				out = append(out, Warning{
					Code: "sat_fat_high_item", Severity: SeverityHigh,
					Message: fmt.Sprintf("High saturated fat for this item (%.0f%% of its calories).", pct*100),
					Metric:  "saturated_fat_%_of_item_kcal", Value: round2(pct * 100), Limit: 10,
					Reference: guideline("Saturated fat ≤10% kcal"),
				})
			}
		}
		if w, ok := dailyShare("sat_fat", "saturated-fat", s.satFat, s.satLimit); ok {
			out = append(out, w)
		}
		return out
	}
	if containsAny(s.name, "butter", "ghee", "cream", "cheese", "bacon", "sausage", "shortening", "palm oil", "coconut oil", "lard") {
		out = append(out, Warning{
			Code: "satfat_source_heuristic", Severity: SeverityInfo,
			Message:   "Likely high in saturated fat; consider leaner cuts or plant oils.",
			Reference: guideline("Shift from saturated to unsaturated fats"),
		})
	}
	return out
}

// dailyShare flags a serving that uses 20% (caution) or 40% (high) of a daily limit.
func dailyShare(code, label string, amount, limit float64) (Warning, bool) {
	if limit <= 0 {
		return Warning{}, false
	}
	share := amount / limit
	w := Warning{
		Metric: code + "_%_of_daily_limit", Value: round2(share * 100), Limit: 100,
		PercentOfLimit: round2(share * 100),
		Reference:      guideline("<10% kcal/day from " + strings.ReplaceAll(label, "-", " ")),
	}
	switch {
	case share >= 0.40:
		w.Code = code + "_very_high_daily_share"
		w.Severity = SeverityHigh
		w.Message = fmt.Sprintf("This serving provides ~%.0f%% of the daily %s limit.", share*100, label)
	case share >= 0.20:
		w.Code = code + "_high_daily_share"
		w.Severity = SeverityCaution
		w.Message = fmt.Sprintf("High share of daily %s limit from one serving (~%.0f%%).", label, share*100)
	default:
		return Warning{}, false
	}
	return w, true
}

func sodiumRule(s serving) []Warning {
	if s.sodium <= 0 {
		return nil
	}
	var out []Warning
	share := s.sodium / s.sodiumLimit
	sev, code, word := Severity(""), "", ""
	switch {
	case share >= 0.40:
		sev, code, word = SeverityHigh, "sodium_very_high", "Very high"
	case share >= 0.20:
		sev, code, word = SeverityCaution, "sodium_high", "High"
	}
	if sev != "" {
		out = append(out, Warning{
			Code: code, Severity: sev,
			Message: fmt.Sprintf("%s sodium for one serving (≈%.0f%% of the daily limit).", word, share*100),
			Metric:  "sodium_%_of_daily_limit_per_serving", Value: round2(share * 100), Limit: 100,
			PercentOfLimit: round2(share * 100),
			Reference:      guideline("Limit sodium (CDRR)"),
		})
	}
	if s.kcal > 0 {
		if density := s.sodium / s.kcal * 100; density >= 400 {
			out = append(out, Warning{
				Code: "sodium_dense", Severity: SeverityInfo,
				Message: "High sodium density relative to calories; consider lower-sodium alternatives.",
				Metric:  "sodium_mg_per_100kcal", Value: round2(density),
				Reference: guideline("Reduce sodium"),
			})
		}
	}
	if s.potassium > 0 {
		if ratio := s.sodium / s.potassium; ratio > 1.5 {
			out = append(out, Warning{
				Code: "sodium_potassium_ratio_high", Severity: SeverityInfo,
				Message: "Higher sodium relative to potassium; add fruits, vegetables or legumes.",
				Metric:  "na_to_k_ratio", Value: round2(ratio),
				Reference: guideline("Shift to potassium-rich foods"),
			})
		}
	}
	return out
}

func transFatRule(s serving) []Warning {
	if s.transFat <= 0 {
		return nil
	}
	sev := SeverityCaution
	if s.transFat >= 0.5 {
		sev = SeverityHigh
	}
	return []Warning{{
		Code: "trans_fat_present", Severity: sev,
		Message: fmt.Sprintf("Contains trans fat (%.2fg); keep intake as low as possible.", s.transFat),
		Metric:  "trans_fat_g", Value: round2(s.transFat),
		Reference: guideline("Avoid trans fat"),
	}}
}

// acceptable macronutrient distribution ranges, share of macro calories
var macroRanges = []struct {
	code, label, metric string
	kcalPerG, lo, hi    float64
	grams               func(serving) float64
}{
	{"amdr_carbs_out_of_range", "Carbohydrates", "carb_%_of_macro_kcal", 4, 0.45, 0.65, func(s serving) float64 { return s.carbs }},
	{"amdr_protein_out_of_range", "Protein", "protein_%_of_macro_kcal", 4, 0.10, 0.35, func(s serving) float64 { return s.protein }},
	{"amdr_fat_out_of_range", "Fat", "fat_%_of_macro_kcal", 9, 0.20, 0.35, func(s serving) float64 { return s.fat }},
}

func macroDistributionRule(s serving) []Warning {
	total := 4*s.carbs + 4*s.protein + 9*s.fat
	if s.kcal <= 0 || total <= 0 {
		return nil
	}
	var out []Warning
	for _, m := range macroRanges {
		pct := m.kcalPerG * m.grams(s) / total
		if pct >= m.lo && pct <= m.hi {
			continue
		}
		out = append(out, Warning{
			Code: m.code, Severity: SeverityInfo,
			Message: fmt.Sprintf("%s ~%.0f%% of macro calories (AMDR %.0f-%.0f%%).", m.label, pct*100, m.lo*100, m.hi*100),
			Metric:  m.metric, Value: round2(pct * 100),
			Reference: guideline(fmt.Sprintf("AMDR: %s %.0f-%.0f%% kcal", m.label, m.lo*100, m.hi*100)),
		})
	}
	return out
}

func fiberRule(s serving) []Warning {
	if s.kcal <= 0 || s.carbs < 15 || s.fiber <= 0 {
		return nil
	}
	density := s.fiber / s.kcal * 100
	switch {
	case density < 1.0:
		return []Warning{{
			Code: "fiber_low_nudge", Severity: SeverityInfo,
			Message: "Low dietary fiber for a carbohydrate food; consider whole grains, fruits or vegetables.",
			Metric:  "fiber_g_per_100kcal", Value: round2(density),
			Reference: guideline("Fiber is underconsumed"),
		}}
	case density >= 2.5:
		return []Warning{{
			Code: "fiber_high_positive", Severity: SeverityInfo,
			Message: "Good fiber density.",
			Metric:  "fiber_g_per_100kcal", Value: round2(density),
			Reference: guideline("Emphasize fiber-rich foods"),
		}}
	}
	return nil
}

func grainRule(s serving) []Warning {
	ref := guideline("Make at least half of grains whole")
	switch {
	case containsAny(s.name, "whole wheat", "whole-grain", "whole grain", "brown rice", "oat", "quinoa", "bulgur", "rye", "wholemeal"):
		return []Warning{{Code: "whole_grain_positive", Severity: SeverityInfo, Message: "Whole-grain choice supports fiber and nutrient density.", Reference: ref}}
	case containsAny(s.name, "white bread", "white rice", "refined flour", "all-purpose flour", "cake", "pastry", "cracker", "biscuit"):
		return []Warning{{Code: "refined_grain_nudge", Severity: SeverityInfo, Message: "Refined-grain item; consider a whole-grain option.", Reference: ref}}
	}
	return nil
}

func energyDensityRule(s serving) []Warning {
	if s.grams <= 0 || s.kcal <= 0 {
		return nil
	}
	per100 := s.kcal / s.grams * 100
	w := Warning{Severity: SeverityInfo, Metric: "kcal_per_100g", Value: round2(per100)}
	switch {
	case per100 >= 275:
		w.Code = "energy_density_very_high"
		w.Message = "Very energy-dense food; mindful portions help it fit a healthy pattern."
	case per100 >= 150:
		w.Code = "energy_density_high"
		w.Message = "High energy density; balance with vegetables or fruit."
	default:
		return nil
	}
	w.Reference = guideline("Emphasize nutrient-dense foods")
	return []Warning{w}
}

// pick returns the first key present, tolerating case and "." vs "_".
func pick(n map[string]float64, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := n[k]; ok {
			return v
		}
		norm := strings.ReplaceAll(k, "_", ".")
		for nk, v := range n {
			if strings.EqualFold(strings.ReplaceAll(nk, "_", "."), norm) {
				return v
			}
		}
	}
	return 0
}

func guideline(where string) string {
	return "Dietary Guidelines for Americans 2020-2025: " + where
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
