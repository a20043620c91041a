package nutrition

const (
	LightGreen  = "green"
	LightYellow = "yellow"
	LightRed    = "red"
)

// Item is the nutrient snapshot of one eaten portion.
type Item struct {
	Name         string
	ServingGrams float64
	Calories     float64
	Protein      float64
	Carbs        float64
	Fat          float64
	SaturatedFat float64
	Fiber        float64
	Sodium       float64 // mg
	Sugar        float64
}

// Nutrients converts the item to Edamam style nutrient codes for the safety rules.
func (it Item) Nutrients() map[string]float64 {
	m := map[string]float64{
		"ENERC_KCAL": it.Calories,
		"PROCNT":     it.Protein,
		"CHOCDF":     it.Carbs,
		"FAT":        it.Fat,
		"FASAT":      it.SaturatedFat,
		"FIBTG":      it.Fiber,
		"NA":         it.Sodium,
		"SUGAR":      it.Sugar,
	}
	if it.ServingGrams > 0 {
		m["SERVING_SIZE_G"] = it.ServingGrams
	}
	for k, v := range m {
		if v == 0 {
			delete(m, k)
		}
	}
	return m
}

// ItemFromNutrients is the reverse of Nutrients for Edamam analysis output.
func ItemFromNutrients(name string, grams float64, n map[string]float64) Item {
	return Item{
		Name:         name,
		ServingGrams: grams,
		Calories:     pick(n, "ENERC_KCAL", "Calories"),
		Protein:      pick(n, "PROCNT", "Protein"),
		Carbs:        pick(n, "CHOCDF", "Carbs"),
		Fat:          pick(n, "FAT", "Fat"),
		SaturatedFat: pick(n, "FASAT", "FAT_SAT"),
		Fiber:        pick(n, "FIBTG", "Fiber"),
		Sodium:       pick(n, "NA", "Sodium"),
		Sugar:        pick(n, "SUGAR", "Sugar"),
	}
}

// per 100 g thresholds (UK front-of-pack guidance)
type band struct{ low, high float64 }

var per100g = struct{ fat, satFat, sugar, sodium band }{
	fat:    band{3, 17.5},
	satFat: band{1.5, 5},
	sugar:  band{5, 22.5},
	sodium: band{120, 600},
}

// per portion: red above 30% of the reference intake, amber above 10%
var perPortion = struct{ fat, satFat, sugar, sodium band }{
	fat:    band{7, 21},
	satFat: band{2, 6},
	sugar:  band{9, 27},
	sodium: band{240, 720},
}

type LightBreakdown struct {
	Overall  string            `json:"overall"`
	Signals  map[string]string `json:"signals"`
	KcalPerG float64           `json:"kcal_per_g,omitempty"`
}

// TrafficLight classifies an item. With a known serving weight it uses per
// 100 g thresholds plus calorie density, otherwise per-portion thresholds.
// Two or more red signals make the item red; no red and at most one amber
// make it green.
func TrafficLight(it Item) LightBreakdown {
	out := LightBreakdown{Signals: map[string]string{}}

	if it.ServingGrams > 0 {
		scale := 100 / it.ServingGrams
		out.Signals["fat"] = classify(it.Fat*scale, per100g.fat)
		out.Signals["saturated_fat"] = classify(it.SaturatedFat*scale, per100g.satFat)
		out.Signals["sugar"] = classify(it.Sugar*scale, per100g.sugar)
		out.Signals["sodium"] = classify(it.Sodium*scale, per100g.sodium)

		density := it.Calories / it.ServingGrams
		out.KcalPerG = round2(density)
		out.Signals["calorie_density"] = classify(density, band{1.0, 2.4})
	} else {
		out.Signals["fat"] = classify(it.Fat, perPortion.fat)
		out.Signals["saturated_fat"] = classify(it.SaturatedFat, perPortion.satFat)
		out.Signals["sugar"] = classify(it.Sugar, perPortion.sugar)
		out.Signals["sodium"] = classify(it.Sodium, perPortion.sodium)
	}

	var reds, ambers int
	for _, s := range out.Signals {
		switch s {
		case LightRed:
			reds++
		case LightYellow:
			ambers++
		}
	}
	switch {
	case reds >= 2:
		out.Overall = LightRed
	case reds == 0 && ambers <= 1:
		out.Overall = LightGreen
	default:
		out.Overall = LightYellow
	}
	return out
}

func classify(v float64, b band) string {
	switch {
	case v > b.high:
		return LightRed
	case v > b.low:
		return LightYellow
	default:
		return LightGreen
	}
}

type LightSummary struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

func (s *LightSummary) Add(light string) {
	switch light {
	case LightGreen:
		s.Green++
	case LightYellow:
		s.Yellow++
	case LightRed:
		s.Red++
	}
}
