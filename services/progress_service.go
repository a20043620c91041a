package services

import (
	"context"
	"time"

	"glowfit/models"
	"glowfit/nutrition"

	"gorm.io/gorm"
)

// ProgressService keeps the per-day DailyProgress snapshot and builds the
// progress, evaluation and summary views from it.
type ProgressService struct {
	db       *gorm.DB
	settings *NutritionSettingsService
	Now      Clock
}

func NewProgressService(db *gorm.DB, settings *NutritionSettingsService) *ProgressService {
	return &ProgressService{db: db, settings: settings}
}

type dayTotals struct {
	Calories     float64
	Protein      float64
	Carbs        float64
	Fat          float64
	SaturatedFat float64
	Fiber        float64
	Sodium       float64
	Sugar        float64
	SafeItems    int
	TotalItems   int
}

func (s *ProgressService) mealTotals(ctx context.Context, userID uint, from, to time.Time) (dayTotals, error) {
	var t dayTotals
	err := s.db.WithContext(ctx).Model(&models.MealItem{}).
		Select(`COALESCE(SUM(meal_items.calories),0) AS calories,
			COALESCE(SUM(meal_items.protein),0) AS protein,
			COALESCE(SUM(meal_items.carbs),0) AS carbs,
			COALESCE(SUM(meal_items.fat),0) AS fat,
			COALESCE(SUM(meal_items.saturated_fat),0) AS saturated_fat,
			COALESCE(SUM(meal_items.fiber),0) AS fiber,
			COALESCE(SUM(meal_items.sodium),0) AS sodium,
			COALESCE(SUM(meal_items.sugar),0) AS sugar,
			COALESCE(SUM(CASE WHEN meal_items.safe THEN 1 ELSE 0 END),0) AS safe_items,
			COUNT(meal_items.id) AS total_items`).
		Joins("JOIN meal_records ON meal_records.id = meal_items.meal_record_id AND meal_records.deleted_at IS NULL").
		Where("meal_records.user_id = ? AND meal_records.ate_at >= ? AND meal_records.ate_at < ?", userID, from, to).
		Scan(&t).Error
	return t, err
}

// Refresh recomputes the snapshot of one day from meals, water and workouts.
func (s *ProgressService) Refresh(ctx context.Context, userID uint, day time.Time) (*models.DailyProgress, error) {
	from, to := dayStart(day), dayEnd(day)
	t, err := s.mealTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	var water struct{ Total float64 }
	if err := s.db.WithContext(ctx).Model(&models.WaterRecord{}).
		Select("COALESCE(SUM(amount_ml),0) AS total").
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, from, to).
		Scan(&water).Error; err != nil {
		return nil, err
	}
	var work struct{ Minutes, Kcal float64 }
	if err := s.db.WithContext(ctx).Model(&models.WorkoutLog{}).
		Select("COALESCE(SUM(duration_min),0) AS minutes, COALESCE(SUM(calories_burned),0) AS kcal").
		Where("user_id = ? AND performed_at >= ? AND performed_at < ?", userID, from, to).
		Scan(&work).Error; err != nil {
		return nil, err
	}

	dp := models.DailyProgress{UserID: userID, Date: from}
	err = s.db.WithContext(ctx).
		Where(models.DailyProgress{UserID: userID, Date: from}).
		Assign(map[string]any{
			"calories":     t.Calories,
			"protein":      t.Protein,
			"carbs":        t.Carbs,
			"fat":          t.Fat,
			"sodium":       t.Sodium,
			"sugar":        t.Sugar,
			"water_ml":     water.Total,
			"exercise_min": work.Minutes,
			"burned_kcal":  work.Kcal,
			"safe_items":   t.SafeItems,
			"total_items":  t.TotalItems,
		}).
		FirstOrCreate(&dp).Error
	if err != nil {
		return nil, err
	}
	return &dp, nil
}

type Metric struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
	Unit     string  `json:"unit"`
}

type DayProgress struct {
	Date    string            `json:"date"`
	Metrics map[string]Metric `json:"metrics"`
	Safety  struct {
		SafeItems  int `json:"safe_items"`
		TotalItems int `json:"total_items"`
	} `json:"safety"`
}

// Progress refreshes and returns consumed vs goal for one day.
func (s *ProgressService) Progress(ctx context.Context, user *models.User, day time.Time) (*DayProgress, error) {
	dp, err := s.Refresh(ctx, user.ID, day)
	if err != nil {
		return nil, err
	}
	goal, _, err := s.settings.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	out := &DayProgress{Date: dayStart(day).Format(dateLayout), Metrics: progressMetrics(dp, goal)}
	out.Safety.SafeItems = dp.SafeItems
	out.Safety.TotalItems = dp.TotalItems
	return out, nil
}

func progressMetrics(dp *models.DailyProgress, g *models.NutritionSettings) map[string]Metric {
	m := func(c, goal float64, unit string) Metric {
		return Metric{Consumed: round2(c), Goal: round2(goal), Percent: pct(c, goal), Unit: unit}
	}
	return map[string]Metric{
		"calories": m(dp.Calories, g.CalorieTarget, "kcal"),
		"protein":  m(dp.Protein, g.ProteinG, "g"),
		"carbs":    m(dp.Carbs, g.CarbsG, "g"),
		"fat":      m(dp.Fat, g.FatG, "g"),
		"sodium":   m(dp.Sodium, g.SodiumLimitMg, "mg"),
		"sugar":    m(dp.Sugar, g.SugarLimitG, "g"),
		"water":    m(dp.WaterMl, float64(g.WaterGoalMl), "ml"),
		"exercise": m(dp.ExerciseMin, 0, "min"),
	}
}

type DayEvaluation struct {
	Date         string                 `json:"date"`
	Evaluation   nutrition.Evaluation   `json:"evaluation"`
	TrafficLight nutrition.LightSummary `json:"traffic_light"`
	Items        int                    `json:"items"`
}

// Evaluate scores a day's intake against the user's reference values.
func (s *ProgressService) Evaluate(ctx context.Context, user *models.User, day time.Time) (*DayEvaluation, error) {
	from, to := dayStart(day), dayEnd(day)
	t, err := s.mealTotals(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}
	goal, _, err := s.settings.Load(ctx, user)
	if err != nil {
		return nil, err
	}

	intake := map[string]float64{
		"calories":      t.Calories,
		"protein":       t.Protein,
		"carbs":         t.Carbs,
		"fat":           t.Fat,
		"fiber":         t.Fiber,
		"sodium":        t.Sodium,
		"sugar":         t.Sugar,
		"saturated_fat": t.SaturatedFat,
	}
	out := &DayEvaluation{
		Date:       from.Format(dateLayout),
		Evaluation: nutrition.Evaluate(intake, s.settings.Profile(user, goal)),
		Items:      t.TotalItems,
	}

	var lights []string
	if err := s.db.WithContext(ctx).Model(&models.MealItem{}).
		Joins("JOIN meal_records ON meal_records.id = meal_items.meal_record_id AND meal_records.deleted_at IS NULL").
		Where("meal_records.user_id = ? AND meal_records.ate_at >= ? AND meal_records.ate_at < ?", user.ID, from, to).
		Pluck("meal_items.traffic_light", &lights).Error; err != nil {
		return nil, err
	}
	for _, l := range lights {
		out.TrafficLight.Add(l)
	}
	return out, nil
}

type NutrAvg struct {
	AvgConsumed float64 `json:"avg_consumed"`
	Goal        float64 `json:"goal,omitempty"`
	AvgPercent  float64 `json:"avg_percent,omitempty"`
	Unit        string  `json:"unit,omitempty"`
}

type Summary struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	DaysCounted int                `json:"days_counted"`
	Averages    map[string]NutrAvg `json:"averages"`
	Safety      struct {
		ScorePct   float64 `json:"score_pct"`
		SafeItems  int     `json:"safe_items"`
		TotalItems int     `json:"total_items"`
	} `json:"safety"`
	Days []DayProgress `json:"days"`
}

// Summary averages stored snapshots over [from, to]. Days without a
// snapshot count as zero when includeMissing is set, otherwise they are skipped.
func (s *ProgressService) Summary(ctx context.Context, user *models.User, from, to time.Time, includeMissing bool) (*Summary, error) {
	from, to = dayStart(from), dayStart(to)
	var rows []models.DailyProgress
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", user.ID, from, dayEnd(to)).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	goal, _, err := s.settings.Load(ctx, user)
	if err != nil {
		return nil, err
	}

	idx := make(map[string]models.DailyProgress, len(rows))
	for _, r := range rows {
		idx[dayStart(r.Date).Format(dateLayout)] = r
	}
	var days []time.Time
	if includeMissing {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			days = append(days, d)
		}
	} else {
		for _, r := range rows {
			days = append(days, dayStart(r.Date))
		}
	}

	out := &Summary{From: from.Format(dateLayout), To: to.Format(dateLayout), DaysCounted: len(days), Days: []DayProgress{}}
	sums := map[string]*struct{ consumed, percent float64 }{}
	for _, d := range days {
		dp := idx[d.Format(dateLayout)]
		metrics := progressMetrics(&dp, goal)
		for k, m := range metrics {
			if sums[k] == nil {
				sums[k] = &struct{ consumed, percent float64 }{}
			}
			sums[k].consumed += m.Consumed
			sums[k].percent += m.Percent
		}
		day := DayProgress{Date: d.Format(dateLayout), Metrics: metrics}
		day.Safety.SafeItems, day.Safety.TotalItems = dp.SafeItems, dp.TotalItems
		out.Days = append(out.Days, day)
		out.Safety.SafeItems += dp.SafeItems
		out.Safety.TotalItems += dp.TotalItems
	}

	out.Averages = map[string]NutrAvg{}
	ref := progressMetrics(&models.DailyProgress{}, goal)
	for k, m := range ref {
		a := NutrAvg{Goal: m.Goal, Unit: m.Unit}
		if sum := sums[k]; sum != nil {
			a.AvgConsumed = avg(sum.consumed, len(days))
			a.AvgPercent = avg(sum.percent, len(days))
		}
		out.Averages[k] = a
	}
	if out.Safety.TotalItems > 0 {
		out.Safety.ScorePct = round2(float64(out.Safety.SafeItems) / float64(out.Safety.TotalItems) * 100)
	} else {
		out.Safety.ScorePct = 100
	}
	return out, nil
}
