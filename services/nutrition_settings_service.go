package services

import (
	"context"
	"errors"

	"glowfit/models"
	"glowfit/nutrition"

	"gorm.io/gorm"
)

const (
	defaultGoal     = nutrition.GoalMaintain
	defaultActivity = "moderate"
)

type NutritionSettingsService struct {
	db  *gorm.DB
	Now Clock
}

func NewNutritionSettingsService(db *gorm.DB) *NutritionSettingsService {
	return &NutritionSettingsService{db: db}
}

type SettingsInput struct {
	Goal          string   `json:"goal"`
	ActivityLevel string   `json:"activity_level"`
	CalorieTarget *float64 `json:"calorie_target"`
	ProteinG      *float64 `json:"protein_g"`
	CarbsG        *float64 `json:"carbs_g"`
	FatG          *float64 `json:"fat_g"`
	SodiumLimitMg *float64 `json:"sodium_limit_mg"`
	SugarLimitG   *float64 `json:"sugar_limit_g"`
	WaterGoalMl   *int     `json:"water_goal_ml"`
}

type SettingsView struct {
	Goal          string             `json:"goal"`
	ActivityLevel string             `json:"activity_level"`
	CalorieTarget float64            `json:"calorie_target"`
	ProteinG      float64            `json:"protein_g"`
	CarbsG        float64            `json:"carbs_g"`
	FatG          float64            `json:"fat_g"`
	SodiumLimitMg float64            `json:"sodium_limit_mg"`
	SugarLimitG   float64            `json:"sugar_limit_g"`
	WaterGoalMl   int                `json:"water_goal_ml"`
	Computed      *nutrition.Targets `json:"computed"`
	Saved         bool               `json:"saved"`
}

func (s *NutritionSettingsService) body(u *models.User) nutrition.Body {
	return nutrition.Body{
		Sex:      u.Sex,
		AgeYears: nutrition.AgeOn(u.Birthday, s.Now.now()),
		HeightCm: u.HeightCm,
		WeightKg: u.WeightKg,
	}
}

// Load returns the stored settings, or unsaved defaults derived from the profile.
func (s *NutritionSettingsService) Load(ctx context.Context, user *models.User) (*models.NutritionSettings, bool, error) {
	var row models.NutritionSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&row).Error
	if err == nil {
		return &row, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	t, err := nutrition.ComputeTargets(s.body(user), defaultGoal, defaultActivity)
	if err != nil {
		return nil, false, err
	}
	row = models.NutritionSettings{UserID: user.ID, Goal: defaultGoal, ActivityLevel: defaultActivity}
	applyTargets(&row, t)
	return &row, false, nil
}

func applyTargets(row *models.NutritionSettings, t nutrition.Targets) {
	row.CalorieTarget = t.CalorieTarget
	row.ProteinG = t.ProteinG
	row.CarbsG = t.CarbsG
	row.FatG = t.FatG
	row.SodiumLimitMg = t.SodiumLimitMg
	row.SugarLimitG = t.SugarLimitG
	row.WaterGoalMl = t.WaterGoalMl
}

func (s *NutritionSettingsService) view(user *models.User, row *models.NutritionSettings, saved bool) (*SettingsView, error) {
	t, err := nutrition.ComputeTargets(s.body(user), row.Goal, row.ActivityLevel)
	if err != nil {
		return nil, err
	}
	return &SettingsView{
		Goal:          row.Goal,
		ActivityLevel: row.ActivityLevel,
		CalorieTarget: row.CalorieTarget,
		ProteinG:      row.ProteinG,
		CarbsG:        row.CarbsG,
		FatG:          row.FatG,
		SodiumLimitMg: row.SodiumLimitMg,
		SugarLimitG:   row.SugarLimitG,
		WaterGoalMl:   row.WaterGoalMl,
		Computed:      &t,
		Saved:         saved,
	}, nil
}

func (s *NutritionSettingsService) Get(ctx context.Context, user *models.User) (*SettingsView, error) {
	row, saved, err := s.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.view(user, row, saved)
}

// Update recomputes targets from the goal and activity level, then applies
// any explicit overrides.
func (s *NutritionSettingsService) Update(ctx context.Context, user *models.User, in SettingsInput) (*SettingsView, error) {
	row, _, err := s.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if in.Goal != "" {
		if !nutrition.ValidGoal(in.Goal) {
			return nil, invalid("goal must be lose, maintain or gain")
		}
		row.Goal = in.Goal
	}
	if in.ActivityLevel != "" {
		if !nutrition.ValidActivityLevel(in.ActivityLevel) {
			return nil, invalid("unknown activity_level %q", in.ActivityLevel)
		}
		row.ActivityLevel = in.ActivityLevel
	}
	t, err := nutrition.ComputeTargets(s.body(user), row.Goal, row.ActivityLevel)
	if err != nil {
		return nil, err
	}
	applyTargets(row, t)

	for _, o := range []struct {
		v   *float64
		dst *float64
		max float64
		key string
	}{
		{in.CalorieTarget, &row.CalorieTarget, 6000, "calorie_target"},
		{in.ProteinG, &row.ProteinG, 500, "protein_g"},
		{in.CarbsG, &row.CarbsG, 1000, "carbs_g"},
		{in.FatG, &row.FatG, 400, "fat_g"},
		{in.SodiumLimitMg, &row.SodiumLimitMg, 10000, "sodium_limit_mg"},
		{in.SugarLimitG, &row.SugarLimitG, 500, "sugar_limit_g"},
	} {
		if o.v == nil {
			continue
		}
		if *o.v <= 0 || *o.v > o.max {
			return nil, invalid("%s must be between 0 and %.0f", o.key, o.max)
		}
		*o.dst = *o.v
	}
	if in.WaterGoalMl != nil {
		if *in.WaterGoalMl <= 0 || *in.WaterGoalMl > 10000 {
			return nil, invalid("water_goal_ml must be between 1 and 10000")
		}
		row.WaterGoalMl = *in.WaterGoalMl
	}

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return s.view(user, row, true)
}

// Profile turns settings into evaluation reference overrides.
func (s *NutritionSettingsService) Profile(user *models.User, row *models.NutritionSettings) nutrition.Profile {
	p := nutrition.Profile{Sex: user.Sex, AgeYears: nutrition.AgeOn(user.Birthday, s.Now.now())}
	if row != nil {
		p.Targets = map[string]float64{
			"calories": row.CalorieTarget,
			"protein":  row.ProteinG,
			"carbs":    row.CarbsG,
			"fat":      row.FatG,
			"sodium":   row.SodiumLimitMg,
			"sugar":    row.SugarLimitG,
		}
	}
	return p
}
