package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"
	"glowfit/nutrition"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var mealTypes = map[string]bool{"breakfast": true, "lunch": true, "dinner": true, "snack": true}

const maxMealItems = 30

type MealService struct {
	db       *gorm.DB
	foods    *FoodService
	settings *NutritionSettingsService
	progress *ProgressService
	game     *GamificationService
	alerts   *AlertBus
	Now      Clock
}

func NewMealService(db *gorm.DB, foods *FoodService, settings *NutritionSettingsService, progress *ProgressService, game *GamificationService, alerts *AlertBus) *MealService {
	return &MealService{db: db, foods: foods, settings: settings, progress: progress, game: game, alerts: alerts}
}

// MealItemInput references an Edamam food (food_id + measure_uri + quantity)
// or carries manually entered nutrients.
type MealItemInput struct {
	FoodID     string  `json:"food_id"`
	MeasureURI string  `json:"measure_uri"`
	Quantity   float64 `json:"quantity"`

	Label        string  `json:"label"`
	ServingGrams float64 `json:"serving_grams"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	SaturatedFat float64 `json:"saturated_fat"`
	Fiber        float64 `json:"fiber"`
	Sodium       float64 `json:"sodium"`
	Sugar        float64 `json:"sugar"`
}

type MealInput struct {
	Type  string          `json:"type" binding:"required"`
	AteAt *time.Time      `json:"ate_at"`
	Items []MealItemInput `json:"items" binding:"required"`
}

type MealResult struct {
	Meal     *models.MealRecord     `json:"meal"`
	MealSafe bool                   `json:"meal_safe"`
	Lights   nutrition.LightSummary `json:"traffic_light"`
	Award    *AwardResult           `json:"award,omitempty"`
}

func (s *MealService) Create(ctx context.Context, user *models.User, in MealInput) (*MealResult, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if !mealTypes[in.Type] {
		return nil, invalid("type must be breakfast, lunch, dinner or snack")
	}
	if len(in.Items) == 0 || len(in.Items) > maxMealItems {
		return nil, invalid("a meal needs between 1 and %d items", maxMealItems)
	}
	now := s.Now.now()
	ateAt := now
	if in.AteAt != nil {
		if in.AteAt.After(now.Add(time.Hour)) {
			return nil, invalid("ate_at is in the future")
		}
		ateAt = *in.AteAt
	}

	goal, _, err := s.settings.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	actx := nutrition.NewAssessmentContext(user.Birthday, user.Sex, goal.CalorieTarget, now)

	meal := &models.MealRecord{UserID: user.ID, Type: in.Type, AteAt: ateAt}
	res := &MealResult{Meal: meal, MealSafe: true}
	for i, it := range in.Items {
		item, err := s.buildItem(ctx, it, actx)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if !item.Safe {
			res.MealSafe = false
		}
		res.Lights.Add(item.TrafficLight)
		meal.Items = append(meal.Items, *item)
	}

	// creating the record with Items set inserts the items in the same transaction
	if err := s.db.WithContext(ctx).Create(meal).Error; err != nil {
		return nil, err
	}

	if _, err := s.progress.Refresh(ctx, user.ID, ateAt); err != nil {
		logger.Warn("refresh progress failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	for _, item := range meal.Items {
		if !item.Safe {
			s.alerts.Emit(ctx, user.ID, models.AlertWarning, fmt.Sprintf("%s: %s", item.FoodLabel, firstWarning(item.Warnings)))
		}
	}
	res.Award = s.game.AwardQuietly(ctx, user.ID, ActionMeal, meal.ID,
		fmt.Sprintf("Logged %s (%d items)", in.Type, len(meal.Items)))
	return res, nil
}

// Preview assesses a food quantity for the user without logging it.
func (s *MealService) Preview(ctx context.Context, user *models.User, foodID, measureURI string, qty float64) (*NutritionPreview, error) {
	goal, _, err := s.settings.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	actx := nutrition.NewAssessmentContext(user.Birthday, user.Sex, goal.CalorieTarget, s.Now.now())
	return s.foods.Analyze(ctx, foodID, measureURI, qty, actx)
}

func firstWarning(joined string) string {
	first, _, _ := strings.Cut(joined, "; ")
	return first
}

func (s *MealService) buildItem(ctx context.Context, in MealItemInput, actx nutrition.AssessmentContext) (*models.MealItem, error) {
	var (
		item      nutrition.Item
		nutrients map[string]float64
	)
	if in.FoodID != "" {
		preview, err := s.foods.Analyze(ctx, in.FoodID, in.MeasureURI, in.Quantity, actx)
		if err != nil {
			return nil, err
		}
		item = preview.Item
		if in.Label != "" {
			item.Name = in.Label
		}
		nutrients = withServing(preview.Nutrients, preview.ServingGrams)
	} else {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			return nil, invalid("label or food_id is required")
		}
		for _, v := range []float64{in.ServingGrams, in.Calories, in.Protein, in.Carbs, in.Fat, in.SaturatedFat, in.Fiber, in.Sodium, in.Sugar} {
			if v < 0 {
				return nil, invalid("nutrient values must not be negative")
			}
		}
		item = nutrition.Item{
			Name:         label,
			ServingGrams: in.ServingGrams,
			Calories:     in.Calories,
			Protein:      in.Protein,
			Carbs:        in.Carbs,
			Fat:          in.Fat,
			SaturatedFat: in.SaturatedFat,
			Fiber:        in.Fiber,
			Sodium:       in.Sodium,
			Sugar:        in.Sugar,
		}
		nutrients = item.Nutrients()
		if in.Quantity <= 0 {
			in.Quantity = 1
		}
	}

	warnings := nutrition.Assess(item.Name, nutrients, actx)
	return &models.MealItem{
		FoodID:       in.FoodID,
		FoodLabel:    item.Name,
		Quantity:     in.Quantity,
		MeasureURI:   in.MeasureURI,
		ServingGrams: round2(item.ServingGrams),
		Calories:     round2(item.Calories),
		Protein:      round2(item.Protein),
		Carbs:        round2(item.Carbs),
		Fat:          round2(item.Fat),
		SaturatedFat: round2(item.SaturatedFat),
		Fiber:        round2(item.Fiber),
		Sodium:       round2(item.Sodium),
		Sugar:        round2(item.Sugar),
		Safe:         nutrition.Safe(warnings),
		Warnings:     strings.Join(nutrition.Messages(warnings), "; "),
		TrafficLight: nutrition.TrafficLight(item).Overall,
	}, nil
}

// ListByDay returns the meals eaten on one local day, earliest first.
func (s *MealService) ListByDay(ctx context.Context, userID uint, day time.Time) ([]models.MealRecord, error) {
	meals := []models.MealRecord{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND ate_at >= ? AND ate_at < ?", userID, dayStart(day), dayEnd(day)).
		Order("ate_at ASC").
		Find(&meals).Error
	return meals, err
}

func (s *MealService) ListRecent(ctx context.Context, userID uint, limit int) ([]models.MealRecord, error) {
	if limit <= 0 {
		limit = 3
	}
	meals := []models.MealRecord{}
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("ate_at DESC").
		Limit(limit).
		Find(&meals).Error
	return meals, err
}

func (s *MealService) Get(ctx context.Context, userID, mealID uint) (*models.MealRecord, error) {
	var meal models.MealRecord
	if err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&meal).Error; err != nil {
		return nil, notFound(err, "meal")
	}
	return &meal, nil
}

func (s *MealService) Delete(ctx context.Context, userID, mealID uint) error {
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_record_id = ?", meal.ID).Delete(&models.MealItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(meal).Error
	})
	if err != nil {
		return err
	}
	if _, err := s.progress.Refresh(ctx, userID, meal.AteAt); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("refresh progress failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}
