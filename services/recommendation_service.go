package services

import (
	"context"
	"fmt"
	"strings"

	"glowfit/ai"
	"glowfit/logger"
	"glowfit/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	RecSourceAI    = "ai"
	RecSourceRules = "rules"
)

type RecService struct {
	db       *gorm.DB
	gen      Generator
	progress *ProgressService
	Now      Clock
}

func NewRecService(db *gorm.DB, gen Generator, progress *ProgressService) *RecService {
	return &RecService{db: db, gen: gen, progress: progress}
}

type Recommendations struct {
	Items    []string `json:"recommendations"`
	Source   string   `json:"source"`
	Provider string   `json:"provider,omitempty"`
}

// GetRecs asks the AI router for coaching tips on today's meals. When no
// provider answers, the rule-based evaluation advice is returned instead.
func (r *RecService) GetRecs(ctx context.Context, user *models.User) (*Recommendations, error) {
	now := r.Now.now()
	var items []models.MealItem
	if err := r.db.WithContext(ctx).Model(&models.MealItem{}).
		Select("meal_items.food_label, meal_items.serving_grams, meal_items.calories, meal_items.protein, meal_items.sodium, meal_items.sugar").
		Joins("JOIN meal_records ON meal_records.id = meal_items.meal_record_id AND meal_records.deleted_at IS NULL").
		Where("meal_records.user_id = ? AND meal_records.ate_at >= ? AND meal_records.ate_at < ?", user.ID, dayStart(now), dayEnd(now)).
		Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("fetch today's meals: %w", err)
	}

	var sb strings.Builder
	if len(items) == 0 {
		sb.WriteString("- (no meals logged yet)\n")
	}
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s: %.0fg, %.0f kcal, %.0fg protein, %.0fmg sodium, %.0fg sugar\n",
			it.FoodLabel, it.ServingGrams, it.Calories, it.Protein, it.Sodium, it.Sugar)
	}

	if r.gen != nil {
		resp, err := r.gen.Generate(ctx, ai.Request{
			Prompt:    ai.RecommendationPrompt(sb.String()),
			MaxTokens: 400,
			JSON:      true,
		})
		if err == nil {
			if recs := parseRecs(resp.Text); len(recs) > 0 {
				return &Recommendations{Items: recs, Source: RecSourceAI, Provider: resp.Provider}, nil
			}
			err = ai.ErrEmptyResponse
		}
		logger.Warn("AI recommendations unavailable", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	eval, err := r.progress.Evaluate(ctx, user, now)
	if err != nil {
		return nil, err
	}
	recs := eval.Evaluation.Advice
	if len(recs) == 0 {
		recs = []string{"Keep logging meals to get personalised suggestions."}
	}
	return &Recommendations{Items: recs, Source: RecSourceRules}, nil
}

// parseRecs reads {"recommendations": [...]} and falls back to bullet lines.
func parseRecs(text string) []string {
	var out struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := ai.DecodeJSON(text, &out); err == nil {
		recs := out.Recommendations[:0]
		for _, r := range out.Recommendations {
			if r = strings.TrimSpace(r); r != "" {
				recs = append(recs, r)
			}
		}
		return recs
	}
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-•* \t")
		if line != "" {
			recs = append(recs, line)
		}
	}
	return recs
}
