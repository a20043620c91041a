package services

import (
	"context"
	"errors"
	"strings"

	"glowfit/imaging"
	"glowfit/logger"
	"glowfit/models"
	"glowfit/nutrition"
	"glowfit/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FoodService struct {
	db        *gorm.DB
	eda       *EdamamService
	vision    *utils.Vision
	maxUpload int64
}

func NewFoodService(db *gorm.DB, eda *EdamamService, vision *utils.Vision, maxUpload int64) *FoodService {
	return &FoodService{db: db, eda: eda, vision: vision, maxUpload: maxUpload}
}

// Search queries Edamam and caches the hits. When Edamam is unavailable the
// local cache is searched by label instead.
func (s *FoodService) Search(ctx context.Context, query string) ([]FoodHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("q is required")
	}
	hits, err := s.eda.SearchFoods(ctx, query)
	if err != nil {
		logger.Warn("food search falling back to cache", zap.String("q", query), zap.Error(err))
		return s.searchCache(ctx, query, err)
	}
	s.cache(ctx, hits)
	return hits, nil
}

func (s *FoodService) cache(ctx context.Context, hits []FoodHit) {
	if len(hits) == 0 {
		return
	}
	rows := make([]models.FoodItem, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, models.FoodItem{EdamamFoodID: h.FoodID, Label: h.Label, Category: h.Category})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "edamam_food_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "category", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		logger.Warn("food cache upsert failed", zap.Error(err))
	}
}

func (s *FoodService) searchCache(ctx context.Context, query string, cause error) ([]FoodHit, error) {
	var rows []models.FoodItem
	err := s.db.WithContext(ctx).
		Where("LOWER(label) LIKE ?", "%"+strings.ToLower(query)+"%").
		Order("label").Limit(20).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 && !errors.Is(cause, ErrFoodDBDisabled) {
		return nil, cause
	}
	out := make([]FoodHit, 0, len(rows))
	for _, r := range rows {
		out = append(out, FoodHit{FoodID: r.EdamamFoodID, Label: r.Label, Category: r.Category})
	}
	return out, nil
}

// Label returns the cached human name of a food id.
func (s *FoodService) Label(ctx context.Context, foodID string) string {
	var row models.FoodItem
	if err := s.db.WithContext(ctx).Where("edamam_food_id = ?", foodID).First(&row).Error; err != nil {
		return foodID
	}
	return row.Label
}

type Recognition struct {
	Labels []utils.Label `json:"labels"`
	Query  string        `json:"query"`
	Foods  []FoodHit     `json:"foods"`
}

// Recognize detects labels on a food photo and searches the best one.
func (s *FoodService) Recognize(ctx context.Context, dataURI string) (*Recognition, error) {
	img, _, err := imaging.DecodeDataURI(dataURI, s.maxUpload)
	if err != nil {
		return nil, err
	}
	labels, err := s.vision.Labels(ctx, img, 8)
	if err != nil {
		return nil, err
	}
	out := &Recognition{Labels: labels, Foods: []FoodHit{}}
	for _, l := range labels {
		if genericFoodLabels[strings.ToLower(l.Name)] {
			continue
		}
		out.Query = l.Name
		break
	}
	if out.Query == "" {
		return out, nil
	}
	foods, err := s.Search(ctx, out.Query)
	if err != nil {
		return nil, err
	}
	out.Foods = foods
	return out, nil
}

// Rekognition labels that say "this is food" without saying which.
var genericFoodLabels = map[string]bool{
	"food": true, "meal": true, "dish": true, "plate": true, "lunch": true,
	"dinner": true, "breakfast": true, "produce": true, "cuisine": true, "tableware": true,
}

type NutritionPreview struct {
	Food         FoodHit                  `json:"food"`
	MeasureURI   string                   `json:"measure_uri"`
	Quantity     float64                  `json:"quantity"`
	ServingGrams float64                  `json:"serving_grams"`
	Nutrients    map[string]float64       `json:"nutrients"`
	Item         nutrition.Item           `json:"item"`
	Warnings     []nutrition.Warning      `json:"warnings"`
	TrafficLight nutrition.LightBreakdown `json:"traffic_light"`
}

// Analyze fetches nutrients for a food quantity without logging a meal.
func (s *FoodService) Analyze(ctx context.Context, foodID, measureURI string, qty float64, actx nutrition.AssessmentContext) (*NutritionPreview, error) {
	if foodID == "" || measureURI == "" || qty <= 0 {
		return nil, invalid("food_id, measure_uri and positive quantity are required")
	}
	fa, err := s.eda.AnalyzeFood(ctx, foodID, measureURI, qty)
	if err != nil {
		return nil, err
	}
	hit := FoodHit{FoodID: foodID, Label: s.Label(ctx, foodID)}
	if fa.Food != nil {
		if fa.Food.Label != "" && hit.Label == foodID {
			hit.Label = fa.Food.Label
		}
		hit.Category = fa.Food.Category
	}
	item := nutrition.ItemFromNutrients(hit.Label, fa.TotalWeight, fa.Nutrients)
	warnings := nutrition.Assess(hit.Label, withServing(fa.Nutrients, fa.TotalWeight), actx)
	return &NutritionPreview{
		Food:         hit,
		MeasureURI:   measureURI,
		Quantity:     qty,
		ServingGrams: fa.TotalWeight,
		Nutrients:    fa.Nutrients,
		Item:         item,
		Warnings:     warnings,
		TrafficLight: nutrition.TrafficLight(item),
	}, nil
}

// withServing copies Edamam nutrients and adds the serving weight key used by
// the energy density rule.
func withServing(n map[string]float64, grams float64) map[string]float64 {
	out := make(map[string]float64, len(n)+1)
	for k, v := range n {
		out[k] = v
	}
	if grams > 0 {
		out["SERVING_SIZE_G"] = grams
	}
	return out
}
