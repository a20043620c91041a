package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"glowfit/models"
)

const edamamBaseURL = "https://api.edamam.com"

var ErrFoodDBDisabled = errors.New("food database not configured")

type EdamamConfig struct {
	AppID, AppKey           string // food database
	NutriAppID, NutriAppKey string // nutrients endpoint; falls back to the food keys
	BaseURL                 string
}

type EdamamService struct {
	foodAppID, foodAppKey   string
	nutriAppID, nutriAppKey string
	baseURL                 string
	client                  *http.Client
}

func NewEdamamService(cfg EdamamConfig) *EdamamService {
	s := &EdamamService{
		foodAppID:   cfg.AppID,
		foodAppKey:  cfg.AppKey,
		nutriAppID:  cfg.NutriAppID,
		nutriAppKey: cfg.NutriAppKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		client:      &http.Client{Timeout: 10 * time.Second},
	}
	if s.baseURL == "" {
		s.baseURL = edamamBaseURL
	}
	if s.nutriAppID == "" {
		s.nutriAppID, s.nutriAppKey = s.foodAppID, s.foodAppKey
	}
	return s
}

func (s *EdamamService) Enabled() bool { return s != nil && s.foodAppID != "" && s.foodAppKey != "" }

type FoodMeasure struct {
	URI    string  `json:"uri"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

type FoodHit struct {
	FoodID    string             `json:"food_id"`
	Label     string             `json:"label"`
	Category  string             `json:"category,omitempty"`
	Nutrients map[string]float64 `json:"nutrients_per_100g,omitempty"`
	Measures  []FoodMeasure      `json:"measures,omitempty"`
}

type foodParserResponse struct {
	Hints []struct {
		Food struct {
			FoodID    string             `json:"foodId"`
			Label     string             `json:"label"`
			Category  string             `json:"category"`
			Nutrients map[string]float64 `json:"nutrients"`
		} `json:"food"`
		Measures []FoodMeasure `json:"measures"`
	} `json:"hints"`
}

// SearchFoods calls the food database parser endpoint.
func (s *EdamamService) SearchFoods(ctx context.Context, query string) ([]FoodHit, error) {
	if !s.Enabled() {
		return nil, ErrFoodDBDisabled
	}
	q := url.Values{}
	q.Set("ingr", query)
	q.Set("app_id", s.foodAppID)
	q.Set("app_key", s.foodAppKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/food-database/v2/parser?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var pr foodParserResponse
	if err := s.do(req, &pr); err != nil {
		return nil, fmt.Errorf("edamam parser: %w", err)
	}

	seen := map[string]bool{}
	out := make([]FoodHit, 0, len(pr.Hints))
	for _, h := range pr.Hints {
		if seen[h.Food.FoodID] {
			continue
		}
		seen[h.Food.FoodID] = true
		out = append(out, FoodHit{
			FoodID:    h.Food.FoodID,
			Label:     h.Food.Label,
			Category:  h.Food.Category,
			Nutrients: h.Food.Nutrients,
			Measures:  h.Measures,
		})
	}
	return out, nil
}

type nutrientsResponse struct {
	TotalWeight float64 `json:"totalWeight"`
	Ingredients []struct {
		Parsed []struct {
			Food         string `json:"food"`
			FoodID       string `json:"foodId"`
			FoodCategory string `json:"foodCategory,omitempty"`
		} `json:"parsed"`
	} `json:"ingredients"`
	TotalNutrients map[string]struct {
		Quantity float64 `json:"quantity"`
	} `json:"totalNutrients"`
}

// FoodAnalysis is the nutrient breakdown of one quantity of a food.
type FoodAnalysis struct {
	Nutrients   map[string]float64
	TotalWeight float64
	Food        *models.FoodItem
}

// AnalyzeFood posts one ingredient to the nutrients endpoint.
func (s *EdamamService) AnalyzeFood(ctx context.Context, foodID, measureURI string, qty float64) (*FoodAnalysis, error) {
	if !s.Enabled() {
		return nil, ErrFoodDBDisabled
	}
	payload, err := json.Marshal(map[string]any{
		"ingredients": []map[string]any{{
			"quantity":   qty,
			"measureURI": measureURI,
			"foodId":     foodID,
		}},
	})
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("app_id", s.nutriAppID)
	q.Set("app_key", s.nutriAppKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/food-database/v2/nutrients?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var nr nutrientsResponse
	if err := s.do(req, &nr); err != nil {
		return nil, fmt.Errorf("edamam nutrients: %w", err)
	}

	res := &FoodAnalysis{
		Nutrients:   make(map[string]float64, len(nr.TotalNutrients)),
		TotalWeight: nr.TotalWeight,
	}
	for k, v := range nr.TotalNutrients {
		res.Nutrients[k] = v.Quantity
	}
	if len(nr.Ingredients) > 0 && len(nr.Ingredients[0].Parsed) > 0 {
		p := nr.Ingredients[0].Parsed[0]
		res.Food = &models.FoodItem{EdamamFoodID: p.FoodID, Label: p.Food, Category: p.FoodCategory}
	}
	return res, nil
}

func (s *EdamamService) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &UpstreamError{Service: "edamam", StatusCode: resp.StatusCode, Body: snippet}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// UpstreamError is a non-200 answer from a third-party HTTP API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.StatusCode, e.Body)
}
