package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"glowfit/models"
	"glowfit/nutrition"
	"glowfit/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chickenNutrients = `{
  "totalWeight": 150,
  "ingredients": [{"parsed": [{"food": "chicken breast", "foodId": "food_chicken"}]}],
  "totalNutrients": {
    "ENERC_KCAL": {"quantity": 248},
    "PROCNT": {"quantity": 46.5},
    "FAT": {"quantity": 5.4},
    "FASAT": {"quantity": 1.5},
    "NA": {"quantity": 111}
  }
}`

const chickenSearch = `{"hints": [
  {"food": {"foodId": "food_chicken", "label": "Chicken Breast", "category": "Generic foods", "nutrients": {"ENERC_KCAL": 165}},
   "measures": [{"uri": "http://www.edamam.com/ontologies/edamam.owl#Measure_gram", "label": "Gram", "weight": 1}]},
  {"food": {"foodId": "food_chicken", "label": "Chicken Breast", "category": "Generic foods"}}
]}`

func fakeEdamam(t *testing.T) *EdamamService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/food-database/v2/nutrients":
			_, _ = w.Write([]byte(chickenNutrients))
		case "/api/food-database/v2/parser":
			_, _ = w.Write([]byte(chickenSearch))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return NewEdamamService(EdamamConfig{AppID: "id", AppKey: "key", BaseURL: srv.URL})
}

func newMealService(t *testing.T, f *fixture, eda *EdamamService) *MealService {
	foods := NewFoodService(f.db, eda, utils.NewVision(nil), 1<<20)
	svc := NewMealService(f.db, foods, f.settings, f.progress, f.game, f.alerts)
	svc.Now = fixedClock(testNow)
	return svc
}

func TestCreateMealAssessesItems(t *testing.T) {
	f := newFixture(t)
	svc := newMealService(t, f, fakeEdamam(t))
	ctx := context.Background()
	u := createUser(t, f.db, "eve@example.com")
	ateAt := testNow.Add(-2 * time.Hour)

	res, err := svc.Create(ctx, u, MealInput{
		Type:  "Lunch",
		AteAt: &ateAt,
		Items: []MealItemInput{
			{FoodID: "food_chicken", MeasureURI: "http://www.edamam.com/ontologies/edamam.owl#Measure_gram", Quantity: 150},
			{Label: "Instant ramen", ServingGrams: 100, Calories: 450, Carbs: 60, Fat: 18, Sodium: 1800},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Meal.Items, 2)
	assert.Equal(t, "lunch", res.Meal.Type)
	assert.False(t, res.MealSafe)

	chicken, ramen := res.Meal.Items[0], res.Meal.Items[1]
	assert.Equal(t, "chicken breast", chicken.FoodLabel)
	assert.Equal(t, 248.0, chicken.Calories)
	assert.Equal(t, 150.0, chicken.ServingGrams)
	assert.True(t, chicken.Safe)

	assert.False(t, ramen.Safe)
	assert.Contains(t, ramen.Warnings, "sodium")
	assert.Equal(t, nutrition.LightRed, ramen.TrafficLight)
	assert.Equal(t, 1, res.Lights.Red)

	require.NotNil(t, res.Award)
	assert.Equal(t, 5, res.Award.XPGained)
	assert.Contains(t, res.Award.NewBadges, "first_meal")

	var warnings int64
	require.NoError(t, f.db.Model(&models.Alert{}).Where("user_id = ? AND type = ?", u.ID, models.AlertWarning).Count(&warnings).Error)
	assert.EqualValues(t, 1, warnings)

	var dp models.DailyProgress
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&dp).Error)
	assert.InDelta(t, 698, dp.Calories, 0.01)
	assert.Equal(t, 2, dp.TotalItems)
	assert.Equal(t, 1, dp.SafeItems)

	meals, err := svc.ListByDay(ctx, u.ID, testNow)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Len(t, meals[0].Items, 2)

	other := createUser(t, f.db, "mallory@example.com")
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, res.Meal.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, u.ID, res.Meal.ID))
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&dp).Error)
	assert.Zero(t, dp.Calories)
	assert.Zero(t, dp.TotalItems)
	_, err = svc.Get(ctx, u.ID, res.Meal.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMealValidation(t *testing.T) {
	f := newFixture(t)
	svc := newMealService(t, f, NewEdamamService(EdamamConfig{}))
	ctx := context.Background()
	u := createUser(t, f.db, "val@example.com")
	future := testNow.Add(3 * time.Hour)

	cases := map[string]MealInput{
		"type":     {Type: "brunch", Items: []MealItemInput{{Label: "toast", Calories: 80}}},
		"no items": {Type: "snack"},
		"future":   {Type: "snack", AteAt: &future, Items: []MealItemInput{{Label: "toast", Calories: 80}}},
		"label":    {Type: "snack", Items: []MealItemInput{{Calories: 80}}},
		"negative": {Type: "snack", Items: []MealItemInput{{Label: "toast", Calories: -1}}},
	}
	for name, in := range cases {
		_, err := svc.Create(ctx, u, in)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	_, err := svc.Create(ctx, u, MealInput{Type: "snack", Items: []MealItemInput{{FoodID: "food_x", MeasureURI: "m", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrFoodDBDisabled)
}

func TestFoodSearchCachesAndFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	online := NewFoodService(f.db, fakeEdamam(t), nil, 1<<20)
	hits, err := online.Search(ctx, "chicken")
	require.NoError(t, err)
	require.Len(t, hits, 1, "duplicate hints are collapsed")
	assert.Equal(t, "Chicken Breast", hits[0].Label)

	offline := NewFoodService(f.db, NewEdamamService(EdamamConfig{}), nil, 1<<20)
	cached, err := offline.Search(ctx, "CHICK")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "food_chicken", cached[0].FoodID)
	assert.Equal(t, "Chicken Breast", offline.Label(ctx, "food_chicken"))

	_, err = offline.Search(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDayEvaluationAndSummary(t *testing.T) {
	f := newFixture(t)
	svc := newMealService(t, f, NewEdamamService(EdamamConfig{}))
	ctx := context.Background()
	u := createUser(t, f.db, "ivy@example.com")

	_, err := svc.Create(ctx, u, MealInput{Type: "breakfast", Items: []MealItemInput{
		{Label: "Oatmeal", ServingGrams: 250, Calories: 300, Protein: 10, Carbs: 54, Fat: 5, Fiber: 8, Sugar: 2, Sodium: 10},
	}})
	require.NoError(t, err)

	ev, err := f.progress.Evaluate(ctx, u, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Items)
	assert.Equal(t, 1, ev.TrafficLight.Green)
	assert.NotEmpty(t, ev.Evaluation.Deficiencies, "one bowl of oatmeal is not a full day")
	assert.GreaterOrEqual(t, ev.Evaluation.Score, 0)

	sum, err := f.progress.Summary(ctx, u, testNow.AddDate(0, 0, -6), testNow, true)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.DaysCounted)
	assert.InDelta(t, 300.0/7, sum.Averages["calories"].AvgConsumed, 0.01)
	assert.Equal(t, 100.0, sum.Safety.ScorePct)

	sparse, err := f.progress.Summary(ctx, u, testNow.AddDate(0, 0, -6), testNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sparse.DaysCounted)
	assert.Equal(t, 300.0, sparse.Averages["calories"].AvgConsumed)
}
