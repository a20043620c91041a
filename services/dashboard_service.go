package services

import (
	"context"

	"glowfit/models"

	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	progress *ProgressService
	water    *WaterService
	workouts *WorkoutService
	analyses *AnalysisService
	game     *GamificationService
	meals    *MealService
	Now      Clock
}

func NewDashboardService(progress *ProgressService, water *WaterService, workouts *WorkoutService, analyses *AnalysisService, game *GamificationService, meals *MealService) *DashboardService {
	return &DashboardService{progress: progress, water: water, workouts: workouts, analyses: analyses, game: game, meals: meals}
}

type Dashboard struct {
	Date         string                      `json:"date"`
	Nutrition    *DayProgress                `json:"nutrition"`
	Water        *WaterDay                   `json:"water"`
	Workouts     *WorkoutStats               `json:"workouts"`
	Analyses     map[string]*models.Analysis `json:"latest_analyses"`
	Gamification *GameProfile                `json:"gamification"`
	RecentMeals  []models.MealRecord         `json:"recent_meals"`
}

// Get loads every dashboard section concurrently; the first failure cancels the rest.
func (s *DashboardService) Get(ctx context.Context, user *models.User) (*Dashboard, error) {
	today := dayStart(s.Now.now())
	out := &Dashboard{Date: today.Format(dateLayout)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Nutrition, err = s.progress.Progress(ctx, user, today)
		return err
	})
	g.Go(func() (err error) {
		out.Water, err = s.water.Day(ctx, user, today)
		return err
	})
	g.Go(func() (err error) {
		out.Workouts, err = s.workouts.Stats(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Analyses, err = s.analyses.Latest(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.Gamification, err = s.game.Profile(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		out.RecentMeals, err = s.meals.ListRecent(ctx, user.ID, 3)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
