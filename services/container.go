package services

import (
	"glowfit/ai"
	"glowfit/utils"

	"gorm.io/gorm"
)

// Deps carries the external clients the services are built from. Nil
// clients disable the features that need them.
type Deps struct {
	DB        *gorm.DB
	Storage   *utils.Storage
	Vision    *utils.Vision
	Mailer    *utils.Mailer
	SNS       SNSAPI
	SNSFCMArn string
	Generator Generator
	Breakers  *ai.Registry
	Edamam    EdamamConfig

	JWTSecret        string
	AdminEmails      []string
	MaxUploadBytes   int64
	RequireFaceCheck bool
}

// Container holds one instance of every service, wired together.
type Container struct {
	DB *gorm.DB

	Hub       *RealtimeHub
	Push      *PushService
	Alerts    *AlertBus
	Auth      *AuthService
	Users     *UserService
	Game      *GamificationService
	Social    *SocialService
	Settings  *NutritionSettingsService
	Progress  *ProgressService
	Foods     *FoodService
	Meals     *MealService
	Water     *WaterService
	Workouts  *WorkoutService
	Analyses  *AnalysisService
	Skincare  *SkincareService
	Outfits   *OutfitService
	Recs      *RecService
	Dashboard *DashboardService
	Admin     *AdminService
}

func NewContainer(d Deps) *Container {
	c := &Container{DB: d.DB}
	c.Hub = NewRealtimeHub()
	c.Push = NewPushService(d.DB, d.SNS, d.SNSFCMArn)
	c.Alerts = NewAlertBus(d.DB, c.Hub, c.Push)
	c.Auth = NewAuthService(d.DB, d.Mailer, d.JWTSecret, d.AdminEmails)
	c.Users = NewUserService(d.DB, d.Storage, d.MaxUploadBytes)
	c.Game = NewGamificationService(d.DB, c.Alerts)
	c.Social = NewSocialService(d.DB)
	c.Settings = NewNutritionSettingsService(d.DB)
	c.Progress = NewProgressService(d.DB, c.Settings)
	c.Foods = NewFoodService(d.DB, NewEdamamService(d.Edamam), d.Vision, d.MaxUploadBytes)
	c.Meals = NewMealService(d.DB, c.Foods, c.Settings, c.Progress, c.Game, c.Alerts)
	c.Water = NewWaterService(d.DB, c.Settings, c.Progress, c.Game)
	c.Workouts = NewWorkoutService(d.DB, c.Progress, c.Game)
	c.Analyses = NewAnalysisService(d.DB, d.Generator, d.Storage, d.Vision, c.Game, d.MaxUploadBytes, d.RequireFaceCheck)
	c.Skincare = NewSkincareService(d.DB, c.Game)
	c.Outfits = NewOutfitService(d.DB, d.Storage, d.MaxUploadBytes)
	c.Recs = NewRecService(d.DB, d.Generator, c.Progress)
	c.Dashboard = NewDashboardService(c.Progress, c.Water, c.Workouts, c.Analyses, c.Game, c.Meals)
	c.Admin = NewAdminService(d.DB, d.Breakers, d.Mailer, c.Progress)
	return c
}
