package routes

import (
	"glowfit/controllers"
	"glowfit/middlewares"
	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type Options struct {
	CORSAllowOrigins []string
}

func SetupRouter(svc *services.Container, authn *middlewares.Authenticator, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestLogger(), middlewares.Recovery(), middlewares.CORS(opts.CORSAllowOrigins))

	health := controllers.NewHealthController(svc.DB)
	r.GET("/healthz", health.Healthz)

	authCtl := controllers.NewAuthController(svc.Auth)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
	}

	requireAuth := authn.AuthMiddleware()

	userCtl := controllers.NewUserController(svc.Users)
	deviceCtl := controllers.NewDeviceController(svc.Push)
	realtimeCtl := controllers.NewRealtimeController(svc.Hub, svc.Alerts)
	user := r.Group("/user")
	user.Use(requireAuth)
	{
		user.GET("/profile", userCtl.GetProfile)
		user.PUT("/profile", userCtl.UpdateProfile)
		user.POST("/devices", deviceCtl.Register)
		user.POST("/notifications/toggle", deviceCtl.ToggleNotifications)
		user.GET("/alerts", realtimeCtl.List)
		user.POST("/alerts/read", realtimeCtl.MarkRead)
		user.GET("/alerts/ws", realtimeCtl.AlertsWS)
	}

	api := r.Group("/api")
	api.Use(requireAuth)

	analysisCtl := controllers.NewAnalysisController(svc.Analyses)
	analyze := api.Group("/analyze")
	{
		analyze.GET("/history", analysisCtl.History)
		analyze.POST("/:kind", analysisCtl.Analyze)
		analyze.GET("/:id", analysisCtl.Get)
		analyze.DELETE("/:id", analysisCtl.Delete)
	}

	nutritionCtl := controllers.NewNutritionController(svc.Settings, svc.Progress)
	mealCtl := controllers.NewMealController(svc.Meals)
	foodCtl := controllers.NewFoodController(svc.Foods, svc.Meals)
	waterCtl := controllers.NewWaterController(svc.Water)
	recCtl := controllers.NewRecommendationController(svc.Recs)
	nutrition := api.Group("/nutrition")
	{
		nutrition.GET("/settings", nutritionCtl.GetSettings)
		nutrition.PUT("/settings", nutritionCtl.UpdateSettings)
		nutrition.GET("/progress", nutritionCtl.Progress)
		nutrition.GET("/evaluation", nutritionCtl.Evaluation)
		nutrition.GET("/summary", nutritionCtl.Summary)
		nutrition.GET("/recommendations", recCtl.GetRecommendations)

		nutrition.POST("/meals", mealCtl.LogMeal)
		nutrition.GET("/meals", mealCtl.ListMeals)
		nutrition.GET("/meals/:id", mealCtl.GetMeal)
		nutrition.DELETE("/meals/:id", mealCtl.DeleteMeal)

		nutrition.GET("/foods/search", foodCtl.Search)
		nutrition.POST("/foods/recognize", foodCtl.Recognize)
		nutrition.POST("/foods/analyze", foodCtl.Analyze)

		nutrition.POST("/water", waterCtl.Add)
		nutrition.GET("/water", waterCtl.Day)
		nutrition.DELETE("/water/:id", waterCtl.Delete)
	}

	workoutCtl := controllers.NewWorkoutController(svc.Workouts)
	workouts := api.Group("/workouts")
	{
		workouts.POST("", workoutCtl.Log)
		workouts.GET("", workoutCtl.List)
		workouts.GET("/stats", workoutCtl.Stats)
		workouts.DELETE("/:id", workoutCtl.Delete)
	}

	skincareCtl := controllers.NewSkincareController(svc.Skincare)
	skincare := api.Group("/skincare")
	{
		skincare.POST("/diary", skincareCtl.UpsertDiary)
		skincare.GET("/diary", skincareCtl.ListDiary)
		skincare.GET("/correlation", skincareCtl.Correlation)
	}

	styleCtl := controllers.NewStyleController(svc.Outfits)
	style := api.Group("/style")
	{
		style.POST("/outfits", styleCtl.CreateOutfit)
		style.GET("/outfits", styleCtl.ListOutfits)
		style.DELETE("/outfits/:id", styleCtl.DeleteOutfit)
	}

	socialCtl := controllers.NewSocialController(svc.Social, svc.Game)
	social := api.Group("/social")
	{
		social.POST("/follow/:userId", socialCtl.Follow)
		social.DELETE("/follow/:userId", socialCtl.Unfollow)
		social.GET("/followers", socialCtl.Followers)
		social.GET("/following", socialCtl.Following)
		social.GET("/feed", socialCtl.Feed)
	}
	api.GET("/gamification/me", socialCtl.Me)
	api.GET("/gamification/leaderboard", socialCtl.Leaderboard)

	dashboardCtl := controllers.NewDashboardController(svc.Dashboard)
	api.GET("/dashboard", dashboardCtl.Get)

	adminCtl := controllers.NewAdminController(svc.Admin)
	admin := r.Group("/admin")
	admin.Use(requireAuth, middlewares.AdminOnly())
	{
		admin.GET("/stats", adminCtl.Stats)
		admin.GET("/users", adminCtl.Users)
		admin.PATCH("/users/:id", adminCtl.UpdateUser)
		admin.GET("/ai/providers", adminCtl.Providers)
		admin.POST("/ai/providers/:name/reset", adminCtl.ResetProvider)
		admin.POST("/reports/weekly", adminCtl.WeeklyReports)
	}

	return r
}
