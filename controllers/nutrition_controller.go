package controllers

import (
	"net/http"
	"time"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

// NutritionController serves goals, daily progress, evaluation and summaries.
type NutritionController struct {
	Settings *services.NutritionSettingsService
	Progress *services.ProgressService
}

func NewNutritionController(settings *services.NutritionSettingsService, progress *services.ProgressService) *NutritionController {
	return &NutritionController{Settings: settings, Progress: progress}
}

func (nc *NutritionController) GetSettings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := nc.Settings.Get(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (nc *NutritionController) UpdateSettings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input services.SettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	view, err := nc.Settings.Update(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (nc *NutritionController) Progress(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	day, err := services.ParseDay(c.Query("date"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := nc.Progress.Progress(c.Request.Context(), user, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (nc *NutritionController) Evaluation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	day, err := services.ParseDay(c.Query("date"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := nc.Progress.Evaluate(c.Request.Context(), user, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Summary averages ?from=&to= (default last 7 days). ?include_missing=true
// counts days without records as zero.
func (nc *NutritionController) Summary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	from, to, err := services.ParseRange(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := nc.Progress.Summary(c.Request.Context(), user, from, to, c.Query("include_missing") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
