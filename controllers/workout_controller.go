package controllers

import (
	"net/http"
	"time"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type WorkoutController struct {
	Workouts *services.WorkoutService
}

func NewWorkoutController(workouts *services.WorkoutService) *WorkoutController {
	return &WorkoutController{Workouts: workouts}
}

func (wc *WorkoutController) Log(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var body services.WorkoutInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	w, award, err := wc.Workouts.Log(c.Request.Context(), user, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workout": w, "award": award})
}

func (wc *WorkoutController) List(c *gin.Context) {
	from, to, err := services.ParseRange(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	logs, err := wc.Workouts.List(c.Request.Context(), c.GetUint("userID"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workouts": logs})
}

func (wc *WorkoutController) Stats(c *gin.Context) {
	stats, err := wc.Workouts.Stats(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (wc *WorkoutController) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := wc.Workouts.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
