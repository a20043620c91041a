package controllers

import (
	"net/http"
	"time"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type WaterController struct {
	Water *services.WaterService
}

func NewWaterController(water *services.WaterService) *WaterController {
	return &WaterController{Water: water}
}

type WaterInput struct {
	AmountMl   int        `json:"amount_ml" binding:"required"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (wc *WaterController) Add(c *gin.Context) {
	var body WaterInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := wc.Water.Add(c.Request.Context(), c.GetUint("userID"), body.AmountMl, body.RecordedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (wc *WaterController) Day(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	day, err := services.ParseDay(c.Query("date"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := wc.Water.Day(c.Request.Context(), user, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (wc *WaterController) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := wc.Water.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
