package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type SkincareController struct {
	Skincare *services.SkincareService
}

func NewSkincareController(skincare *services.SkincareService) *SkincareController {
	return &SkincareController{Skincare: skincare}
}

// UpsertDiary creates or replaces the entry for body.date (default today).
func (sc *SkincareController) UpsertDiary(c *gin.Context) {
	var body services.DiaryInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	entry, err := sc.Skincare.Upsert(c.Request.Context(), c.GetUint("userID"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (sc *SkincareController) ListDiary(c *gin.Context) {
	entries, err := sc.Skincare.List(c.Request.Context(), c.GetUint("userID"), intQuery(c, "days", 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (sc *SkincareController) Correlation(c *gin.Context) {
	report, err := sc.Skincare.Correlation(c.Request.Context(), c.GetUint("userID"), intQuery(c, "days", 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
