package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	Recs *services.RecService
}

func NewRecommendationController(recs *services.RecService) *RecommendationController {
	return &RecommendationController{Recs: recs}
}

func (rc *RecommendationController) GetRecommendations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	recs, err := rc.Recs.GetRecs(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}
