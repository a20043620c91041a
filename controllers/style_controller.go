package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type StyleController struct {
	Outfits *services.OutfitService
}

func NewStyleController(outfits *services.OutfitService) *StyleController {
	return &StyleController{Outfits: outfits}
}

func (sc *StyleController) CreateOutfit(c *gin.Context) {
	var body services.OutfitInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	outfit, err := sc.Outfits.Create(c.Request.Context(), c.GetUint("userID"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, outfit)
}

func (sc *StyleController) ListOutfits(c *gin.Context) {
	outfits, err := sc.Outfits.List(c.Request.Context(), c.GetUint("userID"), c.Query("season"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outfits": outfits})
}

func (sc *StyleController) DeleteOutfit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := sc.Outfits.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
