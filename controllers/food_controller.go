package controllers

import (
	"net/http"
	"strings"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type FoodController struct {
	Foods *services.FoodService
	Meals *services.MealService
}

func NewFoodController(foods *services.FoodService, meals *services.MealService) *FoodController {
	return &FoodController{Foods: foods, Meals: meals}
}

type RecognizeInput struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

type FoodAnalyzeInput struct {
	FoodID     string  `json:"food_id" binding:"required"`
	MeasureURI string  `json:"measure_uri" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required"`
}

// GET /api/nutrition/foods/search?q=apple
func (fc *FoodController) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	foods, err := fc.Foods.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// POST /api/nutrition/foods/recognize {"image_base64": "data:..."}
func (fc *FoodController) Recognize(c *gin.Context) {
	var req RecognizeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := fc.Foods.Recognize(c.Request.Context(), req.ImageBase64)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Analyze previews nutrients and warnings for a food without logging it.
func (fc *FoodController) Analyze(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req FoodAnalyzeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := fc.Meals.Preview(c.Request.Context(), user, req.FoodID, req.MeasureURI, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
