package controllers

import (
	"net/http"
	"time"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type MealController struct {
	Meals *services.MealService
}

func NewMealController(meals *services.MealService) *MealController {
	return &MealController{Meals: meals}
}

func (mc *MealController) LogMeal(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var body services.MealInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	res, err := mc.Meals.Create(c.Request.Context(), user, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListMeals returns the meals of ?date= (default today).
func (mc *MealController) ListMeals(c *gin.Context) {
	day, err := services.ParseDay(c.Query("date"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	meals, err := mc.Meals.ListByDay(c.Request.Context(), c.GetUint("userID"), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(time.DateOnly), "meals": meals})
}

func (mc *MealController) GetMeal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	meal, err := mc.Meals.Get(c.Request.Context(), c.GetUint("userID"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (mc *MealController) DeleteMeal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := mc.Meals.Delete(c.Request.Context(), c.GetUint("userID"), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
