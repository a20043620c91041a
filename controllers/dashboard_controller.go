package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Dashboard *services.DashboardService
}

func NewDashboardController(d *services.DashboardService) *DashboardController {
	return &DashboardController{Dashboard: d}
}

func (dc *DashboardController) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := dc.Dashboard.Get(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
