package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{Admin: admin}
}

func (ac *AdminController) Stats(c *gin.Context) {
	stats, err := ac.Admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ac *AdminController) Users(c *gin.Context) {
	page, err := ac.Admin.Users(c.Request.Context(), c.Query("q"), intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ac *AdminController) UpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch services.AdminUserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	user, err := ac.Admin.UpdateUser(c.Request.Context(), c.GetUint("userID"), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email, "role": user.Role, "disabled": user.Disabled})
}

func (ac *AdminController) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": ac.Admin.Providers()})
}

func (ac *AdminController) ResetProvider(c *gin.Context) {
	name := c.Param("name")
	if err := ac.Admin.ResetProvider(name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": name, "state": "closed"})
}

func (ac *AdminController) WeeklyReports(c *gin.Context) {
	run, err := ac.Admin.SendWeeklyReports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
