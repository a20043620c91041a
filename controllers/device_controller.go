package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type DeviceController struct {
	Push *services.PushService
}

func NewDeviceController(ps *services.PushService) *DeviceController {
	return &DeviceController{Push: ps}
}

type ToggleNotificationsInput struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (dc *DeviceController) Register(c *gin.Context) {
	var req services.RegisterDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dev, err := dc.Push.RegisterDevice(c.Request.Context(), c.GetUint("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": dev.ID, "platform": dev.Platform, "endpoint_arn": dev.EndpointARN, "enabled": dev.Enabled})
}

// ToggleNotifications enables or disables push on every device of the user.
func (dc *DeviceController) ToggleNotifications(c *gin.Context) {
	var req ToggleNotificationsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	n, err := dc.Push.SetEnabled(c.Request.Context(), c.GetUint("userID"), *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled, "devices": n})
}
