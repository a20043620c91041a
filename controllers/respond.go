package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"glowfit/ai"
	"glowfit/imaging"
	"glowfit/logger"
	"glowfit/middlewares"
	"glowfit/models"
	"glowfit/nutrition"
	"glowfit/services"
	"glowfit/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	switch status {
	case http.StatusBadRequest:
		msg = strings.Replace(msg, services.ErrValidation.Error()+": ", "", 1)
	case http.StatusInternalServerError:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middlewares.CtxRequestID)),
			zap.Error(err),
		)
		msg = "internal server error"
	case http.StatusBadGateway:
		logger.Warn("upstream failure", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func statusOf(err error) int {
	var upstream *services.UpstreamError
	var aiStatus *ai.StatusError
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrBadExposure),
		errors.Is(err, imaging.ErrInvalidDataURI),
		errors.Is(err, imaging.ErrTooLarge),
		errors.Is(err, imaging.ErrUnsupportedType),
		errors.Is(err, utils.ErrImplausibleBody),
		errors.Is(err, nutrition.ErrUnknownGoal):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrFoodDBDisabled),
		errors.Is(err, services.ErrPushDisabled),
		errors.Is(err, utils.ErrMailDisabled),
		errors.Is(err, utils.ErrStorageDisabled),
		errors.Is(err, utils.ErrVisionDisabled),
		errors.Is(err, ai.ErrNoProviders),
		errors.Is(err, ai.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstream),
		errors.As(err, &aiStatus),
		errors.Is(err, ai.ErrAllProvidersFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// currentUser aborts with 401 when the auth middleware did not run.
func currentUser(c *gin.Context) (*models.User, bool) {
	u, ok := middlewares.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return u, ok
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
