package controllers

import (
	"net/http"

	"glowfit/services"

	"github.com/gin-gonic/gin"
)

type SocialController struct {
	Social *services.SocialService
	Game   *services.GamificationService
}

func NewSocialController(social *services.SocialService, game *services.GamificationService) *SocialController {
	return &SocialController{Social: social, Game: game}
}

func (sc *SocialController) Follow(c *gin.Context) {
	target, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if err := sc.Social.Follow(c.Request.Context(), c.GetUint("userID"), target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

func (sc *SocialController) Unfollow(c *gin.Context) {
	target, ok := idParam(c, "userId")
	if !ok {
		return
	}
	if err := sc.Social.Unfollow(c.Request.Context(), c.GetUint("userID"), target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (sc *SocialController) Followers(c *gin.Context) {
	users, err := sc.Social.Followers(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (sc *SocialController) Following(c *gin.Context) {
	users, err := sc.Social.Following(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Feed pages backwards with ?before=<event id>.
func (sc *SocialController) Feed(c *gin.Context) {
	page, err := sc.Social.Feed(c.Request.Context(), c.GetUint("userID"), uint(max(intQuery(c, "before", 0), 0)), intQuery(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (sc *SocialController) Me(c *gin.Context) {
	profile, err := sc.Game.Profile(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Leaderboard ranks everyone, or ?scope=following for the people you follow.
func (sc *SocialController) Leaderboard(c *gin.Context) {
	var followingOf uint
	if c.Query("scope") == "following" {
		followingOf = c.GetUint("userID")
	}
	entries, err := sc.Game.Leaderboard(c.Request.Context(), intQuery(c, "limit", 20), followingOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
