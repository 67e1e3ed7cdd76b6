package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type AchievementHandler struct {
	BaseHandler
	achievementService services.AchievementService
}

func NewAchievementHandler(achievementService services.AchievementService, logger utils.Logger) *AchievementHandler {
	return &AchievementHandler{
		BaseHandler:        NewBaseHandler(logger),
		achievementService: achievementService,
	}
}

// GetAchievements lists the caller's earned badges.
func (h *AchievementHandler) GetAchievements(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	achievements, err := h.achievementService.GetUserAchievements(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievements)
}

// GetStreak returns the caller's consecutive-day activity streak.
func (h *AchievementHandler) GetStreak(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	streak, err := h.achievementService.GetUserStreak(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, streak)
}
