package controllers

import (
	"net/http"

	"grant-portal-api/config"

	"github.com/gin-gonic/gin"
)

// GetGrantSettings exposes the public program settings used by the portal
// frontend.
func GetGrantSettings(c *gin.Context) {
	settings := config.LoadGrantSettings()

	c.JSON(http.StatusOK, gin.H{
		"approval_deadline_hours":   settings.ApprovalDeadlineHours,
		"processing_time_weeks_min": settings.ProcessingTimeWeeksMin,
		"processing_time_weeks_max": settings.ProcessingTimeWeeksMax,
		"review_frequency":          settings.ReviewFrequency,
		"welcome_message":           settings.WelcomeMessage,
	})
}
