package controllers

import (
	"net/http"
	"strconv"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/utils"

	"github.com/gin-gonic/gin"
)

// GetProgressReports lists reports submitted for an application
func GetProgressReports(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	if !canAccessApplication(c, applicationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	var reports []models.ProgressReport
	if err := config.DB.Where("application_id = ?", applicationID).
		Order("submitted_at ASC").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"total":   len(reports),
	})
}

// SubmitProgressReport files a progress report for a funded project
func SubmitProgressReport(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	userID, _ := c.Get("userID")

	var application models.GrantApplication
	query := config.DB.Where("application_id = ? AND delete_at IS NULL", applicationID)
	if !isStaff(c) {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	if application.Status != utils.StatusApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Progress reports apply to approved grants only"})
		return
	}

	type ReportRequest struct {
		ReportPeriod        string  `json:"report_period" binding:"required"`
		ActivitiesCompleted string  `json:"activities_completed" binding:"required"`
		ChallengesFaced     string  `json:"challenges_faced"`
		FundsUsed           float64 `json:"funds_used" binding:"gte=0"`
		NextSteps           string  `json:"next_steps"`
	}

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var remaining float64
	if application.ApprovedAmount != nil {
		var used float64
		config.DB.Model(&models.ProgressReport{}).
			Where("application_id = ?", applicationID).
			Select("COALESCE(SUM(funds_used), 0)").Scan(&used)
		remaining = float64(*application.ApprovedAmount) - used - req.FundsUsed
	}

	report := models.ProgressReport{
		ApplicationID:       applicationID,
		ReportPeriod:        req.ReportPeriod,
		ActivitiesCompleted: utils.SanitizeInput(req.ActivitiesCompleted),
		ChallengesFaced:     utils.SanitizeInput(req.ChallengesFaced),
		FundsUsed:           req.FundsUsed,
		RemainingFunds:      remaining,
		NextSteps:           utils.SanitizeInput(req.NextSteps),
		SubmittedAt:         time.Now(),
	}
	if err := config.DB.Create(&report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}

	now := time.Now()
	config.DB.Model(&models.GrantApplication{}).
		Where("application_id = ?", applicationID).
		Update("last_activity", now)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Progress report submitted",
		"report":  report,
	})
}

// ReviewProgressReport records a staff review of a submitted report
func ReviewProgressReport(c *gin.Context) {
	reportID := c.Param("reportId")

	type ReviewRequest struct {
		Approved bool   `json:"approved"`
		Notes    string `json:"notes"`
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var report models.ProgressReport
	if err := config.DB.Where("report_id = ?", reportID).
		First(&report).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	now := time.Now()
	report.ReviewedAt = &now
	report.ReviewerNotes = req.Notes
	report.Approved = req.Approved

	if err := config.DB.Save(&report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Report reviewed",
		"report":  report,
	})
}
