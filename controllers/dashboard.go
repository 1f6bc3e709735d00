package controllers

import (
	"net/http"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats returns role-appropriate dashboard numbers.
func GetDashboardStats(c *gin.Context) {
	if isStaff(c) {
		staffDashboard(c)
		return
	}
	applicantDashboard(c)
}

func applicantDashboard(c *gin.Context) {
	userID, _ := c.Get("userID")

	var application models.GrantApplication
	if err := config.DB.Preload("Documents").
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&application).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{
			"has_application": false,
		})
		return
	}

	var unreadNotifications int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unreadNotifications)

	var unreadMessages int64
	config.DB.Model(&models.Message{}).
		Where("application_id = ? AND sender_id <> ? AND is_read = ? AND is_internal = ?",
			application.ApplicationID, userID, false, false).
		Count(&unreadMessages)

	c.JSON(http.StatusOK, gin.H{
		"has_application":      true,
		"application":          application,
		"progress":             application.ProgressPercentage(),
		"unread_notifications": unreadNotifications,
		"unread_messages":      unreadMessages,
	})
}

func staffDashboard(c *gin.Context) {
	statusCounts := map[string]int64{}
	for _, status := range []string{
		utils.StatusPending, utils.StatusUnderReview, utils.StatusApproved,
		utils.StatusRejected, utils.StatusOnHold,
	} {
		var count int64
		config.DB.Model(&models.GrantApplication{}).
			Where("status = ? AND delete_at IS NULL", status).
			Count(&count)
		statusCounts[status] = count
	}

	var totalRequested, totalApproved int64
	config.DB.Model(&models.GrantApplication{}).
		Where("delete_at IS NULL").
		Select("COALESCE(SUM(amount_requested), 0)").Scan(&totalRequested)
	config.DB.Model(&models.GrantApplication{}).
		Where("status = ? AND delete_at IS NULL", utils.StatusApproved).
		Select("COALESCE(SUM(approved_amount), 0)").Scan(&totalApproved)

	var totalDisbursed float64
	config.DB.Model(&models.FundDisbursement{}).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalDisbursed)

	weekAgo := time.Now().AddDate(0, 0, -7)
	var recentActivity int64
	config.DB.Model(&models.AuditLog{}).
		Where("create_at >= ?", weekAgo).
		Count(&recentActivity)

	var awaitingDocuments int64
	config.DB.Model(&models.GrantApplication{}).
		Where("documents_complete = ? AND status NOT IN ? AND delete_at IS NULL",
			false, []string{utils.StatusApproved, utils.StatusRejected}).
		Count(&awaitingDocuments)

	c.JSON(http.StatusOK, gin.H{
		"status_counts":      statusCounts,
		"total_requested":    totalRequested,
		"total_approved":     totalApproved,
		"total_disbursed":    totalDisbursed,
		"recent_activity":    recentActivity,
		"awaiting_documents": awaitingDocuments,
	})
}
