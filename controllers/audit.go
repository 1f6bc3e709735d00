package controllers

import (
	"net/http"
	"strconv"

	"grant-portal-api/config"
	"grant-portal-api/models"

	"github.com/gin-gonic/gin"
)

// GetAuditLogs returns the audit trail (admin only), newest first.
func GetAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := config.DB.Model(&models.AuditLog{}).Preload("User")

	if action := c.Query("action_type"); action != "" {
		query = query.Where("action_type = ?", action)
	}
	if objectID := c.Query("object_id"); objectID != "" {
		query = query.Where("object_id = ?", objectID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("create_at >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("create_at <= ?", to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count audit logs"})
		return
	}

	var logs []models.AuditLog
	if err := query.Order("create_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetApplicationAuditTrail returns the audit history of one application.
func GetApplicationAuditTrail(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	if !canAccessApplication(c, applicationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	var logs []models.AuditLog
	if err := config.DB.Preload("User").
		Where("object_type = ? AND object_id = ?", "GrantApplication", strconv.Itoa(applicationID)).
		Order("create_at ASC").
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}
