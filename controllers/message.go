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

func canAccessApplication(c *gin.Context, applicationID int) bool {
	if isStaff(c) {
		return true
	}
	userID, _ := c.Get("userID")
	var count int64
	if err := config.DB.Model(&models.GrantApplication{}).
		Where("application_id = ? AND user_id = ? AND delete_at IS NULL", applicationID, userID).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// GetMessages lists the message thread on an application. Internal notes are
// hidden from applicants.
func GetMessages(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	if !canAccessApplication(c, applicationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	var messages []models.Message
	query := config.DB.Preload("Sender").
		Where("application_id = ?", applicationID)
	if !isStaff(c) {
		query = query.Where("is_internal = ?", false)
	}

	if err := query.Order("create_at ASC").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"total":    len(messages),
	})
}

// CreateMessage posts a message on an application thread
func CreateMessage(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	if !canAccessApplication(c, applicationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	type MessageRequest struct {
		MessageType string `json:"message_type"`
		Subject     string `json:"subject" binding:"required"`
		Content     string `json:"content" binding:"required"`
		IsInternal  bool   `json:"is_internal"`
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageGeneral
	}
	switch messageType {
	case models.MessageGeneral, models.MessageClarification,
		models.MessageDocument, models.MessageInterview, models.MessageUpdate:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message type"})
		return
	}

	// applicants cannot write internal notes
	isInternal := req.IsInternal && isStaff(c)

	userID, _ := c.Get("userID")
	message := models.Message{
		ApplicationID: applicationID,
		SenderID:      userID.(int),
		MessageType:   messageType,
		Subject:       utils.SanitizeInput(req.Subject),
		Content:       utils.SanitizeInput(req.Content),
		IsInternal:    isInternal,
		CreateAt:      time.Now(),
	}
	if err := config.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post message"})
		return
	}

	now := time.Now()
	config.DB.Model(&models.GrantApplication{}).
		Where("application_id = ?", applicationID).
		Update("last_activity", now)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message posted",
		"data":    message,
	})
}

// MarkMessageRead flags a message as read
func MarkMessageRead(c *gin.Context) {
	messageID := c.Param("messageId")

	var message models.Message
	if err := config.DB.Where("message_id = ?", messageID).
		First(&message).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	if !canAccessApplication(c, message.ApplicationID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	if err := config.DB.Model(&message).Update("is_read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}
