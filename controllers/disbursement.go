package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetDisbursements lists payouts for an application
func GetDisbursements(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	userID, _ := c.Get("userID")
	if !isStaff(c) {
		var count int64
		if err := config.DB.Model(&models.GrantApplication{}).
			Where("application_id = ? AND user_id = ? AND delete_at IS NULL", applicationID, userID).
			Count(&count).Error; err != nil || count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
	}

	var disbursements []models.FundDisbursement
	if err := config.DB.Where("application_id = ?", applicationID).
		Order("disbursed_at ASC").Find(&disbursements).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch disbursements"})
		return
	}

	var total float64
	for _, d := range disbursements {
		total += d.Amount
	}

	c.JSON(http.StatusOK, gin.H{
		"disbursements":   disbursements,
		"total_disbursed": total,
	})
}

// CreateDisbursement records a payout against an approved application
// (admin only).
func CreateDisbursement(c *gin.Context) {
	applicationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	type DisbursementRequest struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
		Method string  `json:"method" binding:"required"`
		Notes  string  `json:"notes"`
	}

	var req DisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Method {
	case models.DisbursementBankTransfer, models.DisbursementCheck,
		models.DisbursementDigitalWallet, models.DisbursementOther:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid disbursement method"})
		return
	}

	var application models.GrantApplication
	if err := config.DB.Where("application_id = ? AND delete_at IS NULL", applicationID).
		First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	if application.Status != utils.StatusApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Funds can only be disbursed for approved applications"})
		return
	}

	if application.ApprovedAmount != nil {
		var disbursed float64
		config.DB.Model(&models.FundDisbursement{}).
			Where("application_id = ?", applicationID).
			Select("COALESCE(SUM(amount), 0)").Scan(&disbursed)
		if disbursed+req.Amount > float64(*application.ApprovedAmount) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Disbursement would exceed the approved amount of %d", *application.ApprovedAmount),
			})
			return
		}
	}

	now := time.Now()
	reference := fmt.Sprintf("DSB-%s-%s", now.Format("20060102"),
		strings.ToUpper(uuid.New().String()[:8]))

	disbursement := models.FundDisbursement{
		ApplicationID:   applicationID,
		Amount:          req.Amount,
		Method:          req.Method,
		ReferenceNumber: reference,
		DisbursedAt:     now,
		Notes:           req.Notes,
		ProcessedBy:     currentActor(c),
		CreateAt:        &now,
	}
	if err := config.DB.Create(&disbursement).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record disbursement"})
		return
	}

	recordAuditEntry(c, models.ActionFundsDisbursed, applicationID,
		fmt.Sprintf("Disbursed %.2f via %s (ref %s)", req.Amount, req.Method, reference))

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Disbursement recorded",
		"disbursement": disbursement,
	})
}
