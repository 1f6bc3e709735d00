package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/services"
	"grant-portal-api/utils"

	"github.com/gin-gonic/gin"
)

// currentActor returns the authenticated user's ID as the actor pointer used
// by the service layer.
func currentActor(c *gin.Context) *int {
	userID, exists := c.Get("userID")
	if !exists {
		return nil
	}
	id := userID.(int)
	return &id
}

func isStaff(c *gin.Context) bool {
	roleID, _ := c.Get("roleID")
	role, _ := roleID.(int)
	return role == models.RoleReviewer || role == models.RoleAdmin
}

// GetApplications returns list of applications
func GetApplications(c *gin.Context) {
	userID, _ := c.Get("userID")

	var applications []models.GrantApplication
	query := config.DB.Preload("User").
		Where("grant_applications.delete_at IS NULL")

	// Applicants only ever see their own record
	if !isStaff(c) {
		query = query.Where("user_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if stage := c.Query("stage"); stage != "" {
		query = query.Where("current_stage = ?", stage)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("project_category = ?", category)
	}

	if err := query.Order("create_at DESC").Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": applications,
		"total":        len(applications),
	})
}

// GetApplication returns single application by ID
func GetApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")

	var application models.GrantApplication
	query := config.DB.Preload("User").Preload("Documents").Preload("Documents.DocumentType").
		Where("application_id = ? AND grant_applications.delete_at IS NULL", id)

	if !isStaff(c) {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"application": application,
		"progress":    application.ProgressPercentage(),
	})
}

// CreateApplication creates a new grant application
func CreateApplication(c *gin.Context) {
	type CreateApplicationRequest struct {
		FullName           string `json:"full_name" binding:"required"`
		Email              string `json:"email" binding:"required,email"`
		Phone              string `json:"phone"`
		Address            string `json:"address"`
		OrganizationName   string `json:"organization_name"`
		OrganizationType   string `json:"organization_type"`
		TaxID              string `json:"tax_id"`
		Website            string `json:"website"`
		ProjectTitle       string `json:"project_title" binding:"required"`
		ProjectCategory    string `json:"project_category"`
		ProjectDescription string `json:"project_description" binding:"required"`
		ProjectGoals       string `json:"project_goals"`
		BudgetBreakdown    string `json:"budget_breakdown"`
		AmountRequested    int    `json:"amount_requested" binding:"required,gt=0"`
	}

	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewApplicationService(nil, nil)
	application, err := svc.Create(&services.CreateApplicationInput{
		UserID:             currentActor(c),
		FullName:           utils.SanitizeInput(req.FullName),
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            utils.SanitizeInput(req.Address),
		OrganizationName:   utils.SanitizeInput(req.OrganizationName),
		OrganizationType:   req.OrganizationType,
		TaxID:              req.TaxID,
		Website:            req.Website,
		ProjectTitle:       utils.SanitizeInput(req.ProjectTitle),
		ProjectCategory:    req.ProjectCategory,
		ProjectDescription: utils.SanitizeInput(req.ProjectDescription),
		ProjectGoals:       utils.SanitizeInput(req.ProjectGoals),
		BudgetBreakdown:    utils.SanitizeInput(req.BudgetBreakdown),
		AmountRequested:    req.AmountRequested,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateApplication) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already have an application on file"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Application created successfully",
		"application": application,
	})
}

// UpdateApplication updates applicant-editable fields. Only allowed while the
// application is still in the draft stage.
func UpdateApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")

	type UpdateApplicationRequest struct {
		Phone              string `json:"phone"`
		Address            string `json:"address"`
		ProjectTitle       string `json:"project_title"`
		ProjectCategory    string `json:"project_category"`
		ProjectDescription string `json:"project_description"`
		ProjectGoals       string `json:"project_goals"`
		BudgetBreakdown    string `json:"budget_breakdown"`
		AmountRequested    int    `json:"amount_requested"`
	}

	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var application models.GrantApplication
	query := config.DB.Where("application_id = ? AND delete_at IS NULL", id)
	if !isStaff(c) {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	if application.CurrentStage != utils.StageDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Application can only be edited while in draft"})
		return
	}

	now := time.Now()
	if req.Phone != "" {
		application.Phone = req.Phone
	}
	if req.Address != "" {
		application.Address = utils.SanitizeInput(req.Address)
	}
	if req.ProjectTitle != "" {
		application.ProjectTitle = utils.SanitizeInput(req.ProjectTitle)
	}
	if req.ProjectCategory != "" {
		application.ProjectCategory = req.ProjectCategory
	}
	if req.ProjectDescription != "" {
		application.ProjectDescription = utils.SanitizeInput(req.ProjectDescription)
	}
	if req.ProjectGoals != "" {
		application.ProjectGoals = utils.SanitizeInput(req.ProjectGoals)
	}
	if req.BudgetBreakdown != "" {
		application.BudgetBreakdown = utils.SanitizeInput(req.BudgetBreakdown)
	}
	if req.AmountRequested > 0 {
		application.AmountRequested = req.AmountRequested
	}
	application.UpdateAt = &now
	application.LastActivity = &now

	if err := config.DB.Save(&application).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Application updated successfully",
		"application": application,
	})
}

// DeleteApplication soft deletes a draft application
func DeleteApplication(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")

	var application models.GrantApplication
	query := config.DB.Where("application_id = ? AND delete_at IS NULL", id)
	if !isStaff(c) {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		return
	}

	if application.CurrentStage != utils.StageDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only draft applications can be withdrawn"})
		return
	}

	now := time.Now()
	application.DeleteAt = &now
	application.UpdateAt = &now

	if err := config.DB.Save(&application).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete application"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn"})
}

// AdvanceApplicationStage moves an application to the next workflow stage
// (staff only).
func AdvanceApplicationStage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	svc := services.NewApplicationService(nil, nil)
	application, err := svc.AdvanceStage(id, currentActor(c))
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to advance stage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Stage updated",
		"application": application,
		"progress":    application.ProgressPercentage(),
	})
}

// GetMissingDocuments lists required document types the application has not
// uploaded yet.
func GetMissingDocuments(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	userID, _ := c.Get("userID")
	if !isStaff(c) {
		var count int64
		if err := config.DB.Model(&models.GrantApplication{}).
			Where("application_id = ? AND user_id = ? AND delete_at IS NULL", id, userID).
			Count(&count).Error; err != nil || count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
	}

	svc := services.NewApplicationService(nil, nil)
	missing, err := svc.MissingRequiredDocuments(id)
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"missing_documents":  missing,
		"documents_complete": len(missing) == 0,
	})
}

// UpdateApplicationStatus sets an explicit review outcome (staff only).
func UpdateApplicationStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	type StatusUpdateRequest struct {
		Status         string `json:"status" binding:"required"`
		ApprovedAmount *int   `json:"approved_amount"`
		Notes          string `json:"notes"`
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applyStatusChange(c, id, req.Status, &services.StatusUpdateOptions{
		ApprovedAmount: req.ApprovedAmount,
		Notes:          req.Notes,
	})
}

// ApproveApplication approves an application (staff only)
func ApproveApplication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	type ApprovalRequest struct {
		ApprovedAmount *int   `json:"approved_amount"`
		Notes          string `json:"notes"`
	}

	var req ApprovalRequest
	// body is optional; a bare approve uses the requested amount
	_ = c.ShouldBindJSON(&req)

	applyStatusChange(c, id, utils.StatusApproved, &services.StatusUpdateOptions{
		ApprovedAmount: req.ApprovedAmount,
		Notes:          req.Notes,
	})
}

// RejectApplication rejects an application (staff only)
func RejectApplication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	type RejectRequest struct {
		Notes string `json:"notes"`
	}

	var req RejectRequest
	_ = c.ShouldBindJSON(&req)

	applyStatusChange(c, id, utils.StatusRejected, &services.StatusUpdateOptions{Notes: req.Notes})
}

// HoldApplication places an application on hold (staff only)
func HoldApplication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	type HoldRequest struct {
		Reason string `json:"reason"`
	}

	var req HoldRequest
	_ = c.ShouldBindJSON(&req)

	applyStatusChange(c, id, utils.StatusOnHold, &services.StatusUpdateOptions{Notes: req.Reason})
}

func applyStatusChange(c *gin.Context, id int, status string, opts *services.StatusUpdateOptions) {
	svc := services.NewApplicationService(nil, nil)
	application, err := svc.UpdateStatus(id, status, currentActor(c), opts)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrApplicationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		case errors.Is(err, services.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Status updated",
		"application": application,
	})
}
