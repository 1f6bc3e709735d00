package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetDocumentTypes returns the configured document types
func GetDocumentTypes(c *gin.Context) {
	var types []models.DocumentType
	if err := config.DB.Where("delete_at IS NULL").
		Order("display_order ASC").Find(&types).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch document types"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document_types": types})
}

// UploadDocument attaches a file to an application
func UploadDocument(c *gin.Context) {
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

	documentTypeID, err := strconv.Atoi(c.PostForm("document_type_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_type_id is required"})
		return
	}

	var docType models.DocumentType
	if err := config.DB.Where("document_type_id = ? AND delete_at IS NULL", documentTypeID).
		First(&docType).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if docType.AllowedExtensions != "" && !docType.AllowsExtension(ext) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("File type .%s is not allowed for %s", ext, docType.Name),
		})
		return
	}

	if docType.MaxFileSize > 0 && file.Size > docType.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("File exceeds the maximum size of %d bytes", docType.MaxFileSize),
		})
		return
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}

	appFolder := filepath.Join(uploadPath, fmt.Sprintf("application_%d", applicationID))
	if err := os.MkdirAll(appFolder, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare storage"})
		return
	}

	// stored name is opaque; the original filename lives in the record
	storedName := uuid.New().String()
	if ext != "" {
		storedName = storedName + "." + ext
	}
	fullPath := filepath.Join(appFolder, storedName)

	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	document := models.GrantDocument{
		ApplicationID:    applicationID,
		DocumentTypeID:   documentTypeID,
		OriginalFilename: file.Filename,
		StoredPath:       fullPath,
		FileSize:         file.Size,
		Description:      c.PostForm("description"),
		UploadedBy:       currentActor(c),
		UploadedAt:       time.Now(),
	}
	if err := config.DB.Create(&document).Error; err != nil {
		os.Remove(fullPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record document"})
		return
	}

	recordAuditEntry(c, models.ActionDocumentUploaded, applicationID,
		fmt.Sprintf("Uploaded %s (%s)", docType.Name, file.Filename))

	refreshDocumentsComplete(&application)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Document uploaded successfully",
		"document": document,
	})
}

// VerifyDocument marks a document verified (staff only)
func VerifyDocument(c *gin.Context) {
	documentID := c.Param("documentId")

	type VerifyRequest struct {
		Verified bool   `json:"verified"`
		Notes    string `json:"notes"`
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var document models.GrantDocument
	if err := config.DB.Preload("DocumentType").
		Where("document_id = ?", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	document.Verified = req.Verified
	document.VerificationNotes = req.Notes
	if err := config.DB.Save(&document).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update document"})
		return
	}

	recordAuditEntry(c, models.ActionDocumentVerified, document.ApplicationID,
		fmt.Sprintf("Document %s marked verified=%t", document.OriginalFilename, req.Verified))

	refreshDocumentsVerified(document.ApplicationID)

	c.JSON(http.StatusOK, gin.H{
		"message":  "Document verification updated",
		"document": document,
	})
}

// DownloadDocument streams the stored file
func DownloadDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	userID, _ := c.Get("userID")

	var document models.GrantDocument
	if err := config.DB.Where("document_id = ?", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	if !isStaff(c) {
		var count int64
		if err := config.DB.Model(&models.GrantApplication{}).
			Where("application_id = ? AND user_id = ?", document.ApplicationID, userID).
			Count(&count).Error; err != nil || count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
	}

	if _, err := os.Stat(document.StoredPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File is no longer available"})
		return
	}

	c.FileAttachment(document.StoredPath, document.OriginalFilename)
}

// DeleteDocument removes an uploaded file
func DeleteDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	userID, _ := c.Get("userID")

	var document models.GrantDocument
	if err := config.DB.Where("document_id = ?", documentID).
		First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	var application models.GrantApplication
	query := config.DB.Where("application_id = ? AND delete_at IS NULL", document.ApplicationID)
	if !isStaff(c) {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.First(&application).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	// verified documents are part of the reviewed record
	if document.Verified && !isStaff(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verified documents cannot be removed"})
		return
	}

	if err := config.DB.Delete(&document).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	os.Remove(document.StoredPath)

	refreshDocumentsComplete(&application)

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// refreshDocumentsComplete recomputes the documents_complete flag after an
// upload or delete.
func refreshDocumentsComplete(application *models.GrantApplication) {
	svc := services.NewApplicationService(nil, nil)
	missing, err := svc.MissingRequiredDocuments(application.ApplicationID)
	if err != nil {
		return
	}

	complete := len(missing) == 0
	if application.DocumentsComplete == complete {
		return
	}

	now := time.Now()
	config.DB.Model(&models.GrantApplication{}).
		Where("application_id = ?", application.ApplicationID).
		Updates(map[string]interface{}{
			"documents_complete": complete,
			"update_at":          now,
			"last_activity":      now,
		})
}

// refreshDocumentsVerified recomputes documents_verified: true once every
// uploaded document has been verified and the set is complete.
func refreshDocumentsVerified(applicationID int) {
	var unverified int64
	if err := config.DB.Model(&models.GrantDocument{}).
		Where("application_id = ? AND verified = ?", applicationID, false).
		Count(&unverified).Error; err != nil {
		return
	}

	var application models.GrantApplication
	if err := config.DB.Where("application_id = ?", applicationID).
		First(&application).Error; err != nil {
		return
	}

	verified := unverified == 0 && application.DocumentsComplete
	updates := map[string]interface{}{
		"documents_verified": verified,
		"update_at":          time.Now(),
	}
	if verified && application.VerificationDate == nil {
		updates["verification_date"] = time.Now()
	}

	config.DB.Model(&models.GrantApplication{}).
		Where("application_id = ?", applicationID).
		Updates(updates)
}

func recordAuditEntry(c *gin.Context, action string, applicationID int, description string) {
	ip := c.ClientIP()
	entry := models.AuditLog{
		UserID:      currentActor(c),
		ActionType:  action,
		ObjectType:  "GrantApplication",
		ObjectID:    fmt.Sprintf("%d", applicationID),
		Description: description,
		IPAddress:   &ip,
		CreateAt:    time.Now(),
	}
	config.DB.Create(&entry)
}
