package models

import (
	"strings"
	"time"
)

// DocumentType represents the kinds of documents an application can carry.
// Types marked required count towards documents_complete.
type DocumentType struct {
	DocumentTypeID    int        `gorm:"primaryKey;column:document_type_id" json:"document_type_id"`
	Name              string     `gorm:"column:name;unique" json:"name"`
	Description       string     `gorm:"column:description" json:"description"`
	Required          bool       `gorm:"column:required" json:"required"`
	MaxFileSize       int64      `gorm:"column:max_file_size" json:"max_file_size"`
	AllowedExtensions string     `gorm:"column:allowed_extensions" json:"allowed_extensions"`
	DisplayOrder      int        `gorm:"column:display_order" json:"display_order"`
	CreateAt          *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt          *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt          *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (DocumentType) TableName() string {
	return "document_types"
}

// AllowsExtension reports whether the (dot-less, lowercase) extension is in
// the allowed list for this document type.
func (dt *DocumentType) AllowsExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range strings.Split(dt.AllowedExtensions, ",") {
		if strings.TrimSpace(allowed) == ext {
			return true
		}
	}
	return false
}

// GrantDocument is an uploaded file attached to an application.
type GrantDocument struct {
	DocumentID        int       `gorm:"primaryKey;column:document_id" json:"document_id"`
	ApplicationID     int       `gorm:"column:application_id" json:"application_id"`
	DocumentTypeID    int       `gorm:"column:document_type_id" json:"document_type_id"`
	OriginalFilename  string    `gorm:"column:original_filename" json:"original_filename"`
	StoredPath        string    `gorm:"column:stored_path" json:"stored_path"`
	FileSize          int64     `gorm:"column:file_size" json:"file_size"`
	Description       string    `gorm:"column:description" json:"description"`
	Verified          bool      `gorm:"column:verified" json:"verified"`
	VerificationNotes string    `gorm:"column:verification_notes" json:"verification_notes"`
	UploadedBy        *int      `gorm:"column:uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt        time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`

	// Relations
	DocumentType DocumentType `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
}

func (GrantDocument) TableName() string {
	return "grant_documents"
}
