package models

import "time"

// Audit action types.
const (
	ActionApplicationCreated = "application_created"
	ActionStatusChanged      = "status_changed"
	ActionStageAdvanced      = "stage_advanced"
	ActionDocumentUploaded   = "document_uploaded"
	ActionDocumentVerified   = "document_verified"
	ActionFundsDisbursed     = "funds_disbursed"
)

// AuditLog is the append-only audit trail. A row is inserted for every
// observed change and is never updated or deleted afterwards. UserID is nil
// for system-triggered changes such as the auto-approval sweep.
type AuditLog struct {
	AuditLogID  int       `gorm:"primaryKey;column:audit_log_id" json:"audit_log_id"`
	UserID      *int      `gorm:"column:user_id" json:"user_id,omitempty"`
	ActionType  string    `gorm:"column:action_type" json:"action_type"`
	ObjectType  string    `gorm:"column:object_type" json:"object_type"`
	ObjectID    string    `gorm:"column:object_id" json:"object_id"`
	Description string    `gorm:"column:description" json:"description"`
	OldStatus   *string   `gorm:"column:old_status" json:"old_status,omitempty"`
	NewStatus   *string   `gorm:"column:new_status" json:"new_status,omitempty"`
	IPAddress   *string   `gorm:"column:ip_address" json:"ip_address,omitempty"`
	CreateAt    time.Time `gorm:"column:create_at" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AuditLog) TableName() string { return "audit_logs" }
