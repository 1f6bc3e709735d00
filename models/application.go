package models

import (
	"time"

	"grant-portal-api/utils"
)

// GrantApplication represents the grant_applications table. At most one
// live (non-deleted) application exists per applicant identity; user_id is
// nullable because some intake flows accept anonymous submissions.
type GrantApplication struct {
	ApplicationID int  `gorm:"primaryKey;column:application_id" json:"application_id"`
	UserID        *int `gorm:"column:user_id;uniqueIndex:uniq_applicant" json:"user_id,omitempty"`

	// Contact information
	FullName string `gorm:"column:full_name" json:"full_name"`
	Email    string `gorm:"column:email" json:"email"`
	Phone    string `gorm:"column:phone" json:"phone"`
	Address  string `gorm:"column:address" json:"address"`

	// Organization details (optional, for organizational applications)
	OrganizationName string `gorm:"column:organization_name" json:"organization_name"`
	OrganizationType string `gorm:"column:organization_type" json:"organization_type"`
	TaxID            string `gorm:"column:tax_id" json:"tax_id"`
	Website          string `gorm:"column:website" json:"website"`

	// Project information
	ProjectTitle       string `gorm:"column:project_title" json:"project_title"`
	ProjectCategory    string `gorm:"column:project_category" json:"project_category"`
	ProjectDescription string `gorm:"column:project_description" json:"project_description"`
	ProjectGoals       string `gorm:"column:project_goals" json:"project_goals"`
	BudgetBreakdown    string `gorm:"column:budget_breakdown" json:"budget_breakdown"`

	// Financials. ApprovedAmount is set only when the application is
	// approved and may be above, below or equal to the requested amount;
	// staff have full control over the approved figure.
	AmountRequested int  `gorm:"column:amount_requested" json:"amount_requested"`
	ApprovedAmount  *int `gorm:"column:approved_amount" json:"approved_amount,omitempty"`

	// Workflow state. Status is the review outcome, CurrentStage the
	// position in the application workflow; they evolve independently.
	Status        string     `gorm:"column:status" json:"status"`
	CurrentStage  string     `gorm:"column:current_stage" json:"current_stage"`
	ApprovalDate  *time.Time `gorm:"column:approval_date" json:"approval_date,omitempty"`
	ApprovalNotes string     `gorm:"column:approval_notes" json:"approval_notes"`

	// Document tracking
	DocumentsComplete bool       `gorm:"column:documents_complete" json:"documents_complete"`
	DocumentsVerified bool       `gorm:"column:documents_verified" json:"documents_verified"`
	VerificationDate  *time.Time `gorm:"column:verification_date" json:"verification_date,omitempty"`

	// Interview tracking
	InterviewScheduled bool       `gorm:"column:interview_scheduled" json:"interview_scheduled"`
	InterviewDate      *time.Time `gorm:"column:interview_date" json:"interview_date,omitempty"`
	InterviewNotes     string     `gorm:"column:interview_notes" json:"interview_notes"`
	InterviewCompleted bool       `gorm:"column:interview_completed" json:"interview_completed"`

	LastActivity *time.Time `gorm:"column:last_activity" json:"last_activity,omitempty"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User      *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Documents []GrantDocument `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
}

func (GrantApplication) TableName() string {
	return "grant_applications"
}

// ProgressPercentage derives how far along the application is from its
// current stage.
func (a *GrantApplication) ProgressPercentage() int {
	return utils.StageProgress(a.CurrentStage)
}
