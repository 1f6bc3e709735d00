package models

import "time"

// ProgressReport is submitted by a grant recipient during the funded
// project, e.g. "Month 1" or "Quarter 2".
type ProgressReport struct {
	ReportID            int        `gorm:"primaryKey;column:report_id" json:"report_id"`
	ApplicationID       int        `gorm:"column:application_id" json:"application_id"`
	ReportPeriod        string     `gorm:"column:report_period" json:"report_period"`
	ActivitiesCompleted string     `gorm:"column:activities_completed" json:"activities_completed"`
	ChallengesFaced     string     `gorm:"column:challenges_faced" json:"challenges_faced"`
	FundsUsed           float64    `gorm:"column:funds_used" json:"funds_used"`
	RemainingFunds      float64    `gorm:"column:remaining_funds" json:"remaining_funds"`
	NextSteps           string     `gorm:"column:next_steps" json:"next_steps"`
	SubmittedAt         time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	ReviewedAt          *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ReviewerNotes       string     `gorm:"column:reviewer_notes" json:"reviewer_notes"`
	Approved            bool       `gorm:"column:approved" json:"approved"`
}

func (ProgressReport) TableName() string { return "progress_reports" }
