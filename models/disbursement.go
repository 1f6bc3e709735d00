package models

import "time"

// Disbursement methods.
const (
	DisbursementBankTransfer  = "bank_transfer"
	DisbursementCheck         = "check"
	DisbursementDigitalWallet = "digital_wallet"
	DisbursementOther         = "other"
)

// FundDisbursement records a payout against an approved application.
type FundDisbursement struct {
	DisbursementID  int        `gorm:"primaryKey;column:disbursement_id" json:"disbursement_id"`
	ApplicationID   int        `gorm:"column:application_id" json:"application_id"`
	Amount          float64    `gorm:"column:amount" json:"amount"`
	Method          string     `gorm:"column:method" json:"method"`
	ReferenceNumber string     `gorm:"column:reference_number;unique" json:"reference_number"`
	DisbursedAt     time.Time  `gorm:"column:disbursed_at" json:"disbursed_at"`
	Notes           string     `gorm:"column:notes" json:"notes"`
	ProcessedBy     *int       `gorm:"column:processed_by" json:"processed_by,omitempty"`
	CreateAt        *time.Time `gorm:"column:create_at" json:"create_at"`

	// Relations
	Application GrantApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
}

func (FundDisbursement) TableName() string { return "fund_disbursements" }
