package models

import "time"

// Message types.
const (
	MessageGeneral       = "general"
	MessageClarification = "clarification"
	MessageDocument      = "document"
	MessageInterview     = "interview"
	MessageUpdate        = "update"
)

// Message is a note exchanged between an applicant and the review staff on
// a specific application. Internal messages are staff-only.
type Message struct {
	MessageID     int       `gorm:"primaryKey;column:message_id" json:"message_id"`
	ApplicationID int       `gorm:"column:application_id" json:"application_id"`
	SenderID      int       `gorm:"column:sender_id" json:"sender_id"`
	MessageType   string    `gorm:"column:message_type" json:"message_type"`
	Subject       string    `gorm:"column:subject" json:"subject"`
	Content       string    `gorm:"column:content" json:"content"`
	IsRead        bool      `gorm:"column:is_read" json:"is_read"`
	IsInternal    bool      `gorm:"column:is_internal" json:"is_internal"`
	CreateAt      time.Time `gorm:"column:create_at" json:"created_at"`

	// Relations
	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (Message) TableName() string { return "messages" }
