package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/utils"

	"gorm.io/gorm"
)

// SendMailFunc matches config.SendMail so delivery can be swapped in tests.
type SendMailFunc func(to []string, subject, html string) error

// Notifier turns an observed status change into exactly one audit entry and
// one best-effort applicant notification. The audit entry is written on the
// caller's transaction and must succeed; the notification never fails the
// triggering update.
type Notifier struct {
	db       *gorm.DB
	settings config.GrantSettings
	sendMail SendMailFunc
}

func NewNotifier(db *gorm.DB, settings config.GrantSettings, sendMail SendMailFunc) *Notifier {
	if db == nil {
		db = config.DB
	}
	if sendMail == nil {
		sendMail = config.SendMail
	}
	return &Notifier{db: db, settings: settings, sendMail: sendMail}
}

// RecordStatusChange appends the audit entry for a status change. It runs
// on tx so a failed audit write aborts the status update with it.
func (n *Notifier) RecordStatusChange(tx *gorm.DB, app *models.GrantApplication, oldStatus string, actorID *int) error {
	old := oldStatus
	current := app.Status
	entry := &models.AuditLog{
		UserID:      actorID,
		ActionType:  models.ActionStatusChanged,
		ObjectType:  "GrantApplication",
		ObjectID:    fmt.Sprintf("%d", app.ApplicationID),
		Description: fmt.Sprintf("Status changed from %s to %s", oldStatus, app.Status),
		OldStatus:   &old,
		NewStatus:   &current,
		CreateAt:    time.Now(),
	}
	return tx.Create(entry).Error
}

// DispatchStatusChange records the in-app notification row and sends the
// status email. Both are best effort: failures are logged for operational
// visibility and swallowed. Call after the status update has committed.
func (n *Notifier) DispatchStatusChange(app *models.GrantApplication, oldStatus string) {
	title, body, ok := n.statusMessage(app)
	if !ok {
		// pending has no dedicated notification
		return
	}

	if app.UserID != nil {
		appID := app.ApplicationID
		notif := &models.Notification{
			UserID:               *app.UserID,
			Title:                title,
			Message:              body,
			Type:                 notificationType(app.Status),
			RelatedApplicationID: &appID,
			CreateAt:             time.Now(),
		}
		if err := n.db.Create(notif).Error; err != nil {
			log.Printf("failed to record notification for application %d: %v", app.ApplicationID, err)
		}
	}

	if strings.TrimSpace(app.Email) == "" {
		return
	}

	recipient := app.Email
	html := buildStatusEmailHTML(title, app.FullName, body)
	go func() {
		if err := n.sendMail([]string{recipient}, title, html); err != nil {
			log.Printf("status notification email failed for application %d (%s -> %s): %v",
				app.ApplicationID, oldStatus, app.Status, err)
		}
	}()
}

// statusMessage selects the template for the application's current status.
// Four variants exist: approved, rejected, under_review and on_hold.
func (n *Notifier) statusMessage(app *models.GrantApplication) (title, body string, ok bool) {
	switch app.Status {
	case utils.StatusApproved:
		amount := app.AmountRequested
		if app.ApprovedAmount != nil {
			amount = *app.ApprovedAmount
		}
		title = "Grant application approved"
		body = fmt.Sprintf(
			"Congratulations! Your grant application %q has been approved for $%d. "+
				"Log in to your account to view your approval letter and fund disbursement instructions.",
			app.ProjectTitle, amount)
	case utils.StatusRejected:
		title = "Grant application decision"
		body = fmt.Sprintf(
			"After careful review by our grant committee, your application %q was not "+
				"selected for funding in this cycle. You are welcome to reapply in a future cycle.",
			app.ProjectTitle)
	case utils.StatusUnderReview:
		title = "Grant application under review"
		body = fmt.Sprintf(
			"Your application %q is now being evaluated by our review committee. "+
				"This process typically takes %d-%d weeks; you will be notified once a decision is made.",
			app.ProjectTitle, n.settings.ProcessingTimeWeeksMin, n.settings.ProcessingTimeWeeksMax)
	case utils.StatusOnHold:
		reason := strings.TrimSpace(app.ApprovalNotes)
		if reason == "" {
			reason = "Additional review or information required"
		}
		title = "Grant application on hold"
		body = fmt.Sprintf(
			"Your application %q has been placed on hold: %s. "+
				"This is not a rejection; we will contact you directly if any action is needed.",
			app.ProjectTitle, reason)
	default:
		return "", "", false
	}
	return title, body, true
}

func notificationType(status string) string {
	switch status {
	case utils.StatusApproved:
		return "success"
	case utils.StatusRejected:
		return "error"
	case utils.StatusOnHold:
		return "warning"
	default:
		return "info"
	}
}

func buildStatusEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Applicant"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
