package services

import (
	"errors"
	"fmt"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("applicant already has an application")
	ErrInvalidStatus        = errors.New("invalid application status")
	ErrInvalidStage         = errors.New("invalid application stage")
)

// ApplicationService is the application record store: it persists
// GrantApplication state and enforces the lifecycle invariants on every
// write. Status writes are serialized per record with a row lock so a
// concurrent sweep and a manual decision cannot silently overwrite each
// other.
type ApplicationService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewApplicationService(db *gorm.DB, notifier *Notifier) *ApplicationService {
	if db == nil {
		db = config.DB
	}
	if notifier == nil {
		notifier = NewNotifier(db, config.LoadGrantSettings(), nil)
	}
	return &ApplicationService{db: db, notifier: notifier}
}

type CreateApplicationInput struct {
	UserID             *int
	FullName           string
	Email              string
	Phone              string
	Address            string
	OrganizationName   string
	OrganizationType   string
	TaxID              string
	Website            string
	ProjectTitle       string
	ProjectCategory    string
	ProjectDescription string
	ProjectGoals       string
	BudgetBreakdown    string
	AmountRequested    int
}

// Create opens a new application in pending/draft. An applicant identity
// may own at most one live application; a second create attempt fails with
// ErrDuplicateApplication and leaves the first untouched.
func (s *ApplicationService) Create(input *CreateApplicationInput) (*models.GrantApplication, error) {
	if input == nil {
		return nil, errors.New("input is nil")
	}
	if input.AmountRequested <= 0 {
		return nil, errors.New("amount_requested must be greater than zero")
	}

	now := time.Now()
	app := &models.GrantApplication{
		UserID:             input.UserID,
		FullName:           input.FullName,
		Email:              input.Email,
		Phone:              input.Phone,
		Address:            input.Address,
		OrganizationName:   input.OrganizationName,
		OrganizationType:   input.OrganizationType,
		TaxID:              input.TaxID,
		Website:            input.Website,
		ProjectTitle:       input.ProjectTitle,
		ProjectCategory:    input.ProjectCategory,
		ProjectDescription: input.ProjectDescription,
		ProjectGoals:       input.ProjectGoals,
		BudgetBreakdown:    input.BudgetBreakdown,
		AmountRequested:    input.AmountRequested,
		Status:             utils.StatusPending,
		CurrentStage:       utils.StageDraft,
		LastActivity:       &now,
		CreateAt:           &now,
		UpdateAt:           &now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.UserID != nil {
			var count int64
			if err := tx.Model(&models.GrantApplication{}).
				Where("user_id = ? AND delete_at IS NULL", *input.UserID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicateApplication
			}
		}

		if err := tx.Create(app).Error; err != nil {
			return err
		}

		entry := &models.AuditLog{
			UserID:      input.UserID,
			ActionType:  models.ActionApplicationCreated,
			ObjectType:  "GrantApplication",
			ObjectID:    fmt.Sprintf("%d", app.ApplicationID),
			Description: fmt.Sprintf("Application created requesting $%d", input.AmountRequested),
			CreateAt:    now,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// StatusUpdateOptions carries the optional extras of a status change.
type StatusUpdateOptions struct {
	// ApprovedAmount overrides the default when approving. It may exceed,
	// equal or fall short of the requested amount; no ceiling is applied.
	ApprovedAmount *int
	// Notes replaces approval_notes when non-empty.
	Notes string
}

// UpdateStatus moves an application to a new review outcome. An unchanged
// status is a no-op: no audit entry, no notification. On a real change the
// approval side effects and the status-to-stage mapping are applied, the
// audit entry is written in the same transaction, and the applicant
// notification is dispatched best-effort after commit.
func (s *ApplicationService) UpdateStatus(applicationID int, newStatus string, actorID *int, opts *StatusUpdateOptions) (*models.GrantApplication, error) {
	if !utils.IsValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	var app models.GrantApplication
	var oldStatus string
	var changed bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("application_id = ? AND delete_at IS NULL", applicationID).
			First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}

		oldStatus = app.Status
		if oldStatus == newStatus {
			return nil
		}
		changed = true

		now := time.Now()
		app.Status = newStatus

		if newStatus == utils.StatusApproved {
			// approval_date is set exactly once, on the first transition in
			if app.ApprovalDate == nil {
				app.ApprovalDate = &now
			}
			if opts != nil && opts.ApprovedAmount != nil {
				app.ApprovedAmount = opts.ApprovedAmount
			} else if app.ApprovedAmount == nil {
				amount := app.AmountRequested
				app.ApprovedAmount = &amount
			}
		}
		if opts != nil && opts.Notes != "" {
			app.ApprovalNotes = opts.Notes
		}
		if stage, ok := utils.StageForStatus(newStatus); ok {
			app.CurrentStage = stage
		}
		app.UpdateAt = &now
		app.LastActivity = &now

		if err := tx.Save(&app).Error; err != nil {
			return err
		}
		return s.notifier.RecordStatusChange(tx, &app, oldStatus, actorID)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.DispatchStatusChange(&app, oldStatus)
	}
	return &app, nil
}

// AdvanceStage moves the application to the next workflow stage. Already
// completed (or otherwise unmapped) stages return the unchanged record
// without error.
func (s *ApplicationService) AdvanceStage(applicationID int, actorID *int) (*models.GrantApplication, error) {
	var app models.GrantApplication

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("application_id = ? AND delete_at IS NULL", applicationID).
			First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}

		next, ok := utils.NextStage(app.CurrentStage)
		if !ok {
			return nil
		}

		now := time.Now()
		from := app.CurrentStage
		app.CurrentStage = next
		app.UpdateAt = &now
		app.LastActivity = &now

		if err := tx.Save(&app).Error; err != nil {
			return err
		}

		entry := &models.AuditLog{
			UserID:      actorID,
			ActionType:  models.ActionStageAdvanced,
			ObjectType:  "GrantApplication",
			ObjectID:    fmt.Sprintf("%d", app.ApplicationID),
			Description: fmt.Sprintf("Stage advanced from %s to %s", from, next),
			CreateAt:    now,
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// MissingRequiredDocuments returns the required document types for which
// the application has no upload yet. Purely a read; the result is empty
// exactly when documents_complete should be true.
func (s *ApplicationService) MissingRequiredDocuments(applicationID int) ([]models.DocumentType, error) {
	var app models.GrantApplication
	if err := s.db.Where("application_id = ? AND delete_at IS NULL", applicationID).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	var uploaded []int
	if err := s.db.Model(&models.GrantDocument{}).
		Distinct("document_type_id").
		Where("application_id = ?", applicationID).
		Pluck("document_type_id", &uploaded).Error; err != nil {
		return nil, err
	}

	query := s.db.Where("required = ? AND delete_at IS NULL", true)
	if len(uploaded) > 0 {
		query = query.Where("document_type_id NOT IN ?", uploaded)
	}

	missing := make([]models.DocumentType, 0)
	if err := query.Order("display_order ASC").Find(&missing).Error; err != nil {
		return nil, err
	}
	return missing, nil
}
