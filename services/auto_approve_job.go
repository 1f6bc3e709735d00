package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/models"
	"grant-portal-api/utils"

	"gorm.io/gorm"
)

var ErrAutoApproveAlreadyRunning = errors.New("auto-approve sweep already running")

// DefaultAutoApproveThreshold is how old an application must be before the
// sweep approves it.
const DefaultAutoApproveThreshold = 30 * time.Minute

type AutoApproveSummary struct {
	Scanned  int `json:"scanned"`
	Approved int `json:"approved"`
	Failed   int `json:"failed"`
}

type AutoApproveInput struct {
	// Threshold is the minimum application age; zero means the default.
	Threshold time.Duration
	// LockName is the MySQL advisory lock guarding concurrent sweeps
	// (empty disables locking).
	LockName string
	DryRun   bool
}

// AutoApproveJob periodically approves non-terminal applications older than
// a fixed age threshold. Each qualifying record is visited once per sweep
// through the regular status-update path, so row locking, audit entries and
// applicant notifications all behave exactly as for a manual approval.
type AutoApproveJob struct {
	db       *gorm.DB
	apps     *ApplicationService
	sendMail SendMailFunc
}

func NewAutoApproveJob(db *gorm.DB, apps *ApplicationService, sendMail SendMailFunc) *AutoApproveJob {
	if db == nil {
		db = config.DB
	}
	if apps == nil {
		apps = NewApplicationService(db, nil)
	}
	if sendMail == nil {
		sendMail = config.SendMail
	}
	return &AutoApproveJob{db: db, apps: apps, sendMail: sendMail}
}

func (j *AutoApproveJob) Run(ctx context.Context, input *AutoApproveInput) (*AutoApproveSummary, error) {
	if input == nil {
		input = &AutoApproveInput{}
	}
	threshold := input.Threshold
	if threshold <= 0 {
		threshold = DefaultAutoApproveThreshold
	}

	release, err := j.acquireLock(ctx, input.LockName)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if relErr := release(); relErr != nil {
				log.Printf("failed to release auto-approve lock: %v", relErr)
			}
		}()
	}

	summary := &AutoApproveSummary{}
	cutoff := time.Now().Add(-threshold)

	var ids []int
	if err := j.db.WithContext(ctx).Model(&models.GrantApplication{}).
		Where("status NOT IN ? AND delete_at IS NULL AND create_at <= ?",
			[]string{utils.StatusApproved, utils.StatusRejected}, cutoff).
		Order("application_id ASC").
		Pluck("application_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Scanned++
		if input.DryRun {
			continue
		}
		// system-triggered: no acting user on the audit entry
		if _, err := j.apps.UpdateStatus(id, utils.StatusApproved, nil, nil); err != nil {
			summary.Failed++
			log.Printf("auto-approve failed for application %d: %v", id, err)
			continue
		}
		summary.Approved++
	}

	if !input.DryRun && summary.Approved > 0 {
		j.notifyAdmins(summary, threshold)
	}

	return summary, nil
}

// notifyAdmins sends the once-per-sweep administrative summary. Best
// effort, same as applicant notifications.
func (j *AutoApproveJob) notifyAdmins(summary *AutoApproveSummary, threshold time.Duration) {
	adminEmail := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	if adminEmail == "" {
		return
	}

	subject := "Grant auto-approval sweep summary"
	body := fmt.Sprintf(
		"The auto-approval sweep approved %d of %d applications older than %s (%d failed).",
		summary.Approved, summary.Scanned, threshold, summary.Failed)
	html := buildStatusEmailHTML(subject, "Administrator", body)

	if err := j.sendMail([]string{adminEmail}, subject, html); err != nil {
		log.Printf("auto-approve admin summary email failed: %v", err)
	}
}

func (j *AutoApproveJob) acquireLock(ctx context.Context, lockName string) (func() error, error) {
	if strings.TrimSpace(lockName) == "" {
		return nil, nil
	}

	var ok int
	if err := j.db.WithContext(ctx).Raw("SELECT GET_LOCK(?, 0)", lockName).Scan(&ok).Error; err != nil {
		return nil, err
	}
	if ok != 1 {
		return nil, ErrAutoApproveAlreadyRunning
	}

	return func() error {
		var released int
		if err := j.db.WithContext(ctx).Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&released).Error; err != nil {
			return err
		}
		if released != 1 {
			return fmt.Errorf("lock %s was not held", lockName)
		}
		return nil
	}, nil
}
