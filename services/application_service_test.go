package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/utils"
)

type sentMail struct {
	to      []string
	subject string
}

func newTestService(t *testing.T, steps []*queryStep) (*ApplicationService, *scriptedDB, chan sentMail, func()) {
	t.Helper()
	db, state, cleanup := newScriptedGormDB(t, steps)

	mails := make(chan sentMail, 8)
	sender := func(to []string, subject, html string) error {
		mails <- sentMail{to: to, subject: subject}
		return nil
	}

	settings := config.GrantSettings{
		ApprovalDeadlineHours:  24,
		ProcessingTimeWeeksMin: 2,
		ProcessingTimeWeeksMax: 4,
	}
	notifier := NewNotifier(db, settings, sender)
	return NewApplicationService(db, notifier), state, mails, cleanup
}

func waitForMail(t *testing.T, mails chan sentMail) sentMail {
	t.Helper()
	select {
	case m := <-mails:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification email, got none")
		return sentMail{}
	}
}

func applicationRow(id, userID int, status, stage string) ([]string, []driver.Value) {
	columns := []string{
		"application_id", "user_id", "full_name", "email",
		"project_title", "amount_requested", "status", "current_stage",
	}
	var uid driver.Value
	if userID != 0 {
		uid = int64(userID)
	}
	row := []driver.Value{
		int64(id), uid, "Ada Lovelace", "ada@example.org",
		"Community Kitchen", int64(25000), status, stage,
	}
	return columns, row
}

func TestCreateRejectsDuplicateApplicant(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `grant_applications`"),
			args:    []driver.Value{int64(7)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}

	svc, state, mails, cleanup := newTestService(t, steps)
	defer cleanup()

	userID := 7
	_, err := svc.Create(&CreateApplicationInput{
		UserID:          &userID,
		FullName:        "Ada Lovelace",
		Email:           "ada@example.org",
		AmountRequested: 25000,
	})
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}

	if len(mails) != 0 {
		t.Fatal("duplicate create must not send mail")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateInitializesPendingDraftAndAudits(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `grant_applications`"),
			args:    []driver.Value{int64(7)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `grant_applications`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 42, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	svc, state, _, cleanup := newTestService(t, steps)
	defer cleanup()

	userID := 7
	app, err := svc.Create(&CreateApplicationInput{
		UserID:          &userID,
		FullName:        "Ada Lovelace",
		Email:           "ada@example.org",
		AmountRequested: 25000,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if app.ApplicationID != 42 {
		t.Fatalf("expected id 42, got %d", app.ApplicationID)
	}
	if app.Status != utils.StatusPending {
		t.Fatalf("expected pending, got %s", app.Status)
	}
	if app.CurrentStage != utils.StageDraft {
		t.Fatalf("expected draft, got %s", app.CurrentStage)
	}
	if app.CreateAt == nil || app.LastActivity == nil {
		t.Fatal("timestamps not initialized")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	svc, state, _, cleanup := newTestService(t, nil)
	defer cleanup()

	if _, err := svc.Create(&CreateApplicationInput{AmountRequested: 0}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, state, _, cleanup := newTestService(t, nil)
	defer cleanup()

	_, err := svc.UpdateStatus(1, "archived", nil, nil)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	columns, _ := applicationRow(1, 0, "", "")
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{},
		},
	}

	svc, state, _, cleanup := newTestService(t, steps)
	defer cleanup()

	_, err := svc.UpdateStatus(1, utils.StatusApproved, nil, nil)
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateStatusApprovalDefaultsAmountAndNotifies(t *testing.T) {
	columns, row := applicationRow(1, 7, utils.StatusPending, utils.StageDraft)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{row},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `grant_applications`"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `notifications`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	svc, state, mails, cleanup := newTestService(t, steps)
	defer cleanup()

	actorID := 9
	app, err := svc.UpdateStatus(1, utils.StatusApproved, &actorID, nil)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if app.Status != utils.StatusApproved {
		t.Fatalf("expected approved, got %s", app.Status)
	}
	if app.ApprovedAmount == nil || *app.ApprovedAmount != 25000 {
		t.Fatalf("expected approved_amount to default to 25000, got %v", app.ApprovedAmount)
	}
	if app.ApprovalDate == nil {
		t.Fatal("expected approval_date to be set")
	}
	if app.CurrentStage != utils.StageCompleted {
		t.Fatalf("expected stage completed, got %s", app.CurrentStage)
	}

	mail := waitForMail(t, mails)
	if mail.subject != "Grant application approved" {
		t.Fatalf("unexpected subject %q", mail.subject)
	}
	if len(mail.to) != 1 || mail.to[0] != "ada@example.org" {
		t.Fatalf("unexpected recipients %v", mail.to)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateStatusExplicitAmountWins(t *testing.T) {
	columns, row := applicationRow(1, 0, utils.StatusPending, utils.StageReview)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{row},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `grant_applications`"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	svc, state, mails, cleanup := newTestService(t, steps)
	defer cleanup()

	// an approved amount above the request is allowed: staff have full
	// control over the approved figure
	amount := 40000
	app, err := svc.UpdateStatus(1, utils.StatusApproved, nil, &StatusUpdateOptions{ApprovedAmount: &amount})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if app.ApprovedAmount == nil || *app.ApprovedAmount != 40000 {
		t.Fatalf("expected approved_amount 40000, got %v", app.ApprovedAmount)
	}

	waitForMail(t, mails)
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdateStatusUnchangedIsNoOp(t *testing.T) {
	columns, row := applicationRow(1, 7, utils.StatusApproved, utils.StageCompleted)
	columns = append(columns, "approved_amount", "approval_date")
	approvedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	row = append(row, int64(25000), approvedAt)

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{row},
		},
	}

	svc, state, mails, cleanup := newTestService(t, steps)
	defer cleanup()

	app, err := svc.UpdateStatus(1, utils.StatusApproved, nil, nil)
	if err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}

	// approval_date must not be overwritten by the re-save
	if app.ApprovalDate == nil || !app.ApprovalDate.Equal(approvedAt) {
		t.Fatalf("approval_date changed: %v", app.ApprovalDate)
	}
	if app.ApprovedAmount == nil || *app.ApprovedAmount != 25000 {
		t.Fatalf("approved_amount changed: %v", app.ApprovedAmount)
	}

	// no second audit entry, no second notification: the script holds no
	// further steps, so any write here fails the test
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
	if len(mails) != 0 {
		t.Fatal("no-op update must not send mail")
	}
}

func TestUpdateStatusDistinctTransitionsNotifyTwice(t *testing.T) {
	transitionSteps := func(status, stage string) []*queryStep {
		columns, row := applicationRow(1, 0, status, stage)
		return []*queryStep{
			{
				kind:    kindQuery,
				pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
				anyArgs: true,
				columns: columns,
				rows:    [][]driver.Value{row},
			},
			{
				kind:    kindExec,
				pattern: regexp.MustCompile("UPDATE `grant_applications`"),
				anyArgs: true,
				result:  scriptedResult{rowsAffected: 1},
			},
			{
				kind:    kindExec,
				pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
				anyArgs: true,
				result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
			},
		}
	}

	var steps []*queryStep
	steps = append(steps, transitionSteps(utils.StatusPending, utils.StageDraft)...)   // -> under_review
	steps = append(steps, transitionSteps(utils.StatusUnderReview, utils.StageReview)...) // -> pending
	steps = append(steps, transitionSteps(utils.StatusPending, utils.StageReview)...)  // -> under_review again

	svc, state, mails, cleanup := newTestService(t, steps)
	defer cleanup()

	if _, err := svc.UpdateStatus(1, utils.StatusUnderReview, nil, nil); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	first := waitForMail(t, mails)

	// back to pending: no dedicated template, nothing sent
	if _, err := svc.UpdateStatus(1, utils.StatusPending, nil, nil); err != nil {
		t.Fatalf("second transition failed: %v", err)
	}

	if _, err := svc.UpdateStatus(1, utils.StatusUnderReview, nil, nil); err != nil {
		t.Fatalf("third transition failed: %v", err)
	}
	second := waitForMail(t, mails)

	if first.subject != "Grant application under review" || second.subject != first.subject {
		t.Fatalf("unexpected subjects %q / %q", first.subject, second.subject)
	}
	if len(mails) != 0 {
		t.Fatalf("expected exactly two notifications")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAdvanceStageMovesForward(t *testing.T) {
	columns, row := applicationRow(1, 0, utils.StatusPending, utils.StageDraft)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{row},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `grant_applications`"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `audit_logs`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	svc, state, _, cleanup := newTestService(t, steps)
	defer cleanup()

	app, err := svc.AdvanceStage(1, nil)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if app.CurrentStage != utils.StageEligibility {
		t.Fatalf("expected eligibility, got %s", app.CurrentStage)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAdvanceStageNoOpAtCompleted(t *testing.T) {
	columns, row := applicationRow(1, 0, utils.StatusApproved, utils.StageCompleted)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{row},
		},
	}

	svc, state, _, cleanup := newTestService(t, steps)
	defer cleanup()

	app, err := svc.AdvanceStage(1, nil)
	if err != nil {
		t.Fatalf("expected no-op, got error %v", err)
	}
	if app.CurrentStage != utils.StageCompleted {
		t.Fatalf("stage changed on no-op: %s", app.CurrentStage)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestMissingRequiredDocuments(t *testing.T) {
	columns, row := applicationRow(1, 7, utils.StatusPending, utils.StageDocuments)
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`"),
			anyArgs: true,
			columns: columns,
			rows:    [][]driver.Value{row},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT DISTINCT `document_type_id` FROM `grant_documents`"),
			args:    []driver.Value{int64(1)},
			columns: []string{"document_type_id"},
			rows:    [][]driver.Value{{int64(2)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `document_types`.*NOT IN"),
			anyArgs: true,
			columns: []string{"document_type_id", "name", "required"},
			rows: [][]driver.Value{
				{int64(1), "Government ID", true},
				{int64(3), "Proof of Income", true},
			},
		},
	}

	svc, state, _, cleanup := newTestService(t, steps)
	defer cleanup()

	missing, err := svc.MissingRequiredDocuments(1)
	if err != nil {
		t.Fatalf("missing documents failed: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing types, got %d", len(missing))
	}
	if missing[0].Name != "Government ID" || missing[1].Name != "Proof of Income" {
		t.Fatalf("unexpected missing types: %+v", missing)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
