package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"grant-portal-api/utils"
)

func lockSteps(lockName string, acquired int64) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(regexp.QuoteMeta("SELECT GET_LOCK(?, 0)")),
			args:    []driver.Value{lockName},
			columns: []string{"GET_LOCK(?, 0)"},
			rows:    [][]driver.Value{{acquired}},
		},
	}
}

func releaseSteps(lockName string) []*queryStep {
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(regexp.QuoteMeta("SELECT RELEASE_LOCK(?)")),
			args:    []driver.Value{lockName},
			columns: []string{"RELEASE_LOCK(?)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}
}

func pluckIDsStep(ids ...int64) *queryStep {
	rows := make([][]driver.Value, len(ids))
	for i, id := range ids {
		rows[i] = []driver.Value{id}
	}
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT `application_id` FROM `grant_applications` WHERE status NOT IN"),
		anyArgs: true,
		columns: []string{"application_id"},
		rows:    rows,
	}
}

func approvalSteps(id int64) []*queryStep {
	columns, row := applicationRow(int(id), 0, utils.StatusPending, utils.StageDraft)
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

func newTestJob(t *testing.T, steps []*queryStep) (*AutoApproveJob, *scriptedDB, chan sentMail, func()) {
	t.Helper()
	db, state, cleanup := newScriptedGormDB(t, steps)

	mails := make(chan sentMail, 8)
	sender := func(to []string, subject, html string) error {
		mails <- sentMail{to: to, subject: subject}
		return nil
	}

	notifier := NewNotifier(db, testNotifierSettings(), sender)
	apps := NewApplicationService(db, notifier)
	return NewAutoApproveJob(db, apps, sender), state, mails, cleanup
}

func TestAutoApproveSweepApprovesStaleApplications(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "grants-admin@example.org")

	const lockName = "grant_auto_approve_test"
	var steps []*queryStep
	steps = append(steps, lockSteps(lockName, 1)...)
	steps = append(steps, pluckIDsStep(1, 2))
	steps = append(steps, approvalSteps(1)...)
	steps = append(steps, approvalSteps(2)...)
	steps = append(steps, releaseSteps(lockName)...)

	job, state, mails, cleanup := newTestJob(t, steps)
	defer cleanup()

	summary, err := job.Run(context.Background(), &AutoApproveInput{LockName: lockName})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Scanned != 2 || summary.Approved != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// two applicant notifications plus the admin summary
	subjects := map[string]int{}
	for i := 0; i < 3; i++ {
		subjects[waitForMail(t, mails).subject]++
	}
	if subjects["Grant application approved"] != 2 {
		t.Fatalf("expected two approval emails, got %v", subjects)
	}
	if subjects["Grant auto-approval sweep summary"] != 1 {
		t.Fatalf("expected one admin summary, got %v", subjects)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAutoApproveSweepIsIdempotentWhenNothingQualifies(t *testing.T) {
	const lockName = "grant_auto_approve_test"
	var steps []*queryStep
	steps = append(steps, lockSteps(lockName, 1)...)
	steps = append(steps, pluckIDsStep())
	steps = append(steps, releaseSteps(lockName)...)

	job, state, mails, cleanup := newTestJob(t, steps)
	defer cleanup()

	summary, err := job.Run(context.Background(), &AutoApproveInput{LockName: lockName})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Scanned != 0 || summary.Approved != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(mails) != 0 {
		t.Fatal("empty sweep must not send mail")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAutoApproveSweepDryRunTouchesNothing(t *testing.T) {
	steps := []*queryStep{pluckIDsStep(1, 2, 3)}

	job, state, mails, cleanup := newTestJob(t, steps)
	defer cleanup()

	summary, err := job.Run(context.Background(), &AutoApproveInput{DryRun: true})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if summary.Scanned != 3 || summary.Approved != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(mails) != 0 {
		t.Fatal("dry run must not send mail")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAutoApproveSweepRefusesWhenLockHeld(t *testing.T) {
	const lockName = "grant_auto_approve_test"
	steps := lockSteps(lockName, 0)

	job, state, _, cleanup := newTestJob(t, steps)
	defer cleanup()

	_, err := job.Run(context.Background(), &AutoApproveInput{LockName: lockName})
	if !errors.Is(err, ErrAutoApproveAlreadyRunning) {
		t.Fatalf("expected ErrAutoApproveAlreadyRunning, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAutoApproveSweepCountsPerRecordFailures(t *testing.T) {
	columns, _ := applicationRow(1, 0, "", "")
	var steps []*queryStep
	steps = append(steps, pluckIDsStep(1))
	steps = append(steps, &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM `grant_applications`.*FOR UPDATE"),
		anyArgs: true,
		columns: columns,
		rows:    [][]driver.Value{},
	})

	job, state, mails, cleanup := newTestJob(t, steps)
	defer cleanup()

	summary, err := job.Run(context.Background(), &AutoApproveInput{})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Scanned != 1 || summary.Approved != 0 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(mails) != 0 {
		t.Fatal("failed-only sweep must not send the admin summary")
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAutoApproveSweepStopsOnCancelledContext(t *testing.T) {
	steps := []*queryStep{pluckIDsStep(1, 2)}

	job, state, _, cleanup := newTestJob(t, steps)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := job.Run(ctx, &AutoApproveInput{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// the scripted step may or may not have been consumed before the
	// cancellation surfaced, so completeness is not asserted here
	_ = state
}
