package config

import (
	"os"
	"strconv"
	"strings"
)

// GrantSettings holds the workflow configuration consumed by the transition
// notifier and the public settings endpoint. It is loaded once at startup
// and passed explicitly to whatever needs it; there is no ambient settings
// row in the database.
type GrantSettings struct {
	ApprovalDeadlineHours  int
	ProcessingTimeWeeksMin int
	ProcessingTimeWeeksMax int
	ReviewFrequency        string
	WelcomeMessage         string
}

const defaultWelcomeMessage = "Welcome to the grant application portal. " +
	"Please complete all sections carefully. Our review process typically " +
	"takes 2-4 weeks. Applications are reviewed monthly by our grant committee."

// LoadGrantSettings reads grant workflow settings from the environment,
// falling back to the documented defaults.
func LoadGrantSettings() GrantSettings {
	s := GrantSettings{
		ApprovalDeadlineHours:  24,
		ProcessingTimeWeeksMin: 2,
		ProcessingTimeWeeksMax: 4,
		ReviewFrequency:        "Monthly",
		WelcomeMessage:         defaultWelcomeMessage,
	}

	if v, err := strconv.Atoi(os.Getenv("GRANT_APPROVAL_DEADLINE_HOURS")); err == nil && v > 0 {
		s.ApprovalDeadlineHours = v
	}
	if v, err := strconv.Atoi(os.Getenv("GRANT_PROCESSING_WEEKS_MIN")); err == nil && v > 0 {
		s.ProcessingTimeWeeksMin = v
	}
	if v, err := strconv.Atoi(os.Getenv("GRANT_PROCESSING_WEEKS_MAX")); err == nil && v > 0 {
		s.ProcessingTimeWeeksMax = v
	}
	if v := strings.TrimSpace(os.Getenv("GRANT_REVIEW_FREQUENCY")); v != "" {
		s.ReviewFrequency = v
	}
	if v := strings.TrimSpace(os.Getenv("GRANT_WELCOME_MESSAGE")); v != "" {
		s.WelcomeMessage = v
	}

	return s
}
