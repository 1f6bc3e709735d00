package utils

// Review outcomes (grant_applications.status).
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusOnHold      = "on_hold"
)

// Workflow stages (grant_applications.current_stage).
const (
	StageDraft       = "draft"
	StageEligibility = "eligibility"
	StageDetails     = "details"
	StageDocuments   = "documents"
	StageReview      = "review"
	StageInterview   = "interview"
	StageDecision    = "decision"
	StageCompleted   = "completed"
)

// StageOrder is the fixed forward ordering used by stage advancement.
var StageOrder = []string{
	StageDraft,
	StageEligibility,
	StageDetails,
	StageDocuments,
	StageReview,
	StageInterview,
	StageDecision,
	StageCompleted,
}

var validStatuses = map[string]bool{
	StatusPending:     true,
	StatusUnderReview: true,
	StatusApproved:    true,
	StatusRejected:    true,
	StatusOnHold:      true,
}

var validStages = func() map[string]bool {
	m := make(map[string]bool, len(StageOrder))
	for _, stage := range StageOrder {
		m[stage] = true
	}
	return m
}()

var stageProgress = map[string]int{
	StageDraft:       10,
	StageEligibility: 25,
	StageDetails:     50,
	StageDocuments:   75,
	StageReview:      85,
	StageInterview:   95,
	StageDecision:    100,
	StageCompleted:   100,
}

// IsValidStatus reports whether status is a recognized review outcome.
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// IsValidStage reports whether stage is a recognized workflow stage.
func IsValidStage(stage string) bool {
	return validStages[stage]
}

// IsTerminalStatus reports whether the status is a final review outcome.
func IsTerminalStatus(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// NextStage returns the stage after the given one in StageOrder. ok is
// false at completed and for unrecognized stages; callers treat that as a
// no-op, not an error.
func NextStage(stage string) (string, bool) {
	for i, s := range StageOrder {
		if s == stage {
			if i+1 >= len(StageOrder) {
				return "", false
			}
			return StageOrder[i+1], true
		}
	}
	return "", false
}

// StageForStatus returns the stage a status change forces, if any. Statuses
// without a mapping leave the current stage untouched.
func StageForStatus(status string) (string, bool) {
	switch status {
	case StatusApproved:
		return StageCompleted, true
	case StatusUnderReview:
		return StageReview, true
	case StatusRejected:
		return StageDecision, true
	}
	return "", false
}

// StageProgress maps a stage to an applicant-facing completion percentage.
func StageProgress(stage string) int {
	return stageProgress[stage]
}
