package model

// SubmissionStage is the visible phase of a running submission.
type SubmissionStage string

const (
	StageIdle        SubmissionStage = "IDLE"
	StageAuditing    SubmissionStage = "AUDITING"
	StageMatching    SubmissionStage = "MATCHING"
	StageCalculating SubmissionStage = "CALCULATING"
	StageSyncing     SubmissionStage = "SYNCING"
	StageFinalizing  SubmissionStage = "FINALIZING"
)

// Label is the progress text shown for a stage.
func (s SubmissionStage) Label() string {
	switch s {
	case StageAuditing:
		return "Auditing..."
	case StageMatching:
		return "Matching Answers..."
	case StageCalculating:
		return "Calculating Scores..."
	case StageSyncing:
		return "Syncing Records..."
	case StageFinalizing:
		return "Finalizing..."
	default:
		return ""
	}
}

// View is the screen a session is on.
type View string

const (
	ViewTestInterface View = "TEST_INTERFACE"
	ViewResultSummary View = "RESULT_SUMMARY"
	ViewClosed        View = "CLOSED"
)

// SubmitTrigger records what started a submission.
type SubmitTrigger string

const (
	TriggerManual      SubmitTrigger = "MANUAL"
	TriggerTimerExpiry SubmitTrigger = "TIMER_EXPIRY"
)

// StartSessionRequest starts a test; an empty exam id picks the newest exam.
type StartSessionRequest struct {
	ExamID string `json:"exam_id" binding:"omitempty,max=64"`
}

// ActionRequest carries one answer action from the student.
type ActionRequest struct {
	Action string `json:"action" binding:"required,oneof=select_option set_numerical clear save_and_next save_and_mark_for_review mark_for_review_and_next"`
	Option *int   `json:"option" binding:"omitempty,min=0,max=3"`
	Value  string `json:"value" binding:"omitempty,max=64"`
}

// NavigateRequest moves the current question pointer.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=back next jump"`
	Index     int    `json:"index" binding:"min=0"`
}
