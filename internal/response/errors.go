package response

// ErrCode identifies an API failure independently of its HTTP status.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrRollNumberNotFound ErrCode = "ROLL_NUMBER_NOT_FOUND"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// Authorization
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrNotSessionOwner   ErrCode = "NOT_SESSION_OWNER"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidExam    ErrCode = "INVALID_EXAM"

	// Resources
	ErrNotFound            ErrCode = "NOT_FOUND"
	ErrDuplicateRollNumber ErrCode = "DUPLICATE_ROLL_NUMBER"

	// Sessions
	ErrNoExamAvailable   ErrCode = "NO_EXAM_AVAILABLE"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrSessionLocked     ErrCode = "SESSION_LOCKED"
	ErrInvalidAction     ErrCode = "INVALID_ACTION"
	ErrIndexOutOfRange   ErrCode = "INDEX_OUT_OF_RANGE"
	ErrNotFinished       ErrCode = "NOT_FINISHED"
	ErrAlreadySubmitting ErrCode = "SUBMISSION_IN_PROGRESS"

	// Generator
	ErrGeneratorUnavailable ErrCode = "GENERATOR_UNAVAILABLE"
	ErrGeneratorFailed      ErrCode = "GENERATOR_FAILED"

	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Invalid username or password.",
	ErrRollNumberNotFound: "Roll number not found. Please check and try again.",
	ErrTokenRequired:      "Authentication token is required.",
	ErrTokenInvalid:       "Authentication token is invalid.",
	ErrTokenExpired:       "Authentication token has expired.",

	ErrStudentAccessOnly: "This resource is restricted to candidates.",
	ErrAdminAccessOnly:   "This resource is restricted to administrators.",
	ErrNotSessionOwner:   "This test session belongs to another candidate.",

	ErrValidation:     "Validation failed. Please check your input.",
	ErrInvalidPayload: "Invalid request payload.",
	ErrInvalidExam:    "The exam definition is invalid.",

	ErrNotFound:            "Resource not found.",
	ErrDuplicateRollNumber: "A candidate with this roll number already exists.",

	ErrNoExamAvailable:   "No exam is available to attempt.",
	ErrSessionNotFound:   "Test session not found or already closed.",
	ErrSessionLocked:     "Answers are locked while the test is being submitted.",
	ErrInvalidAction:     "This action does not apply to the current question.",
	ErrIndexOutOfRange:   "Question index is out of range.",
	ErrNotFinished:       "The test has not been submitted yet.",
	ErrAlreadySubmitting: "The test is already being submitted.",

	ErrGeneratorUnavailable: "Question generation is not configured.",
	ErrGeneratorFailed:      "Question generation failed. Please try again.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",
	ErrInternal:          "Internal server error.",
}

// GetMessage returns the human-readable message for a code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
