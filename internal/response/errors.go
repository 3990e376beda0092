package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrBlankInput ErrCode = "BLANK_INPUT"

	// ─── Wizard ────────────────────────────────────────────────────────
	ErrSurveyExists    ErrCode = "SURVEY_EXISTS"
	ErrSurveyNotFound  ErrCode = "SURVEY_NOT_FOUND"
	ErrNoSurveys       ErrCode = "NO_SURVEYS"
	ErrInvalidStep     ErrCode = "INVALID_STEP"
	ErrNoVariations    ErrCode = "NO_VARIATIONS"
	ErrNotAnalyzed     ErrCode = "NOT_ANALYZED"
	ErrSessionConflict ErrCode = "SESSION_CONFLICT"

	// ─── Archive ───────────────────────────────────────────────────────
	ErrArchiveDisabled ErrCode = "ARCHIVE_DISABLED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrRateLimited ErrCode = "RATE_LIMITED"
	ErrInternal    ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid credentials."
	case ErrSessionNotFound:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrBlankInput:
		return "This field must not be empty."

	case ErrSurveyExists:
		return "Survey ID already exists. Choose a different ID."
	case ErrSurveyNotFound:
		return "Survey not found."
	case ErrNoSurveys:
		return "No surveys available."
	case ErrInvalidStep:
		return "This action is not available at the current step."
	case ErrNoVariations:
		return "The survey has no variations to deploy."
	case ErrNotAnalyzed:
		return "The survey has not been analyzed yet."
	case ErrSessionConflict:
		return "Your session was changed by another request. Please retry."

	case ErrArchiveDisabled:
		return "Report archiving is not enabled."

	case ErrRateLimited:
		return "Too many analysis runs. Please wait a moment."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
