package apperrors

type ErrorCode string

const (
	// system
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// business logic
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	CodeInvalidTargeting     ErrorCode = "INVALID_TARGETING"
	CodeDirectoryUnavailable ErrorCode = "DIRECTORY_UNAVAILABLE"
	CodeInvalidStatus        ErrorCode = "INVALID_STATUS"

	// auth
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
)
