package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState       = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrSessionExpired     = NewDomainError("SESSION_EXPIRED", "Wizard session has expired")
	ErrDuplicateSubmit    = NewDomainError("DUPLICATE_SUBMISSION", "Submission already in progress")
	ErrRemoteUnavailable  = NewDomainError("REMOTE_UNAVAILABLE", "Remote business API is unavailable")
	ErrValidationRequired = NewDomainError("VALIDATION_ERROR", "Required fields are missing")
)
