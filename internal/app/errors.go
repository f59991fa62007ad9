package app

import "fmt"

// DomainError is an error the HTTP layer can map directly onto the
// JSON error envelope: Status becomes the response code, Code the
// machine-readable error code ("VALIDATION_ERROR", "EMAIL_EXISTS",
// "GENERATION_FAILED", ...), Details optional structured context.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
