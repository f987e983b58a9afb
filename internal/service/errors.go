package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeValidation        = "validation_error"
	ErrCodeCardNotFound      = "card_not_found"
	ErrCodeCardNotAuthorized = "card_not_authorized"
	ErrCodeConflict          = "conflict"
	ErrCodeInternalError     = "internal_error"
)

func validationError(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeValidation, Message: msg}
}

func cardNotFound() *ServiceError {
	return &ServiceError{Code: ErrCodeCardNotFound, Message: "card not found"}
}

func cardNotAuthorized() *ServiceError {
	return &ServiceError{Code: ErrCodeCardNotAuthorized, Message: "card is not authorized or has insufficient balance"}
}

func internalError(msg string, err error) *ServiceError {
	return &ServiceError{Code: ErrCodeInternalError, Message: msg, Err: err}
}
