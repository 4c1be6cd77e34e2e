package webhook

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = errors.New("conflict")
	// ErrStaleWrite is returned by conditional writes whose precondition no longer holds
	ErrStaleWrite = errors.New("stale write")
	// ErrOwnerUnresolved means the owner directory could not answer, so registration is refused
	ErrOwnerUnresolved = errors.New("owner existence could not be resolved")
)

/* ValidationError is a client-facing rejection naming the offending field
 * It never carries side effects: the operation returning it wrote nothing
 */
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StatusCode classifies validation errors as unprocessable
func (e *ValidationError) StatusCode() int {
	return http.StatusUnprocessableEntity
}
