package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by stores and services when a record is missing.
	ErrNotFound = errors.New("record not found")

	// ErrStructuralMismatch aborts an update-mode file whose lines do not
	// carry the expected number of fields.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrValidation marks input rejected before any work starts.
	ErrValidation = errors.New("validation failed")

	// ErrReportRequiresCompletion rejects an execution report on a plan
	// whose status is not completed.
	ErrReportRequiresCompletion = errors.New("execution report requires completed status")

	// ErrInvalidCredentials is returned by Login for unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized means the request carries no valid token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the principal lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrEmailTaken is returned when a user email already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError lists the fields that failed validation. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range sortedKeys(e.Fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// MismatchError reports the first update-mode line with the wrong arity.
type MismatchError struct {
	Line     int
	Got      int
	Expected int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("structural mismatch on line %d: expected %d columns, got %d", e.Line, e.Expected, e.Got)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrStructuralMismatch
}
