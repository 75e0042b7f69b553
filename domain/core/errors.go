package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrAnalysisNotFound  = fmt.Errorf("%w: analysis", ErrNotFound)
	ErrSubjectNotFound   = fmt.Errorf("%w: subject", ErrNotFound)
	ErrFrameworkNotFound = fmt.Errorf("%w: framework", ErrNotFound)
	ErrManualNotFound    = fmt.Errorf("%w: manual", ErrNotFound)
	ErrProfileNotFound   = fmt.Errorf("%w: promoter profile", ErrNotFound)

	// Workflow errors
	ErrInFlight     = errors.New("an analysis is already in progress")
	ErrInvalidState = errors.New("operation not allowed in current workflow state")
	ErrClosed       = errors.New("workflow closed")

	// Data errors
	ErrMalformed = errors.New("malformed stored data")
)

// Error constructors with context
func NewNotFoundError(resource string, id int64) error {
	return fmt.Errorf("%w: %s with id %d", ErrNotFound, resource, id)
}

func NewMalformedError(section string, err error) error {
	return fmt.Errorf("%w: section %s: %v", ErrMalformed, section, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsMalformedError(err error) bool {
	return errors.Is(err, ErrMalformed)
}
