package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
	// Violations holds one user-facing message per failed field check.
	Violations []Violation
	// Public marks Message as fit to show to operators
	Public bool
}

// Violation is a single failed field check
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:       code,
			Message:    appErr.Message,
			Cause:      appErr.Cause,
			Violations: appErr.Violations,
			Public:     appErr.Public,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// UserMessage returns the message meant for operators: the outermost public
// AppError message, else the innermost AppError message, without causes.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var last *AppError
	for cur := err; cur != nil; cur = stderrors.Unwrap(cur) {
		if appErr, ok := cur.(*AppError); ok {
			if appErr.Public {
				return appErr.Message
			}
			last = appErr
		}
	}
	if last == nil {
		return err.Error()
	}
	return last.Message
}

// MsgUnexpected is shown for failures that carry no public message
const MsgUnexpected = "Si è verificato un errore imprevisto. Riprova."

// PublicMessage returns the outermost public AppError message in the chain
func PublicMessage(err error) (string, bool) {
	for cur := err; cur != nil; cur = stderrors.Unwrap(cur) {
		if appErr, ok := cur.(*AppError); ok && appErr.Public {
			return appErr.Message, true
		}
	}
	return "", false
}

// OperatorMessage is the public message of err, else MsgUnexpected. Unlike
// UserMessage it never falls back to internal error text.
func OperatorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := PublicMessage(err); ok {
		return msg
	}
	return MsgUnexpected
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeMalformedData   = "MALFORMED_DATA"
	CodeConflict        = "CONFLICT"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

// Invalid builds a validation error carrying every violation. The message is
// the violations joined one per line.
func Invalid(violations ...Violation) *AppError {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	return &AppError{
		Code:       CodeValidationError,
		Message:    strings.Join(msgs, "\n"),
		Violations: violations,
		Public:     true,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

// RemoteFailure is an external service error with an operator-facing message
func RemoteFailure(message string, cause error) *AppError {
	return UserFacing(CodeExternalService, message, cause)
}

// UserFacing builds an error whose message is shown to operators as is
func UserFacing(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Public:  true,
	}
}

func MalformedData(what string, cause error) *AppError {
	return &AppError{
		Code:    CodeMalformedData,
		Message: fmt.Sprintf("malformed stored data: %s", what),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}
