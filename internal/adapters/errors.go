package adapters

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when login is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailAlreadyRegistered is returned when registering a taken email.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrUnreachable is returned when the backend cannot be reached at all.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError is a client-side rejection raised before any request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RequestFailedError is returned when the backend answers with a
// non-success status.
type RequestFailedError struct {
	StatusCode int
	Message    string
}

func (e *RequestFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err means the credential was refused and
// the user has to sign in again.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized
}

// Message returns the text a view shows for err.
func Message(err error) string {
	var (
		rf *RequestFailedError
		ve *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return "This email is already registered. Please use a different email or login instead."
	case errors.Is(err, ErrUnreachable):
		return "Cannot reach the server. Please check that the backend is running."
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &rf):
		if msg := strings.TrimSpace(rf.Message); msg != "" {
			return msg
		}
		return http.StatusText(rf.StatusCode)
	default:
		return "Something went wrong. Please try again."
	}
}

// HTTPStatus maps err to the status a view host answers with.
func HTTPStatus(err error) int {
	var rf *RequestFailedError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnreachable):
		return http.StatusBadGateway
	case errors.As(err, &rf):
		if rf.StatusCode >= 400 && rf.StatusCode < 600 {
			return rf.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
