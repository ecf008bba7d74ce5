package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service
// implementations. Callers check these with errors.Is; the API layer maps
// them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request. Maps to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrDeckNotFound indicates the requested deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound indicates no active study session with the given
	// ID exists. Expired sessions are evicted, so this also covers
	// sessions that timed out.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrEmailTaken indicates the registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates the email/password pair did not
	// match. Maps to HTTP 401 without revealing which part was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrGenerationUnavailable indicates AI deck generation is not
	// configured on this deployment.
	ErrGenerationUnavailable = errors.New("deck generation is not available")

	// ErrStaleStudyRecord indicates the stored last-study date is ahead of
	// the session completion time, so the streak cannot be advanced
	// unambiguously. Maps to HTTP 409 Conflict.
	ErrStaleStudyRecord = errors.New("stored study record is ahead of the completion time")

	// ErrSessionNotComplete indicates a completion was requested while
	// cards are still queued. Maps to HTTP 409 Conflict.
	ErrSessionNotComplete = errors.New("study session still has cards queued")

	// ErrNoActiveCard indicates a card operation was requested on a
	// session with no current card, i.e. one that already finished all
	// passes. Maps to HTTP 409 Conflict.
	ErrNoActiveCard = errors.New("study session has no active card")
)

// ServiceError wraps unexpected errors from a service with operation
// context. Expected conditions use the sentinels above instead.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_deck")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. Known sentinel errors pass
// through unwrapped so callers can match them directly.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrNotOwned,
		ErrDeckNotFound,
		ErrUserNotFound,
		ErrSessionNotFound,
		ErrEmailTaken,
		ErrInvalidCredentials,
		ErrGenerationUnavailable,
		ErrStaleStudyRecord,
		ErrSessionNotComplete,
		ErrNoActiveCard,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
