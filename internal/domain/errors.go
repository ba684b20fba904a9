package domain

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpdate       = errors.New("update failed")
	ErrProvider     = errors.New("provider error")
)

// AuthError is returned when the remote firewall API rejects the token.
type AuthError struct {
	// Status is the HTTP status the remote API answered with.
	Status int
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized (status %d)", e.Status)
}

// Is reports ErrUnauthorized as a match.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// UpdateError is a problem the caller can correct, such as an unknown
// firewall or a malformed label selector. Its message is shown to the client.
type UpdateError struct {
	Message string
}

// NewUpdateError creates a new UpdateError with a formatted message.
func NewUpdateError(format string, args ...any) *UpdateError {
	return &UpdateError{Message: fmt.Sprintf(format, args...)}
}

func (e *UpdateError) Error() string {
	return e.Message
}

// Is reports ErrUpdate as a match.
func (e *UpdateError) Is(target error) bool {
	return target == ErrUpdate
}

// ProviderError is an unexpected failure on the remote side. Its detail is
// logged but never returned to the client.
type ProviderError struct {
	Message string
	Status  int
	Body    string
	Err     error
}

// NewProviderError creates a new ProviderError with a formatted message.
func NewProviderError(format string, args ...any) *ProviderError {
	return &ProviderError{Message: fmt.Sprintf(format, args...)}
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: %d %s", e.Message, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: %d", e.Message, e.Status)
	default:
		return e.Message
	}
}

// Is reports ErrProvider as a match.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
