package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingCredentials is returned when email or password is empty
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrLastAdminProtected is returned when a change would leave the site without an admin
	ErrLastAdminProtected = errors.New("the last admin account cannot be deleted or demoted")
	// ErrUserNotFound is returned when the user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another account already uses the email
	ErrEmailTaken = errors.New("email is already in use")
)

// RateLimitedError is returned when the login window of the client is exhausted
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, retry after %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// ValidationError is returned for malformed input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
