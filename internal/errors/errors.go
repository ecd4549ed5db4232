package errors

import (
	"errors"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrSessionNotFound = errors.New("refresh token not found or revoked")
	ErrUserNotFound    = errors.New("user not found")
	ErrAccountLocked   = errors.New("account is locked")
)

// RateLimitError aborts a login before any credential check runs.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// LoginRejection is a credential failure with a user-safe message. AttemptsRemaining
// is set only on wrong-password rejections that have not yet tripped the lockout.
type LoginRejection struct {
	Message           string
	AttemptsRemaining *int
}

func (e *LoginRejection) Error() string {
	return e.Message
}
