package domain

import "time"

type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	UserType            string
	IsVerified          bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether the account is locked at the given instant. An expired
// lock counts as unlocked; the column itself is cleared on the next successful login.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Patient is the slice of the profile collaborator's data the auth core forwards
// in the login response. Profile completeness is owned by that collaborator.
type Patient struct {
	UserID                   string
	FirstName                string
	LastName                 string
	ProfileCompleted         bool
	MandatoryFieldsCompleted bool
}

type Session struct {
	ID               int64
	UserID           string
	SessionToken     string
	RefreshToken     *string
	ExpiresAt        time.Time
	RefreshExpiresAt *time.Time
	CreatedAt        time.Time
	LastAccessed     time.Time
	IPAddress        string
	UserAgent        string
	IsActive         bool
	RememberMe       bool
}

// IsExpired reports whether the access-token window has passed. Callers must check
// this on top of IsActive since expired rows are only removed by the sweep.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsRefreshExpired(now time.Time) bool {
	if s.RefreshExpiresAt == nil {
		return true
	}
	return now.After(*s.RefreshExpiresAt)
}

// LoginAttempt is an append-only audit row. UserID stays nil when the email does
// not match an existing account.
type LoginAttempt struct {
	ID            int64
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason *string
	UserID        *string
	AttemptedAt   time.Time
}
