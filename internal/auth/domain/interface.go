package domain

//go:generate mockgen -destination=../../mocks/mock_repository.go -package=mocks github.com/jsricop/vitalgo-co/internal/auth/domain UserRepository,SessionRepository,LoginAttemptRepository

import (
	"context"
	"time"
)

// UserRepository never deletes users; the auth core only mutates login bookkeeping.
// Lookup methods return (nil, nil) when no row matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	// IncrementFailedAttempts bumps the counter atomically and returns the
	// post-increment value.
	IncrementFailedAttempts(ctx context.Context, id string) (int, error)
	ResetFailedAttempts(ctx context.Context, id string) error
	LockAccount(ctx context.Context, id string, until time.Time) error
	GetPatientByUserID(ctx context.Context, userID string) (*Patient, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByAccessToken(ctx context.Context, token string) (*Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*Session, error)
	// Rotate swaps the token pair on an existing row; the session keeps its id
	// across refreshes.
	Rotate(ctx context.Context, id int64, accessToken string, refreshToken *string, expiresAt time.Time, refreshExpiresAt *time.Time) error
	Revoke(ctx context.Context, id int64) error
	RevokeAll(ctx context.Context, userID string) error
	SweepExpired(ctx context.Context) (int64, error)
	CountActive(ctx context.Context, userID string) (int, error)
}

type LoginAttemptRepository interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
	CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error)
	CountFailuresByEmail(ctx context.Context, email string, since time.Time) (int, error)
}
