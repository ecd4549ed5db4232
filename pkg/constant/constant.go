package constant

import "time"

// User account types carried in the user_type column and token claims.
const (
	UserTypePatient   = "patient"
	UserTypeParamedic = "paramedic"
	UserTypeAdmin     = "admin"
)

// Failure reasons recorded on login_attempts rows.
const (
	FailureUserNotFound     = "user_not_found"
	FailureAccountLocked    = "account_locked"
	FailureInvalidPassword  = "invalid_password"
	FailureEmailNotVerified = "email_not_verified"
)

// Lockout and rate-limit policy.
const (
	MaxFailedAttempts = 5
	AccountLockPeriod = time.Hour

	MaxIPFailures    = 15
	IPFailureWindow  = time.Hour
	MaxEmailFailures = 5
	EmailFailureWindow = 15 * time.Minute
)

// Token lifetimes. The access lifetime without remember_me comes from config;
// these cover the fixed cases.
const (
	RememberMeAccessExpiry = 30 * 24 * time.Hour
	RefreshTokenExpiry     = 7 * 24 * time.Hour
)

// Redirect paths forwarded to the frontend based on profile completeness.
const (
	RedirectCompleteProfile        = "/completar-perfil"
	RedirectCompleteMedicalProfile = "/completar-perfil-medico"
	RedirectDashboard              = "/dashboard"
)

// MaxUserAgentLength bounds what gets persisted on sessions and attempts.
const MaxUserAgentLength = 500
