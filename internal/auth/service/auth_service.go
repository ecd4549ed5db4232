package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/jsricop/vitalgo-co/internal/auth/domain"
	"github.com/jsricop/vitalgo-co/internal/auth/dto"
	autherror "github.com/jsricop/vitalgo-co/internal/errors"
	"github.com/jsricop/vitalgo-co/pkg/constant"
)

// Public messages. Every credential failure except lockout renders the same text so
// the response never signals whether an account exists.
const (
	MsgInvalidCredentials    = "Email o contraseña incorrectos"
	MsgAccountLocked         = "Cuenta bloqueada. Contacte al soporte."
	MsgLockedTooManyAttempts = "Cuenta bloqueada por demasiados intentos fallidos"
	MsgEmailNotVerified      = "Email no verificado. Revisa tu bandeja de entrada."
	MsgTooManyIPAttempts     = "Demasiados intentos desde esta IP. Intente más tarde."
	MsgTooManyEmailAttempts  = "Demasiados intentos para este email. Intente en 15 minutos."
	MsgLogoutSuccess         = "Logout exitoso"
	MsgLogoutAllSuccess      = "Logout exitoso de todos los dispositivos"
)

type AuthService struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	attempts  domain.LoginAttemptRepository
	passwords *PasswordService
	tokens    TokenGenerator
	log       *zap.Logger
}

func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	attempts domain.LoginAttemptRepository,
	passwords *PasswordService,
	tokens TokenGenerator,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		attempts:  attempts,
		passwords: passwords,
		tokens:    tokens,
		log:       log,
	}
}

// Login runs the full authentication sequence: rate gate, credential checks,
// lockout bookkeeping, token issuance, and session plus ledger writes.
func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	userAgent := truncate(input.UserAgent, constant.MaxUserAgentLength)
	now := time.Now()

	// The rate gate runs before any user lookup so a throttled caller cannot
	// probe for account existence via timing. Throttled calls leave no ledger row.
	if err := s.checkRateLimits(ctx, email, input.IPAddress, now); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		if err := s.recordFailure(ctx, email, input.IPAddress, userAgent, constant.FailureUserNotFound, nil); err != nil {
			return nil, err
		}
		return nil, &autherror.LoginRejection{Message: MsgInvalidCredentials}
	}

	if user.IsLocked(now) {
		if err := s.recordFailure(ctx, email, input.IPAddress, userAgent, constant.FailureAccountLocked, &user.ID); err != nil {
			return nil, err
		}
		return nil, &autherror.LoginRejection{Message: MsgAccountLocked}
	}

	if !s.passwords.Verify(input.Password, user.PasswordHash) {
		return nil, s.rejectWrongPassword(ctx, user, email, input.IPAddress, userAgent, now)
	}

	// Ordered after the password check: an unverified account reveals itself only
	// to a caller who already holds the correct password.
	if !user.IsVerified {
		if err := s.recordFailure(ctx, email, input.IPAddress, userAgent, constant.FailureEmailNotVerified, &user.ID); err != nil {
			return nil, err
		}
		return nil, &autherror.LoginRejection{Message: MsgEmailNotVerified}
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email, user.UserType, input.RememberMe)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID, access.SessionID)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		UserID:           user.ID,
		SessionToken:     access.Token,
		RefreshToken:     &refresh.Token,
		ExpiresAt:        access.ExpiresAt,
		RefreshExpiresAt: &refresh.ExpiresAt,
		IPAddress:        input.IPAddress,
		UserAgent:        userAgent,
		IsActive:         true,
		RememberMe:       input.RememberMe,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := s.users.ResetFailedAttempts(ctx, user.ID); err != nil {
		return nil, err
	}

	if err := s.attempts.Record(ctx, &domain.LoginAttempt{
		Email:     email,
		IPAddress: input.IPAddress,
		UserAgent: userAgent,
		Success:   true,
		UserID:    &user.ID,
	}); err != nil {
		return nil, err
	}

	userOut, redirectURL := s.buildUserOutput(ctx, user)

	s.log.Info("user authenticated",
		zap.String("user_id", user.ID),
		zap.String("user_type", user.UserType),
		zap.String("session_id", access.SessionID))

	return &dto.TokenResponse{
		Success:      true,
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresIn:    access.ExpiresIn,
		User:         userOut,
		RedirectURL:  redirectURL,
	}, nil
}

// Refresh validates a refresh token, confirms the live session and unlocked
// account, then rotates both tokens in place.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	now := time.Now()

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return nil, autherror.ErrInvalidToken
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsRefreshExpired(now) {
		return nil, autherror.ErrSessionNotFound
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	// A lock detected out-of-band kills the session before rejecting.
	if user.IsLocked(now) {
		if err := s.sessions.Revoke(ctx, session.ID); err != nil {
			s.log.Warn("failed to revoke session of locked account",
				zap.Int64("db_session_id", session.ID), zap.Error(err))
		}
		return nil, autherror.ErrAccountLocked
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email, user.UserType, session.RememberMe)
	if err != nil {
		return nil, err
	}

	newRefresh, err := s.tokens.IssueRefresh(user.ID, access.SessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Rotate(ctx, session.ID, access.Token, &newRefresh.Token,
		access.ExpiresAt, &newRefresh.ExpiresAt); err != nil {
		return nil, err
	}

	userOut, redirectURL := s.buildUserOutput(ctx, user)

	s.log.Info("session refreshed",
		zap.String("user_id", user.ID),
		zap.Int64("db_session_id", session.ID),
		zap.String("session_id", access.SessionID))

	return &dto.TokenResponse{
		Success:      true,
		AccessToken:  access.Token,
		RefreshToken: newRefresh.Token,
		TokenType:    "bearer",
		ExpiresIn:    access.ExpiresIn,
		User:         userOut,
		RedirectURL:  redirectURL,
	}, nil
}

// Validate turns a bearer token into a verified identity. Every failure collapses
// into ErrInvalidToken so callers see one uniform rejection.
func (s *AuthService) Validate(ctx context.Context, token string) (*domain.User, string, error) {
	now := time.Now()

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, "", autherror.ErrInvalidToken
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return nil, "", autherror.ErrInvalidToken
	}

	session, err := s.sessions.GetByAccessToken(ctx, token)
	if err != nil {
		return nil, "", err
	}
	// Expiry is re-checked here because revocation is a soft flag and physical
	// deletion happens on a separate sweep.
	if session == nil || session.IsExpired(now) {
		return nil, "", autherror.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", autherror.ErrInvalidToken
	}

	if user.IsLocked(now) {
		if err := s.sessions.Revoke(ctx, session.ID); err != nil {
			s.log.Warn("failed to revoke session of locked account",
				zap.Int64("db_session_id", session.ID), zap.Error(err))
		}
		return nil, "", autherror.ErrInvalidToken
	}

	return user, claims.SessionID, nil
}

// Logout revokes the matched session, or every session of the user when logoutAll
// is set. It never reports failure: an invalid token and a successful revoke both
// come back as success so the response leaks nothing about token validity.
func (s *AuthService) Logout(ctx context.Context, token string, logoutAll bool) string {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return MsgLogoutSuccess
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return MsgLogoutSuccess
	}

	session, err := s.sessions.GetByAccessToken(ctx, token)
	if err != nil || session == nil {
		return MsgLogoutSuccess
	}

	if logoutAll {
		if err := s.sessions.RevokeAll(ctx, claims.Subject); err != nil {
			s.log.Warn("failed to revoke all sessions", zap.String("user_id", claims.Subject), zap.Error(err))
			return MsgLogoutSuccess
		}
		return MsgLogoutAllSuccess
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		s.log.Warn("failed to revoke session", zap.Int64("db_session_id", session.ID), zap.Error(err))
	}

	return MsgLogoutSuccess
}

// LogoutByRefreshToken revokes the session matched by a refresh token, with the
// same never-fail semantics as Logout.
func (s *AuthService) LogoutByRefreshToken(ctx context.Context, refreshToken string) string {
	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return MsgLogoutSuccess
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil || session == nil {
		return MsgLogoutSuccess
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		s.log.Warn("failed to revoke session", zap.Int64("db_session_id", session.ID), zap.Error(err))
	}

	return MsgLogoutSuccess
}

// Profile exposes the identity summary plus redirect hint for an already
// verified user.
func (s *AuthService) Profile(ctx context.Context, user *domain.User) (dto.UserOutput, string) {
	return s.buildUserOutput(ctx, user)
}

func (s *AuthService) checkRateLimits(ctx context.Context, email, ip string, now time.Time) error {
	ipFailures, err := s.attempts.CountFailuresByIP(ctx, ip, now.Add(-constant.IPFailureWindow))
	if err != nil {
		return err
	}
	if ipFailures >= constant.MaxIPFailures {
		return &autherror.RateLimitError{Message: MsgTooManyIPAttempts}
	}

	emailFailures, err := s.attempts.CountFailuresByEmail(ctx, email, now.Add(-constant.EmailFailureWindow))
	if err != nil {
		return err
	}
	if emailFailures >= constant.MaxEmailFailures {
		return &autherror.RateLimitError{Message: MsgTooManyEmailAttempts}
	}

	return nil
}

func (s *AuthService) rejectWrongPassword(ctx context.Context, user *domain.User, email, ip, userAgent string, now time.Time) error {
	if err := s.recordFailure(ctx, email, ip, userAgent, constant.FailureInvalidPassword, &user.ID); err != nil {
		return err
	}

	failedAttempts, err := s.users.IncrementFailedAttempts(ctx, user.ID)
	if err != nil {
		return err
	}

	if failedAttempts >= constant.MaxFailedAttempts {
		if err := s.users.LockAccount(ctx, user.ID, now.Add(constant.AccountLockPeriod)); err != nil {
			return err
		}
		s.log.Warn("account locked after repeated failures",
			zap.String("user_id", user.ID), zap.Int("failed_attempts", failedAttempts))
		return &autherror.LoginRejection{Message: MsgLockedTooManyAttempts}
	}

	remaining := constant.MaxFailedAttempts - failedAttempts
	return &autherror.LoginRejection{Message: MsgInvalidCredentials, AttemptsRemaining: &remaining}
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip, userAgent, reason string, userID *string) error {
	return s.attempts.Record(ctx, &domain.LoginAttempt{
		Email:         email,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Success:       false,
		FailureReason: &reason,
		UserID:        userID,
	})
}

// buildUserOutput assembles the identity summary and redirect hint. Profile
// completeness belongs to the profile collaborator; the auth core only forwards it.
func (s *AuthService) buildUserOutput(ctx context.Context, user *domain.User) (dto.UserOutput, string) {
	out := dto.UserOutput{
		ID:                       user.ID,
		Email:                    user.Email,
		UserType:                 user.UserType,
		IsVerified:               user.IsVerified,
		ProfileCompleted:         true,
		MandatoryFieldsCompleted: true,
	}

	var patient *domain.Patient
	if user.UserType == constant.UserTypePatient {
		var err error
		patient, err = s.users.GetPatientByUserID(ctx, user.ID)
		if err != nil {
			s.log.Warn("failed to load patient profile", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	if patient != nil {
		out.FirstName = patient.FirstName
		out.LastName = patient.LastName
		out.ProfileCompleted = patient.ProfileCompleted
		out.MandatoryFieldsCompleted = patient.MandatoryFieldsCompleted
	} else {
		out.FirstName, out.LastName = namesFromEmail(user.Email, user.UserType)
	}

	return out, redirectURLFor(out)
}

func redirectURLFor(out dto.UserOutput) string {
	if !out.ProfileCompleted {
		return constant.RedirectCompleteProfile
	}
	if !out.MandatoryFieldsCompleted {
		return constant.RedirectCompleteMedicalProfile
	}
	return constant.RedirectDashboard
}

// namesFromEmail derives display names for accounts without a profile record,
// turning "test.paramedic@x.com" into "Test" "Paramedic".
func namesFromEmail(email, userType string) (string, string) {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}

	replaced := strings.NewReplacer(".", " ", "_", " ").Replace(local)
	parts := strings.Fields(replaced)
	for i, p := range parts {
		parts[i] = titleCase(p)
	}

	first := "User"
	if len(parts) > 0 {
		first = parts[0]
	}

	last := titleCase(userType)
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}

	return first, last
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
