package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jsricop/vitalgo-co/internal/auth/domain"
	"github.com/jsricop/vitalgo-co/internal/auth/dto"
	"github.com/jsricop/vitalgo-co/internal/auth/service"
	autherror "github.com/jsricop/vitalgo-co/internal/errors"
	"github.com/jsricop/vitalgo-co/internal/mocks"
	"github.com/jsricop/vitalgo-co/pkg/constant"
)

type authServiceFixture struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	attempts *mocks.MockLoginAttemptRepository
	tokens   *mocks.MockTokenGenerator
	svc      *service.AuthService
}

func newAuthServiceFixture(t *testing.T) *authServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &authServiceFixture{
		users:    mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionRepository(ctrl),
		attempts: mocks.NewMockLoginAttemptRepository(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
	}
	f.svc = service.NewAuthService(f.users, f.sessions, f.attempts,
		service.NewPasswordService(bcrypt.MinCost), f.tokens, zap.NewNop())

	return f
}

func (f *authServiceFixture) expectRateLimitPass() {
	f.attempts.EXPECT().CountFailuresByIP(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.attempts.EXPECT().CountFailuresByEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func verifiedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	return &domain.User{
		ID:           "user-123",
		Email:        "user@x.com",
		PasswordHash: hashPassword(t, password),
		UserType:     constant.UserTypePatient,
		IsVerified:   true,
	}
}

func testAccessResult() *service.AccessTokenResult {
	return &service.AccessTokenResult{
		Token:     "access-token",
		SessionID: "session-abc",
		ExpiresAt: time.Now().Add(30 * time.Minute),
		ExpiresIn: 1800,
	}
}

func testRefreshResult() *service.RefreshTokenResult {
	return &service.RefreshTokenResult{
		Token:     "refresh-token",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), "user@x.com").Return(user, nil)
	f.tokens.EXPECT().IssueAccess(user.ID, user.Email, user.UserType, false).Return(testAccessResult(), nil)
	f.tokens.EXPECT().IssueRefresh(user.ID, "session-abc").Return(testRefreshResult(), nil)
	f.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *domain.Session) error {
			assert.Equal(t, user.ID, s.UserID)
			assert.Equal(t, "access-token", s.SessionToken)
			assert.Equal(t, "refresh-token", *s.RefreshToken)
			assert.True(t, s.IsActive)
			assert.False(t, s.RememberMe)
			return nil
		})
	f.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.users.EXPECT().ResetFailedAttempts(gomock.Any(), user.ID).Return(nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			assert.True(t, a.Success)
			assert.Nil(t, a.FailureReason)
			assert.Equal(t, user.ID, *a.UserID)
			return nil
		})
	f.users.EXPECT().GetPatientByUserID(gomock.Any(), user.ID).Return(&domain.Patient{
		UserID:                   user.ID,
		FirstName:                "Juan",
		LastName:                 "Pérez",
		ProfileCompleted:         true,
		MandatoryFieldsCompleted: true,
	}, nil)

	resp, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:     "user@x.com",
		Password:  "password123",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 1800, resp.ExpiresIn)
	assert.Equal(t, "Juan", resp.User.FirstName)
	assert.Equal(t, constant.RedirectDashboard, resp.RedirectURL)
}

func TestAuthService_Login_NormalizesEmail(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), "ghost@x.com").Return(nil, nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			assert.Equal(t, "ghost@x.com", a.Email)
			return nil
		})

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    "  GHOST@X.com ",
		Password: "whatever",
	})
	require.Error(t, err)
}

func TestAuthService_Login_RateLimitedByIP(t *testing.T) {
	f := newAuthServiceFixture(t)

	// 15 failures for the IP in the trailing hour trips the gate before any user
	// lookup and without writing a ledger row.
	f.attempts.EXPECT().CountFailuresByIP(gomock.Any(), "10.0.0.1", gomock.Any()).Return(15, nil)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:     "user@x.com",
		Password:  "password123",
		IPAddress: "10.0.0.1",
	})

	var rateErr *autherror.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, service.MsgTooManyIPAttempts, rateErr.Message)
}

func TestAuthService_Login_RateLimitedByEmail(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.attempts.EXPECT().CountFailuresByIP(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.attempts.EXPECT().CountFailuresByEmail(gomock.Any(), "user@x.com", gomock.Any()).Return(5, nil)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    "user@x.com",
		Password: "password123",
	})

	var rateErr *autherror.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, service.MsgTooManyEmailAttempts, rateErr.Message)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), "ghost@x.com").Return(nil, nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			assert.False(t, a.Success)
			assert.Equal(t, constant.FailureUserNotFound, *a.FailureReason)
			assert.Nil(t, a.UserID)
			return nil
		})

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    "ghost@x.com",
		Password: "whatever",
	})

	var rejection *autherror.LoginRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, service.MsgInvalidCredentials, rejection.Message)
	assert.Nil(t, rejection.AttemptsRemaining)
}

func TestAuthService_Login_LockedAccount(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	lockedUntil := time.Now().Add(30 * time.Minute)
	user.LockedUntil = &lockedUntil

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			assert.Equal(t, constant.FailureAccountLocked, *a.FailureReason)
			return nil
		})

	// Even the correct password is rejected while the lock is live.
	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "password123",
	})

	var rejection *autherror.LoginRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, service.MsgAccountLocked, rejection.Message)
}

func TestAuthService_Login_ExpiredLockTreatedAsUnlocked(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	lockedUntil := time.Now().Add(-time.Minute)
	user.LockedUntil = &lockedUntil
	user.FailedLoginAttempts = 5

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.tokens.EXPECT().IssueAccess(user.ID, user.Email, user.UserType, false).Return(testAccessResult(), nil)
	f.tokens.EXPECT().IssueRefresh(user.ID, "session-abc").Return(testRefreshResult(), nil)
	f.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.users.EXPECT().ResetFailedAttempts(gomock.Any(), user.ID).Return(nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().GetPatientByUserID(gomock.Any(), user.ID).Return(nil, nil)

	resp, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "password123",
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			assert.Equal(t, constant.FailureInvalidPassword, *a.FailureReason)
			return nil
		})
	f.users.EXPECT().IncrementFailedAttempts(gomock.Any(), user.ID).Return(2, nil)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "wrong-password",
	})

	var rejection *autherror.LoginRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, service.MsgInvalidCredentials, rejection.Message)
	require.NotNil(t, rejection.AttemptsRemaining)
	assert.Equal(t, 3, *rejection.AttemptsRemaining)
}

func TestAuthService_Login_FifthWrongPasswordLocks(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().IncrementFailedAttempts(gomock.Any(), user.ID).Return(5, nil)
	f.users.EXPECT().LockAccount(gomock.Any(), user.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, until time.Time) error {
			assert.WithinDuration(t, time.Now().Add(time.Hour), until, 5*time.Second)
			return nil
		})

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "wrong-password",
	})

	var rejection *autherror.LoginRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, service.MsgLockedTooManyAttempts, rejection.Message)
	assert.Nil(t, rejection.AttemptsRemaining)
}

func TestAuthService_Login_UnverifiedEmail(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	user.IsVerified = false

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			assert.Equal(t, constant.FailureEmailNotVerified, *a.FailureReason)
			return nil
		})

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "password123",
	})

	var rejection *autherror.LoginRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, service.MsgEmailNotVerified, rejection.Message)
}

func TestAuthService_Login_IncompleteProfileRedirect(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.tokens.EXPECT().IssueAccess(user.ID, user.Email, user.UserType, false).Return(testAccessResult(), nil)
	f.tokens.EXPECT().IssueRefresh(user.ID, "session-abc").Return(testRefreshResult(), nil)
	f.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.users.EXPECT().ResetFailedAttempts(gomock.Any(), user.ID).Return(nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().GetPatientByUserID(gomock.Any(), user.ID).Return(&domain.Patient{
		UserID:           user.ID,
		FirstName:        "Juan",
		LastName:         "Pérez",
		ProfileCompleted: false,
	}, nil)

	resp, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, constant.RedirectCompleteProfile, resp.RedirectURL)
}

func TestAuthService_Login_ParamedicNameFromEmail(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	user.Email = "test.paramedic@x.com"
	user.UserType = constant.UserTypeParamedic

	f.expectRateLimitPass()
	f.users.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
	f.tokens.EXPECT().IssueAccess(user.ID, user.Email, user.UserType, false).Return(testAccessResult(), nil)
	f.tokens.EXPECT().IssueRefresh(user.ID, "session-abc").Return(testRefreshResult(), nil)
	f.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.users.EXPECT().ResetFailedAttempts(gomock.Any(), user.ID).Return(nil)
	f.attempts.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    user.Email,
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "Test", resp.User.FirstName)
	assert.Equal(t, "Paramedic", resp.User.LastName)
}

func TestAuthService_Login_StoreUnavailable(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.attempts.EXPECT().CountFailuresByIP(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(0, errors.New("connection refused"))

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    "user@x.com",
		Password: "password123",
	})

	require.Error(t, err)
	var rejection *autherror.LoginRejection
	assert.False(t, errors.As(err, &rejection))
}

func registeredClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func refreshSession(rememberMe bool) *domain.Session {
	refresh := "old-refresh-token"
	refreshExp := time.Now().Add(6 * 24 * time.Hour)
	return &domain.Session{
		ID:               42,
		UserID:           "user-123",
		SessionToken:     "old-access-token",
		RefreshToken:     &refresh,
		ExpiresAt:        time.Now().Add(10 * time.Minute),
		RefreshExpiresAt: &refreshExp,
		IsActive:         true,
		RememberMe:       rememberMe,
	}
}

func refreshClaims() *service.JWTCustomClaims {
	return &service.JWTCustomClaims{
		RegisteredClaims: registeredClaims("user-123"),
		SessionID:        "session-abc",
		TokenType:        "refresh",
	}
}

func TestAuthService_Refresh_Success(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	session := refreshSession(false)

	f.tokens.EXPECT().VerifyRefresh("old-refresh-token").Return(refreshClaims(), nil)
	f.sessions.EXPECT().GetByRefreshToken(gomock.Any(), "old-refresh-token").Return(session, nil)
	f.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.tokens.EXPECT().IssueAccess(user.ID, user.Email, user.UserType, false).Return(&service.AccessTokenResult{
		Token:     "new-access-token",
		SessionID: "session-def",
		ExpiresAt: time.Now().Add(30 * time.Minute),
		ExpiresIn: 1800,
	}, nil)
	f.tokens.EXPECT().IssueRefresh(user.ID, "session-def").Return(&service.RefreshTokenResult{
		Token:     "new-refresh-token",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}, nil)
	// The same row rotates in place; no new session is created.
	f.sessions.EXPECT().Rotate(gomock.Any(), session.ID, "new-access-token", gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().GetPatientByUserID(gomock.Any(), user.ID).Return(nil, nil)

	resp, err := f.svc.Refresh(context.Background(), "old-refresh-token")

	require.NoError(t, err)
	assert.Equal(t, "new-access-token", resp.AccessToken)
	assert.Equal(t, "new-refresh-token", resp.RefreshToken)
}

func TestAuthService_Refresh_PreservesRememberMe(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	session := refreshSession(true)

	f.tokens.EXPECT().VerifyRefresh("old-refresh-token").Return(refreshClaims(), nil)
	f.sessions.EXPECT().GetByRefreshToken(gomock.Any(), "old-refresh-token").Return(session, nil)
	f.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.tokens.EXPECT().IssueAccess(user.ID, user.Email, user.UserType, true).Return(testAccessResult(), nil)
	f.tokens.EXPECT().IssueRefresh(user.ID, "session-abc").Return(testRefreshResult(), nil)
	f.sessions.EXPECT().Rotate(gomock.Any(), session.ID, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.users.EXPECT().GetPatientByUserID(gomock.Any(), user.ID).Return(nil, nil)

	_, err := f.svc.Refresh(context.Background(), "old-refresh-token")
	require.NoError(t, err)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().VerifyRefresh("bad-token").Return(nil, autherror.ErrInvalidToken)

	_, err := f.svc.Refresh(context.Background(), "bad-token")
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestAuthService_Refresh_MissingClaims(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().VerifyRefresh("token").Return(&service.JWTCustomClaims{TokenType: "refresh"}, nil)

	_, err := f.svc.Refresh(context.Background(), "token")
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestAuthService_Refresh_SessionRevoked(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().VerifyRefresh("old-refresh-token").Return(refreshClaims(), nil)
	f.sessions.EXPECT().GetByRefreshToken(gomock.Any(), "old-refresh-token").Return(nil, nil)

	_, err := f.svc.Refresh(context.Background(), "old-refresh-token")
	assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
}

func TestAuthService_Refresh_LockedAccountRevokesSession(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	lockedUntil := time.Now().Add(time.Hour)
	user.LockedUntil = &lockedUntil
	session := refreshSession(false)

	f.tokens.EXPECT().VerifyRefresh("old-refresh-token").Return(refreshClaims(), nil)
	f.sessions.EXPECT().GetByRefreshToken(gomock.Any(), "old-refresh-token").Return(session, nil)
	f.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), session.ID).Return(nil)

	_, err := f.svc.Refresh(context.Background(), "old-refresh-token")
	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
}

func accessClaims() *service.JWTCustomClaims {
	return &service.JWTCustomClaims{
		RegisteredClaims: registeredClaims("user-123"),
		SessionID:        "session-abc",
	}
}

func activeSession() *domain.Session {
	return &domain.Session{
		ID:           42,
		UserID:       "user-123",
		SessionToken: "access-token",
		ExpiresAt:    time.Now().Add(10 * time.Minute),
		IsActive:     true,
	}
}

func TestAuthService_Validate_Success(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(activeSession(), nil)
	f.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

	got, sessionID, err := f.svc.Validate(context.Background(), "access-token")

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "session-abc", sessionID)
}

func TestAuthService_Validate_SessionExpired(t *testing.T) {
	f := newAuthServiceFixture(t)
	session := activeSession()
	session.ExpiresAt = time.Now().Add(-time.Minute)

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(session, nil)

	_, _, err := f.svc.Validate(context.Background(), "access-token")
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestAuthService_Validate_LockedRevokesSession(t *testing.T) {
	f := newAuthServiceFixture(t)
	user := verifiedUser(t, "password123")
	lockedUntil := time.Now().Add(time.Hour)
	user.LockedUntil = &lockedUntil
	session := activeSession()

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(session, nil)
	f.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), session.ID).Return(nil)

	_, _, err := f.svc.Validate(context.Background(), "access-token")
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestAuthService_Validate_UnknownUser(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(activeSession(), nil)
	f.users.EXPECT().GetByID(gomock.Any(), "user-123").Return(nil, nil)

	_, _, err := f.svc.Validate(context.Background(), "access-token")
	assert.ErrorIs(t, err, autherror.ErrInvalidToken)
}

func TestAuthService_Logout_Success(t *testing.T) {
	f := newAuthServiceFixture(t)
	session := activeSession()

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(session, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), session.ID).Return(nil)

	msg := f.svc.Logout(context.Background(), "access-token", false)
	assert.Equal(t, service.MsgLogoutSuccess, msg)
}

func TestAuthService_Logout_All(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(activeSession(), nil)
	f.sessions.EXPECT().RevokeAll(gomock.Any(), "user-123").Return(nil)

	msg := f.svc.Logout(context.Background(), "access-token", true)
	assert.Equal(t, service.MsgLogoutAllSuccess, msg)
}

// Logout never fails: an invalid token and a stale token both come back as success.
func TestAuthService_Logout_IdempotentWithStaleToken(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().Verify("stale-token").Return(nil, autherror.ErrInvalidToken).Times(2)

	assert.Equal(t, service.MsgLogoutSuccess, f.svc.Logout(context.Background(), "stale-token", false))
	assert.Equal(t, service.MsgLogoutSuccess, f.svc.Logout(context.Background(), "stale-token", false))
}

func TestAuthService_Logout_SessionAlreadyRevoked(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().Verify("access-token").Return(accessClaims(), nil)
	f.sessions.EXPECT().GetByAccessToken(gomock.Any(), "access-token").Return(nil, nil)

	msg := f.svc.Logout(context.Background(), "access-token", false)
	assert.Equal(t, service.MsgLogoutSuccess, msg)
}

func TestAuthService_LogoutByRefreshToken(t *testing.T) {
	f := newAuthServiceFixture(t)
	session := refreshSession(false)

	f.tokens.EXPECT().VerifyRefresh("old-refresh-token").Return(refreshClaims(), nil)
	f.sessions.EXPECT().GetByRefreshToken(gomock.Any(), "old-refresh-token").Return(session, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), session.ID).Return(nil)

	msg := f.svc.LogoutByRefreshToken(context.Background(), "old-refresh-token")
	assert.Equal(t, service.MsgLogoutSuccess, msg)
}

func TestAuthService_LogoutByRefreshToken_Invalid(t *testing.T) {
	f := newAuthServiceFixture(t)

	f.tokens.EXPECT().VerifyRefresh("bad").Return(nil, autherror.ErrInvalidToken)

	msg := f.svc.LogoutByRefreshToken(context.Background(), "bad")
	assert.Equal(t, service.MsgLogoutSuccess, msg)
}
