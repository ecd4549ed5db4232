package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jsricop/vitalgo-co/internal/auth/dto"
	"github.com/jsricop/vitalgo-co/internal/auth/service"
	autherror "github.com/jsricop/vitalgo-co/internal/errors"
)

const (
	msgInvalidInput   = "Datos de entrada inválidos"
	msgInternalError  = "Error interno del servidor"
	msgInvalidRefresh = "Token de refresco inválido o expirado"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// clientIP prefers the proxy-relayed address chain over the socket peer.
func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if real := c.Get("X-Real-IP"); real != "" {
		return real
	}

	return c.IP()
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header,
// returning "" when the header is absent or malformed.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.LoginErrorResponse{
			Success: false,
			Message: msgInvalidInput,
		})
	}

	input.IPAddress = clientIP(c)
	input.UserAgent = string(c.Request().Header.UserAgent())

	resp, err := h.authService.Login(c.Context(), input)
	if err != nil {
		var rateErr *autherror.RateLimitError
		if errors.As(err, &rateErr) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.LoginErrorResponse{
				Success: false,
				Message: rateErr.Message,
			})
		}

		var rejection *autherror.LoginRejection
		if errors.As(err, &rejection) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.LoginErrorResponse{
				Success:           false,
				Message:           rejection.Message,
				AttemptsRemaining: rejection.AttemptsRemaining,
			})
		}

		h.log.Error("login failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.LoginErrorResponse{
			Success: false,
			Message: msgInternalError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.LoginErrorResponse{
			Success: false,
			Message: msgInvalidInput,
		})
	}

	resp, err := h.authService.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, autherror.ErrAccountLocked):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.LoginErrorResponse{
				Success: false,
				Message: service.MsgAccountLocked,
			})
		case errors.Is(err, autherror.ErrInvalidToken),
			errors.Is(err, autherror.ErrSessionNotFound),
			errors.Is(err, autherror.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.LoginErrorResponse{
				Success: false,
				Message: msgInvalidRefresh,
			})
		}

		h.log.Error("refresh failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.LoginErrorResponse{
			Success: false,
			Message: msgInternalError,
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Logout always answers 200. The access token comes from the Authorization
// header; a body with refresh_token serves clients that already dropped the
// access token. ?logout_all=true revokes every session of the user.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	logoutAll := c.Query("logout_all") == "true"

	if token := bearerToken(c); token != "" {
		msg := h.authService.Logout(c.Context(), token, logoutAll)

		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": msg})
	}

	var input dto.RefreshInput
	if err := c.BodyParser(&input); err == nil && input.RefreshToken != "" {
		msg := h.authService.LogoutByRefreshToken(c.Context(), input.RefreshToken)

		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": msg})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": service.MsgLogoutSuccess})
}

// Validate reports token validity without gating the response code: a bad token
// yields 200 with valid=false so probes cannot distinguish transport failures.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"valid": false})
	}

	user, sessionID, err := h.authService.Validate(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"valid": false})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid":      true,
		"user_id":    user.ID,
		"email":      user.Email,
		"user_type":  user.UserType,
		"session_id": sessionID,
	})
}

// Me returns the identity summary of the authenticated caller. RequireAuth must
// run first; it stores the resolved user in the request locals.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.LoginErrorResponse{
			Success: false,
			Message: msgUnauthorized,
		})
	}

	out, redirectURL := h.authService.Profile(c.Context(), user)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":      true,
		"user":         out,
		"redirect_url": redirectURL,
	})
}
