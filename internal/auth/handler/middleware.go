package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jsricop/vitalgo-co/internal/auth/domain"
	"github.com/jsricop/vitalgo-co/internal/auth/dto"
)

const (
	localUserKey      = "currentUser"
	localSessionIDKey = "sessionID"

	msgUnauthorized = "No autorizado"
)

// RequireAuth resolves the bearer token into a verified user and stores it in
// the request locals. Every failure answers the same 401 body so the middleware
// never reveals which check rejected the request.
func (h *AuthHandler) RequireAuth(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return unauthorized(c)
	}

	user, sessionID, err := h.authService.Validate(c.Context(), token)
	if err != nil {
		return unauthorized(c)
	}

	c.Locals(localUserKey, user)
	c.Locals(localSessionIDKey, sessionID)

	return c.Next()
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.LoginErrorResponse{
		Success: false,
		Message: msgUnauthorized,
	})
}

func currentUser(c *fiber.Ctx) *domain.User {
	user, ok := c.Locals(localUserKey).(*domain.User)
	if !ok {
		return nil
	}

	return user
}
