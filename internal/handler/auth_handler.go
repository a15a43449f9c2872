package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/auth"
	"github.com/podcastr/api/internal/middleware"
)

// AuthHandler answers ForwardAuth checks from the API gateway
type AuthHandler struct {
	verifier auth.TokenVerifier
}

func NewAuthHandler(verifier auth.TokenVerifier) *AuthHandler {
	return &AuthHandler{verifier: verifier}
}

// Verify handles GET /auth/verify.
// Returns 200 with X-User-* headers on success, 401 on failure.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	tokenString, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	id, err := h.verifier.Validate(tokenString)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set(middleware.HeaderUserID, id.UserID)
	c.Set(middleware.HeaderUserEmail, id.Email)
	if id.Name != "" {
		c.Set(middleware.HeaderUserName, id.Name)
	}
	return c.SendStatus(fiber.StatusOK)
}
