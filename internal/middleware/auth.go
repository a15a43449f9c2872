package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/auth"
	"github.com/podcastr/api/pkg/response"
)

const (
	localUserID = "userId"
	localEmail  = "email"
	localName   = "name"
)

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	verifier auth.TokenVerifier
}

func NewAuthMiddleware(verifier auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate validates the bearer token from the Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err == auth.ErrMissingToken {
			return response.Unauthorized(c, "Missing authorization header")
		}
		if err != nil {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		id, err := m.verifier.Validate(tokenString)
		if err == auth.ErrNotConfigured {
			return response.Unauthorized(c, "Authentication not configured")
		}
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		setIdentity(c, id)
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, id *auth.Identity) {
	c.Locals(localUserID, id.UserID)
	c.Locals(localEmail, id.Email)
	c.Locals(localName, id.Name)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(localUserID).(string); ok {
		return userID
	}
	return ""
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals(localEmail).(string); ok {
		return email
	}
	return ""
}
