package middleware

import (
	"context"
	"strings"

	"finelytics/internal/models"
	"finelytics/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	LocalUserID = "userID"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// UserResolver maps a verified identity to the local user, creating it on
// first sight.
type UserResolver interface {
	EnsureUser(ctx context.Context, externalID, email, name string) (*models.User, error)
}

func AuthMiddleware(jwtManager *auth.JWTManager, users UserResolver, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			logger.Warn("Missing authorization token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := users.EnsureUser(c.UserContext(), claims.Subject, claims.Email, claims.Name)
		if err != nil {
			logger.Error("Failed to resolve user", zap.String("subject", claims.Subject), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unknown user",
			})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalEmail, user.Email)
		c.Locals(LocalRole, claims.Role)

		return c.Next()
	}
}

// RequireRole rejects requests whose token does not carry role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if got, _ := c.Locals(LocalRole).(string); got != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// UserID returns the local user id stored by AuthMiddleware.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
