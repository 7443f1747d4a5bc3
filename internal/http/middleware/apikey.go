package middleware

import (
	"strings"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"brightholme/internal/settings"
)

// DashboardAPIKeyAuth validates the API key for the admin endpoints.
// Expects: Authorization: Bearer <api_key>. The stored value is a bcrypt
// hash, so comparison is constant-time by construction.
func DashboardAPIKeyAuth(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid Authorization header format. Expected: Bearer <api_key>",
			})
		}

		providedKey := strings.TrimPrefix(authHeader, "Bearer ")
		if providedKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key is empty",
			})
		}

		if !settings.VerifyDashboardAPIKey(db, providedKey) {
			logger.Warn("Rejected admin request with invalid API key", slog.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		return c.Next()
	}
}
