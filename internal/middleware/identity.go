package middleware

import (
	"strings"

	"engagement/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Gateway headers carrying the already-authenticated caller.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Fiber locals set by Identity.
const (
	LocalUserID  = "userID"
	LocalIsAdmin = "isAdmin"
)

// RoleAdmin is the X-User-Role value that grants moderation rights.
const RoleAdmin = "admin"

// Identity reads the caller from the gateway headers. Requests without a
// user header pass through anonymously; a malformed one is rejected.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(HeaderUserID))
		if raw == "" {
			return c.Next()
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid "+HeaderUserID+" header"))
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalIsAdmin, strings.EqualFold(strings.TrimSpace(c.Get(HeaderUserRole)), RoleAdmin))
		return c.Next()
	}
}

// UserRequired rejects anonymous requests. It must run after Identity.
func UserRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		return c.Next()
	}
}

// AdminRequired rejects callers without the admin role with 403.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Admin access required"))
		}
		return c.Next()
	}
}

// CurrentUser returns the caller set by Identity.
func CurrentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalUserID).(uuid.UUID)
	return id, ok
}

func IsAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals(LocalIsAdmin).(bool)
	return admin
}
