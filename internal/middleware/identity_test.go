package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"engagement/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	app := fiber.New()
	app.Use(Identity())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok := CurrentUser(c)
		return c.JSON(fiber.Map{"user": id.String(), "known": ok, "admin": IsAdmin(c)})
	})
	app.Get("/private", UserRequired(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/admin", UserRequired(), AdminRequired(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	user := uuid.New()

	tests := []struct {
		name   string
		path   string
		userID string
		role   string
		status int
	}{
		{"anonymous read", "/whoami", "", "", http.StatusOK},
		{"malformed user header", "/whoami", "not-a-uuid", "", http.StatusUnauthorized},
		{"nil uuid", "/whoami", uuid.Nil.String(), "", http.StatusUnauthorized},
		{"anonymous private", "/private", "", "", http.StatusUnauthorized},
		{"user private", "/private", user.String(), "", http.StatusNoContent},
		{"user on admin route", "/admin", user.String(), "reader", http.StatusForbidden},
		{"admin role is case-insensitive", "/admin", user.String(), "Admin", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == http.StatusUnauthorized || tt.status == http.StatusForbidden {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeUnauthorized, body.Code)
			}
		})
	}

	t.Run("caller is exposed to handlers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderUserID, user.String())
		req.Header.Set(HeaderUserRole, RoleAdmin)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, user.String(), body["user"])
		assert.Equal(t, true, body["known"])
		assert.Equal(t, true, body["admin"])
	})
}
