package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"engagement/internal/middleware"
	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respond writes err with the status its AppError code maps to.
func respond(c *fiber.Ctx, err error) error {
	status := models.StatusForError(err)
	if status == fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

func badRequest(c *fiber.Ctx, message string) error {
	_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
	return errResponseWritten
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, badRequest(c, "Invalid "+humanizeParam(param))
	}
	return uint(id), nil
}

func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, badRequest(c, "Invalid "+humanizeParam(param))
	}
	return id, nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "chapterId" -> "chapter ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parsePageRequest reads page, size, sort and order. Range checks are left
// to the services.
func parsePageRequest(c *fiber.Ctx) models.PageRequest {
	return models.PageRequest{
		Page:  c.QueryInt("page", 0),
		Size:  c.QueryInt("size", 0),
		Sort:  models.SortField(c.Query("sort")),
		Order: models.SortOrder(c.Query("order")),
	}
}

// Optional query filters. A malformed value writes a 400.

func queryUint(c *fiber.Ctx, key string) (*uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || v == 0 {
		return nil, badRequest(c, "Invalid "+key)
	}
	u := uint(v)
	return &u, nil
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badRequest(c, "Invalid "+key)
	}
	return &id, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest(c, "Invalid "+key)
	}
	return &v, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, badRequest(c, "Invalid "+key)
	}
	return &v, nil
}

// queryIDs parses a comma separated id list.
func queryIDs(c *fiber.Ctx, key string) ([]uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err != nil || v == 0 {
			return nil, badRequest(c, "Invalid "+key)
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

// caller returns the identity set by middleware.Identity. Routes using it
// sit behind middleware.UserRequired.
func caller(c *fiber.Ctx) service.Caller {
	id, _ := middleware.CurrentUser(c)
	return service.Caller{UserID: id, Admin: middleware.IsAdmin(c)}
}

func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return nil
}

type idsRequest struct {
	IDs []uint `json:"ids"`
}
