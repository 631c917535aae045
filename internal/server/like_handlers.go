package server

import (
	"engagement/internal/models"

	"github.com/gofiber/fiber/v2"
)

// likeTarget reads /:type/:id. Type checks are left to the vote service.
func likeTarget(c *fiber.Ctx) (models.EntityType, uint, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return "", 0, err
	}
	return models.EntityType(c.Params("type")), id, nil
}

// Like records the caller's like. Repeating it is a no-op.
func (s *Server) Like(c *fiber.Ctx) error {
	t, id, err := likeTarget(c)
	if err != nil {
		return nil
	}
	state, err := s.votes.Like(c.UserContext(), caller(c).UserID, t, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(state)
}

func (s *Server) Unlike(c *fiber.Ctx) error {
	t, id, err := likeTarget(c)
	if err != nil {
		return nil
	}
	state, err := s.votes.Unlike(c.UserContext(), caller(c).UserID, t, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(state)
}

func (s *Server) HasLiked(c *fiber.Ctx) error {
	t, id, err := likeTarget(c)
	if err != nil {
		return nil
	}
	liked, err := s.votes.HasLiked(c.UserContext(), caller(c).UserID, t, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"entity_type": t, "entity_id": id, "liked": liked})
}

func (s *Server) LikeCount(c *fiber.Ctx) error {
	t, id, err := likeTarget(c)
	if err != nil {
		return nil
	}
	n, err := s.engagement.LikeCount(c.UserContext(), t, id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"entity_type": t, "entity_id": id, "like_count": n})
}
