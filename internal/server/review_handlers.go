package server

import (
	"engagement/internal/models"
	"engagement/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReviewRequest struct {
	NovelID uint   `json:"novel_id"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Content *string `json:"content"`
}

// CreateReview rates a novel. A second review of the same novel is a 409.
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var req createReviewRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	created, err := s.reviews.CreateReview(c.UserContext(), service.CreateReviewInput{
		UserID:  caller(c).UserID,
		NovelID: req.NovelID,
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) GetReview(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	review, err := s.reviews.GetReview(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(review)
}

func (s *Server) GetReviewByUUID(c *fiber.Ctx) error {
	id, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	review, err := s.reviews.GetReviewByUUID(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(review)
}

func (s *Server) GetUserNovelReview(c *fiber.Ctx) error {
	userID, err := parseUUID(c, "userId")
	if err != nil {
		return nil
	}
	novelID, err := parseID(c, "novelId")
	if err != nil {
		return nil
	}
	review, err := s.reviews.GetUserNovelReview(c.UserContext(), userID, novelID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(review)
}

func (s *Server) UpdateReview(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateReviewRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	updated, err := s.reviews.UpdateReview(c.UserContext(), caller(c), id, service.UpdateReviewInput{
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(updated)
}

func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.reviews.DeleteReview(c.UserContext(), caller(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) ListNovelReviews(c *fiber.Ctx) error {
	novelID, err := parseID(c, "novelId")
	if err != nil {
		return nil
	}
	page, err := s.reviews.ListNovelReviews(c.UserContext(), novelID, parsePageRequest(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

func (s *Server) ListUserReviews(c *fiber.Ctx) error {
	userID, err := parseUUID(c, "userId")
	if err != nil {
		return nil
	}
	page, err := s.reviews.ListUserReviews(c.UserContext(), userID, parsePageRequest(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

func (s *Server) SearchReviews(c *fiber.Ctx) error {
	filter := models.ReviewFilter{Keyword: c.Query("keyword"), PageRequest: parsePageRequest(c)}
	var err error
	if filter.IDs, err = queryIDs(c, "ids"); err != nil {
		return nil
	}
	if filter.UserID, err = queryUUID(c, "user_id"); err != nil {
		return nil
	}
	if filter.NovelID, err = queryUint(c, "novel_id"); err != nil {
		return nil
	}
	if filter.MinRating, err = queryInt(c, "min_rating"); err != nil {
		return nil
	}
	page, err := s.reviews.SearchReviews(c.UserContext(), filter)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}
