package server

import (
	"engagement/internal/models"
	"engagement/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	ChapterID uint   `json:"chapter_id"`
	Content   string `json:"content"`
	IsSpoiler bool   `json:"is_spoiler"`
}

type updateCommentRequest struct {
	Content   *string `json:"content"`
	IsSpoiler *bool   `json:"is_spoiler"`
}

type spoilerBatchRequest struct {
	IDs       []uint `json:"ids"`
	IsSpoiler bool   `json:"is_spoiler"`
}

// CreateComment posts a comment on a chapter as the caller.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	created, err := s.comments.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:    caller(c).UserID,
		ChapterID: req.ChapterID,
		Content:   req.Content,
		IsSpoiler: req.IsSpoiler,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.comments.GetComment(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comment)
}

// UpdateComment changes content or spoiler flag (only owner).
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	updated, err := s.comments.UpdateComment(c.UserContext(), caller(c), id, service.UpdateCommentInput{
		Content:   req.Content,
		IsSpoiler: req.IsSpoiler,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(updated)
}

// DeleteComment removes a comment (owner or admin).
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comments.DeleteComment(c.UserContext(), caller(c), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) ListChapterComments(c *fiber.Ctx) error {
	chapterID, err := parseID(c, "chapterId")
	if err != nil {
		return nil
	}
	page, err := s.comments.ListChapterComments(c.UserContext(), chapterID, parsePageRequest(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

func (s *Server) ListUserComments(c *fiber.Ctx) error {
	userID, err := parseUUID(c, "userId")
	if err != nil {
		return nil
	}
	page, err := s.comments.ListUserComments(c.UserContext(), userID, parsePageRequest(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// SearchComments filters by ids, user_id, chapter_id, is_spoiler and keyword.
func (s *Server) SearchComments(c *fiber.Ctx) error {
	filter := models.CommentFilter{Keyword: c.Query("keyword"), PageRequest: parsePageRequest(c)}
	var err error
	if filter.IDs, err = queryIDs(c, "ids"); err != nil {
		return nil
	}
	if filter.UserID, err = queryUUID(c, "user_id"); err != nil {
		return nil
	}
	if filter.ChapterID, err = queryUint(c, "chapter_id"); err != nil {
		return nil
	}
	if filter.IsSpoiler, err = queryBool(c, "is_spoiler"); err != nil {
		return nil
	}
	page, err := s.comments.SearchComments(c.UserContext(), filter)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

func (s *Server) BatchDeleteComments(c *fiber.Ctx) error {
	var req idsRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	n, err := s.comments.BatchDeleteComments(c.UserContext(), caller(c), req.IDs)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}

func (s *Server) BatchUpdateSpoiler(c *fiber.Ctx) error {
	var req spoilerBatchRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	n, err := s.comments.BatchUpdateSpoilerStatus(c.UserContext(), caller(c), req.IDs, req.IsSpoiler)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (s *Server) RecentComments(c *fiber.Ctx) error {
	items, err := s.comments.RecentComments(c.UserContext(), c.QueryInt("hours", 24), c.QueryInt("limit", 20))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(items)
}

func (s *Server) PopularComments(c *fiber.Ctx) error {
	items, err := s.comments.PopularComments(c.UserContext(), int64(c.QueryInt("threshold", 10)), c.QueryInt("limit", 20))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(items)
}

func (s *Server) KeywordComments(c *fiber.Ctx) error {
	items, err := s.comments.KeywordComments(c.UserContext(), c.Query("q"), c.QueryInt("limit", 20))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(items)
}
