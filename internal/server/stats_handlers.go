package server

import "github.com/gofiber/fiber/v2"

func (s *Server) NovelRatingStats(c *fiber.Ctx) error {
	novelID, err := parseID(c, "novelId")
	if err != nil {
		return nil
	}
	stats, err := s.engagement.NovelRatingStats(c.UserContext(), novelID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(stats)
}

func (s *Server) CommentActivity(c *fiber.Ctx) error {
	activity, err := s.engagement.CommentActivity(c.UserContext(), c.QueryInt("days", 7))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(activity)
}

func (s *Server) MostReportedContent(c *fiber.Ctx) error {
	items, err := s.engagement.MostReportedContent(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(items)
}

func (s *Server) ReportStatusCounts(c *fiber.Ctx) error {
	counts, err := s.engagement.ReportStatusCounts(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(counts)
}

// ModerationDashboard bundles report counts, top reported content and recent
// comment activity for admins.
func (s *Server) ModerationDashboard(c *fiber.Ctx) error {
	dash, err := s.engagement.ModerationDashboard(c.UserContext(), c.QueryInt("days", 7), c.QueryInt("limit", 10))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dash)
}
