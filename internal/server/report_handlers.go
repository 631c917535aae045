package server

import (
	"engagement/internal/models"
	"engagement/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReportRequest struct {
	ContentType models.ReportContentType `json:"content_type"`
	ContentID   uint                     `json:"content_id"`
	ReportType  models.ReportType        `json:"report_type"`
	Reason      string                   `json:"reason"`
}

type resolveReportRequest struct {
	Action     models.ReportStatus `json:"action"`
	AdminNotes string              `json:"admin_notes"`
}

// CreateReport files an abuse report. One open report per reporter and target.
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req createReportRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	report, err := s.reports.CreateReport(c.UserContext(), service.CreateReportInput{
		ReporterID:  caller(c).UserID,
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		ReportType:  req.ReportType,
		Reason:      req.Reason,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ResolveReport moves an IN_REVIEW report to RESOLVED or DISMISSED (admin).
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req resolveReportRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	report, err := s.reports.ResolveReport(c.UserContext(), caller(c), id, service.ResolveReportInput{
		Action:     req.Action,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(report)
}

func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	report, err := s.reports.GetReport(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(report)
}

func (s *Server) GetReportByUUID(c *fiber.Ctx) error {
	id, err := parseUUID(c, "uuid")
	if err != nil {
		return nil
	}
	report, err := s.reports.GetReportByUUID(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(report)
}

// ListReports searches reports by status, content, reporter and keyword.
func (s *Server) ListReports(c *fiber.Ctx) error {
	filter := models.ReportFilter{Keyword: c.Query("keyword"), PageRequest: parsePageRequest(c)}
	var err error
	if filter.IDs, err = queryIDs(c, "ids"); err != nil {
		return nil
	}
	if filter.ReporterID, err = queryUUID(c, "reporter_id"); err != nil {
		return nil
	}
	if filter.ContentID, err = queryUint(c, "content_id"); err != nil {
		return nil
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ReportStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("content_type"); raw != "" {
		contentType := models.ReportContentType(raw)
		filter.ContentType = &contentType
	}
	page, err := s.reports.ListReports(c.UserContext(), filter)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

func (s *Server) BatchDeleteReports(c *fiber.Ctx) error {
	var req idsRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	n, err := s.reports.BatchDeleteReports(c.UserContext(), caller(c), req.IDs)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}
