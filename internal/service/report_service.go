package service

import (
	"context"
	"errors"
	"log/slog"

	"engagement/internal/cache"
	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/repository"
	"engagement/internal/validation"

	"github.com/google/uuid"
)

// ReportService runs the moderation state machine:
//
//	IN_REVIEW -> RESOLVED | DISMISSED
//
// Terminal states are final. Transitions are conditional updates, so two
// moderators racing on one report cannot both win.
type ReportService struct {
	reports repository.ReportRepository
	cache   *cache.Coordinator
	logger  *slog.Logger
}

type CreateReportInput struct {
	ReporterID  uuid.UUID                `validate:"required" field:"reporter_id"`
	ContentType models.ReportContentType `validate:"required,oneof=NOVEL CHAPTER COMMENT REVIEW USER" field:"content_type"`
	ContentID   uint                     `validate:"required" field:"content_id"`
	ReportType  models.ReportType        `validate:"required,oneof=SPAM HARASSMENT SPOILER INAPPROPRIATE COPYRIGHT OTHER" field:"report_type"`
	Reason      string                   `validate:"max=1000" field:"reason"`
}

type ResolveReportInput struct {
	Action     models.ReportStatus `validate:"required,oneof=RESOLVED DISMISSED" field:"action"`
	AdminNotes string              `validate:"notblank,max=1000" field:"admin_notes"`
}

func NewReportService(reports repository.ReportRepository, coordinator *cache.Coordinator) *ReportService {
	return &ReportService{
		reports: reports,
		cache:   coordinator,
		logger:  observability.Component("reports"),
	}
}

var errDuplicateReport = models.NewConflictError("You already have an open report on this content")

func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (_ *models.Report, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "reports", "CreateReport")
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	active, err := s.reports.ExistsActive(ctx, in.ReporterID, in.ContentType, in.ContentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if active {
		return nil, errDuplicateReport
	}

	report := &models.Report{
		ReporterID:  in.ReporterID,
		ContentType: in.ContentType,
		ContentID:   in.ContentID,
		ReportType:  in.ReportType,
		Reason:      in.Reason,
		Status:      models.ReportStatusInReview,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateReport
		}
		return nil, models.NewInternalError(err)
	}

	s.cache.InvalidateReportStats(ctx)
	s.logger.InfoContext(ctx, "report created",
		slog.Uint64("report_id", uint64(report.ID)),
		slog.String("content_type", string(report.ContentType)),
		slog.Uint64("content_id", uint64(report.ContentID)),
	)
	return report, nil
}

// ResolveReport applies a moderator decision to an IN_REVIEW report. A report
// that is already terminal yields CONFLICT and keeps its first resolution.
func (s *ReportService) ResolveReport(ctx context.Context, caller Caller, id uint, in ResolveReportInput) (_ *models.Report, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "reports", "ResolveReport")
	defer func() { observability.EndSpan(span, err) }()

	if !caller.Admin {
		return nil, models.NewUnauthorizedError("Only administrators can resolve reports")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !models.ReportStatusInReview.CanTransitionTo(in.Action) {
		return nil, models.NewValidationError("action must be RESOLVED or DISMISSED")
	}

	n, err := s.reports.Resolve(ctx, id, models.Resolution{
		Action:     in.Action,
		AdminNotes: in.AdminNotes,
		ResolvedBy: caller.UserID,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if n == 0 {
		exists, err := s.reports.Exists(ctx, id)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if !exists {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewConflictError("Report has already been resolved")
	}

	s.cache.InvalidateReportStats(ctx)
	s.logger.InfoContext(ctx, "report resolved",
		slog.Uint64("report_id", uint64(id)),
		slog.String("status", string(in.Action)),
	)
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Report", id)
	}
	return report, nil
}

func (s *ReportService) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Report", id)
	}
	return report, nil
}

func (s *ReportService) GetReportByUUID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.reports.GetByUUID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Report", id)
	}
	return report, nil
}

func (s *ReportService) ListReports(ctx context.Context, filter models.ReportFilter) (models.Page[models.Report], error) {
	filter.PageRequest = filter.PageRequest.Normalize()
	if err := filter.PageRequest.Validate(models.SortByCreateTime); err != nil {
		return models.Page[models.Report]{}, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return models.Page[models.Report]{}, models.NewValidationError("unknown report status")
	}
	if filter.ContentType != nil && !filter.ContentType.Valid() {
		return models.Page[models.Report]{}, models.NewValidationError("unknown content type")
	}
	items, total, err := s.reports.Search(ctx, filter)
	if err != nil {
		return models.Page[models.Report]{}, models.NewInternalError(err)
	}
	return models.NewPage(items, total, filter.PageRequest), nil
}

func (s *ReportService) BatchDeleteReports(ctx context.Context, caller Caller, ids []uint) (int64, error) {
	if !caller.Admin {
		return 0, models.NewUnauthorizedError("Only administrators can delete reports")
	}
	if err := validateBatch(ids); err != nil {
		return 0, err
	}
	n, err := s.reports.BatchDelete(ctx, ids)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	s.cache.InvalidateReportStats(ctx)
	return n, nil
}
