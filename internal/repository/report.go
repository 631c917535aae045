package repository

import (
	"context"

	"engagement/internal/models"
	"engagement/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepository defines interface for report operations
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// ExistsActive reports whether reporter already has an IN_REVIEW report on the target.
	ExistsActive(ctx context.Context, reporterID uuid.UUID, contentType models.ReportContentType, contentID uint) (bool, error)
	Search(ctx context.Context, filter models.ReportFilter) ([]models.Report, int64, error)
	// Resolve moves an IN_REVIEW report to a terminal state. It touches no row
	// when the report is missing or already terminal.
	Resolve(ctx context.Context, id uint, resolution models.Resolution) (int64, error)
	BatchDelete(ctx context.Context, ids []uint) (int64, error)
	MostReported(ctx context.Context, limit int) ([]models.ReportedContent, error)
	CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) model(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Report{})
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	defer observability.TrackQuery("insert", "reports")()
	return translate(r.db.WithContext(ctx).Create(report).Error)
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	defer observability.TrackQuery("select", "reports")()
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	defer observability.TrackQuery("select", "reports")()
	var report models.Report
	if err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) Exists(ctx context.Context, id uint) (bool, error) {
	defer observability.TrackQuery("count", "reports")()
	var n int64
	err := r.model(ctx).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *reportRepository) ExistsActive(ctx context.Context, reporterID uuid.UUID, contentType models.ReportContentType, contentID uint) (bool, error) {
	defer observability.TrackQuery("count", "reports")()
	var n int64
	err := r.model(ctx).
		Where("reporter_id = ? AND content_type = ? AND content_id = ? AND status = ?",
			reporterID, contentType, contentID, models.ReportStatusInReview).
		Count(&n).Error
	return n > 0, err
}

func (r *reportRepository) Search(ctx context.Context, filter models.ReportFilter) ([]models.Report, int64, error) {
	defer observability.TrackQuery("search", "reports")()
	q := r.model(ctx)
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.ReporterID != nil {
		q = q.Where("reporter_id = ?", *filter.ReporterID)
	}
	if filter.ContentType != nil {
		q = q.Where("content_type = ?", *filter.ContentType)
	}
	if filter.ContentID != nil {
		q = q.Where("content_id = ?", *filter.ContentID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	q = containsKeyword(q, "reason", filter.Keyword)
	return findPage[models.Report](q, filter.PageRequest)
}

func (r *reportRepository) Resolve(ctx context.Context, id uint, resolution models.Resolution) (int64, error) {
	defer observability.TrackQuery("update", "reports")()
	res := r.model(ctx).
		Where("id = ? AND status = ?", id, models.ReportStatusInReview).
		Updates(map[string]any{
			"status":      resolution.Action,
			"admin_notes": resolution.AdminNotes,
			"resolved_by": resolution.ResolvedBy,
		})
	return res.RowsAffected, res.Error
}

func (r *reportRepository) BatchDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.TrackQuery("delete", "reports")()
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Report{})
	return res.RowsAffected, res.Error
}

func (r *reportRepository) MostReported(ctx context.Context, limit int) ([]models.ReportedContent, error) {
	defer observability.TrackQuery("aggregate", "reports")()
	rows := make([]models.ReportedContent, 0, limit)
	err := r.model(ctx).
		Select("content_type, content_id, COUNT(*) AS report_count").
		Group("content_type, content_id").
		Order("report_count DESC").Order("content_id").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepository) CountByStatus(ctx context.Context) (map[models.ReportStatus]int64, error) {
	defer observability.TrackQuery("aggregate", "reports")()
	var rows []struct {
		Status models.ReportStatus
		Count  int64
	}
	if err := r.model(ctx).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := map[models.ReportStatus]int64{
		models.ReportStatusInReview:  0,
		models.ReportStatusResolved:  0,
		models.ReportStatusDismissed: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
