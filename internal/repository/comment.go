package repository

import (
	"context"
	"time"

	"engagement/internal/models"
	"engagement/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Comment, error)
	ListByChapter(ctx context.Context, chapterID uint, page models.PageRequest) ([]models.Comment, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page models.PageRequest) ([]models.Comment, int64, error)
	Search(ctx context.Context, filter models.CommentFilter) ([]models.Comment, int64, error)
	Update(ctx context.Context, id uint, changes models.CommentChanges) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
	BatchDelete(ctx context.Context, ids []uint) (int64, error)
	BatchUpdateSpoiler(ctx context.Context, ids []uint, spoiler bool) (int64, error)
	ListRecent(ctx context.Context, hours, limit int) ([]models.Comment, error)
	ListPopular(ctx context.Context, threshold int64, limit int) ([]models.Comment, error)
	SearchKeyword(ctx context.Context, keyword string, limit int) ([]models.Comment, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	MostActiveUser(ctx context.Context, since time.Time) (*models.UserActivity, error)
	MostCommentedChapter(ctx context.Context, since time.Time) (*models.ChapterActivity, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) model(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Comment{})
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", "comments")()
	return translate(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Comment, error) {
	comments := make([]models.Comment, 0, len(ids))
	if len(ids) == 0 {
		return comments, nil
	}
	defer observability.TrackQuery("select", "comments")()
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListByChapter(ctx context.Context, chapterID uint, page models.PageRequest) ([]models.Comment, int64, error) {
	return r.Search(ctx, models.CommentFilter{ChapterID: &chapterID, PageRequest: page})
}

func (r *commentRepository) ListByUser(ctx context.Context, userID uuid.UUID, page models.PageRequest) ([]models.Comment, int64, error) {
	return r.Search(ctx, models.CommentFilter{UserID: &userID, PageRequest: page})
}

func (r *commentRepository) Search(ctx context.Context, filter models.CommentFilter) ([]models.Comment, int64, error) {
	defer observability.TrackQuery("search", "comments")()
	q := r.model(ctx)
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.ChapterID != nil {
		q = q.Where("chapter_id = ?", *filter.ChapterID)
	}
	if filter.IsSpoiler != nil {
		q = q.Where("is_spoiler = ?", *filter.IsSpoiler)
	}
	q = containsKeyword(q, "content", filter.Keyword)
	return findPage[models.Comment](q, filter.PageRequest)
}

func (r *commentRepository) Update(ctx context.Context, id uint, changes models.CommentChanges) (int64, error) {
	defer observability.TrackQuery("update", "comments")()
	res := r.model(ctx).Where("id = ?", id).Updates(changes.Columns())
	return res.RowsAffected, res.Error
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (int64, error) {
	defer observability.TrackQuery("delete", "comments")()
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	return res.RowsAffected, res.Error
}

func (r *commentRepository) BatchDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.TrackQuery("delete", "comments")()
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

func (r *commentRepository) BatchUpdateSpoiler(ctx context.Context, ids []uint, spoiler bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.TrackQuery("update", "comments")()
	res := r.model(ctx).Where("id IN ?", ids).Update("is_spoiler", spoiler)
	return res.RowsAffected, res.Error
}

func (r *commentRepository) ListRecent(ctx context.Context, hours, limit int) ([]models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", hoursAgo(hours)).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListPopular(ctx context.Context, threshold int64, limit int) ([]models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("like_cnt >= ?", threshold).
		Order("like_cnt DESC").Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) SearchKeyword(ctx context.Context, keyword string, limit int) ([]models.Comment, error) {
	defer observability.TrackQuery("search", "comments")()
	var comments []models.Comment
	err := containsKeyword(r.model(ctx), "content", keyword).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	defer observability.TrackQuery("count", "comments")()
	var n int64
	err := r.model(ctx).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *commentRepository) MostActiveUser(ctx context.Context, since time.Time) (*models.UserActivity, error) {
	defer observability.TrackQuery("aggregate", "comments")()
	var rows []models.UserActivity
	err := r.model(ctx).
		Select("user_id, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("user_id").
		Order("count DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *commentRepository) MostCommentedChapter(ctx context.Context, since time.Time) (*models.ChapterActivity, error) {
	defer observability.TrackQuery("aggregate", "comments")()
	var rows []models.ChapterActivity
	err := r.model(ctx).
		Select("chapter_id, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("chapter_id").
		Order("count DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
