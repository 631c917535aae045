package repository

import (
	"context"

	"engagement/internal/models"
	"engagement/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewRepository defines interface for review operations
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	GetByUserAndNovel(ctx context.Context, userID uuid.UUID, novelID uint) (*models.Review, error)
	ExistsByUserAndNovel(ctx context.Context, userID uuid.UUID, novelID uint) (bool, error)
	ListByNovel(ctx context.Context, novelID uint, page models.PageRequest) ([]models.Review, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page models.PageRequest) ([]models.Review, int64, error)
	Search(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int64, error)
	Update(ctx context.Context, id uint, changes models.ReviewChanges) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
	// RatingCounts returns the number of reviews per star level of a novel.
	RatingCounts(ctx context.Context, novelID uint) (map[int]int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) model(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Review{})
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	defer observability.TrackQuery("insert", "reviews")()
	return translate(r.db.WithContext(ctx).Create(review).Error)
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	defer observability.TrackQuery("select", "reviews")()
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	defer observability.TrackQuery("select", "reviews")()
	var review models.Review
	if err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByUserAndNovel(ctx context.Context, userID uuid.UUID, novelID uint) (*models.Review, error) {
	defer observability.TrackQuery("select", "reviews")()
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND novel_id = ?", userID, novelID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ExistsByUserAndNovel(ctx context.Context, userID uuid.UUID, novelID uint) (bool, error) {
	defer observability.TrackQuery("count", "reviews")()
	var n int64
	err := r.model(ctx).Where("user_id = ? AND novel_id = ?", userID, novelID).Count(&n).Error
	return n > 0, err
}

func (r *reviewRepository) ListByNovel(ctx context.Context, novelID uint, page models.PageRequest) ([]models.Review, int64, error) {
	return r.Search(ctx, models.ReviewFilter{NovelID: &novelID, PageRequest: page})
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, page models.PageRequest) ([]models.Review, int64, error) {
	return r.Search(ctx, models.ReviewFilter{UserID: &userID, PageRequest: page})
}

func (r *reviewRepository) Search(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int64, error) {
	defer observability.TrackQuery("search", "reviews")()
	q := r.model(ctx)
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.NovelID != nil {
		q = q.Where("novel_id = ?", *filter.NovelID)
	}
	if filter.MinRating != nil {
		q = q.Where("rating >= ?", *filter.MinRating)
	}
	q = containsKeyword(q, "content", filter.Keyword)
	return findPage[models.Review](q, filter.PageRequest)
}

func (r *reviewRepository) Update(ctx context.Context, id uint, changes models.ReviewChanges) (int64, error) {
	defer observability.TrackQuery("update", "reviews")()
	res := r.model(ctx).Where("id = ?", id).Updates(changes.Columns())
	return res.RowsAffected, res.Error
}

// Delete removes the row outright so the (user, novel) slot is free again.
func (r *reviewRepository) Delete(ctx context.Context, id uint) (int64, error) {
	defer observability.TrackQuery("delete", "reviews")()
	res := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	return res.RowsAffected, res.Error
}

func (r *reviewRepository) RatingCounts(ctx context.Context, novelID uint) (map[int]int64, error) {
	defer observability.TrackQuery("aggregate", "reviews")()
	var rows []struct {
		Rating int
		Count  int64
	}
	err := r.model(ctx).
		Select("rating, COUNT(*) AS count").
		Where("novel_id = ?", novelID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}
