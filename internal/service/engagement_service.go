package service

import (
	"context"
	"math"
	"time"

	"engagement/internal/cache"
	"engagement/internal/models"
	"engagement/internal/repository"
)

// EngagementService computes the aggregated views: rating histograms, like
// counts, comment activity and the moderation dashboard. Aggregates are
// cached for StatsTTL.
type EngagementService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	reports  repository.ReportRepository
	votes    repository.VoteRepository
	cache    *cache.Coordinator
	users    UserDirectory
}

func NewEngagementService(
	comments repository.CommentRepository,
	reviews repository.ReviewRepository,
	reports repository.ReportRepository,
	votes repository.VoteRepository,
	coordinator *cache.Coordinator,
	users UserDirectory,
) *EngagementService {
	return &EngagementService{
		comments: comments,
		reviews:  reviews,
		reports:  reports,
		votes:    votes,
		cache:    coordinator,
		users:    users,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildRatingStats turns per-star counts into a full 1..5 histogram.
// A novel without reviews gets zero totals and zero percentages.
func BuildRatingStats(novelID uint, counts map[int]int64) *models.RatingStats {
	stats := &models.RatingStats{
		NovelID:   novelID,
		Histogram: make([]models.RatingBucket, 0, models.MaxRating),
	}
	var weighted int64
	for stars := models.MinRating; stars <= models.MaxRating; stars++ {
		stats.TotalReviews += counts[stars]
		weighted += int64(stars) * counts[stars]
	}
	for stars := models.MaxRating; stars >= models.MinRating; stars-- {
		bucket := models.RatingBucket{Stars: stars, Count: counts[stars]}
		if stats.TotalReviews > 0 {
			bucket.Percentage = round2(float64(bucket.Count) / float64(stats.TotalReviews) * 100)
		}
		stats.Histogram = append(stats.Histogram, bucket)
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = round2(float64(weighted) / float64(stats.TotalReviews))
	}
	return stats
}

func (s *EngagementService) NovelRatingStats(ctx context.Context, novelID uint) (*models.RatingStats, error) {
	return cache.ReadThrough(ctx, s.cache, cache.NovelRatingStatsKey(novelID), cache.StatsTTL,
		func(ctx context.Context) (*models.RatingStats, error) {
			counts, err := s.reviews.RatingCounts(ctx, novelID)
			if err != nil {
				return nil, models.NewInternalError(err)
			}
			return BuildRatingStats(novelID, counts), nil
		})
}

// LikeCount prefers the counter key and reseeds it from like_cnt on a miss.
func (s *EngagementService) LikeCount(ctx context.Context, t models.EntityType, id uint) (int64, error) {
	if err := validateTarget(t, id); err != nil {
		return 0, err
	}
	if n, ok := s.cache.GetCachedLikeCount(ctx, t, id); ok {
		return n, nil
	}
	n, err := s.votes.LikeCount(ctx, t, id)
	if err != nil {
		return 0, targetError(err, t, id)
	}
	s.cache.SetCachedLikeCount(ctx, t, id, n)
	return n, nil
}

func (s *EngagementService) CommentActivity(ctx context.Context, days int) (*models.CommentActivity, error) {
	if days < 1 || days > MaxWindowDays {
		return nil, models.NewValidationError("days must be between 1 and 365")
	}
	return cache.ReadThrough(ctx, s.cache, cache.CommentActivityKey(days), cache.StatsTTL,
		func(ctx context.Context) (*models.CommentActivity, error) {
			since := time.Now().AddDate(0, 0, -days)
			activity := &models.CommentActivity{Days: days}

			var err error
			if activity.CommentCount, err = s.comments.CountSince(ctx, since); err != nil {
				return nil, models.NewInternalError(err)
			}
			if activity.MostActiveUser, err = s.comments.MostActiveUser(ctx, since); err != nil {
				return nil, models.NewInternalError(err)
			}
			if activity.MostCommentedChapter, err = s.comments.MostCommentedChapter(ctx, since); err != nil {
				return nil, models.NewInternalError(err)
			}
			if activity.MostActiveUser != nil && s.users != nil {
				activity.MostActiveUser.Username = s.users.Username(ctx, activity.MostActiveUser.UserID)
			}
			return activity, nil
		})
}

func (s *EngagementService) MostReportedContent(ctx context.Context, limit int) ([]models.ReportedContent, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	return cache.ReadThrough(ctx, s.cache, cache.MostReportedKey(limit), cache.StatsTTL,
		func(ctx context.Context) ([]models.ReportedContent, error) {
			items, err := s.reports.MostReported(ctx, limit)
			if err != nil {
				return nil, models.NewInternalError(err)
			}
			return items, nil
		})
}

func (s *EngagementService) ReportStatusCounts(ctx context.Context) (map[models.ReportStatus]int64, error) {
	return cache.ReadThrough(ctx, s.cache, cache.ReportStatusCountsKey(), cache.StatsTTL,
		func(ctx context.Context) (map[models.ReportStatus]int64, error) {
			counts, err := s.reports.CountByStatus(ctx)
			if err != nil {
				return nil, models.NewInternalError(err)
			}
			return counts, nil
		})
}

func (s *EngagementService) ModerationDashboard(ctx context.Context, days, limit int) (*models.ModerationDashboard, error) {
	if days < 1 || days > MaxWindowDays {
		return nil, models.NewValidationError("days must be between 1 and 365")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	counts, err := s.ReportStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.MostReportedContent(ctx, limit)
	if err != nil {
		return nil, err
	}
	activity, err := s.CommentActivity(ctx, days)
	if err != nil {
		return nil, err
	}
	return &models.ModerationDashboard{
		StatusCounts: counts,
		MostReported: top,
		Activity:     *activity,
	}, nil
}
