package service

import (
	"context"
	"errors"
	"log/slog"

	"engagement/internal/cache"
	"engagement/internal/clients"
	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/repository"
	"engagement/internal/validation"

	"github.com/google/uuid"
)

// ReviewService enforces one review per user and novel: a fast existence
// check rejects the common case, the storage unique index settles races.
type ReviewService struct {
	reviews  repository.ReviewRepository
	votes    repository.VoteRepository
	cache    *cache.Coordinator
	content  ContentLookup
	users    UserDirectory
	notifier ExperienceNotifier
	logger   *slog.Logger
}

type CreateReviewInput struct {
	UserID  uuid.UUID `validate:"required" field:"user_id"`
	NovelID uint      `validate:"required" field:"novel_id"`
	Rating  int       `validate:"min=1,max=5" field:"rating"`
	Content string    `validate:"notblank,max=5000" field:"content"`
}

type UpdateReviewInput struct {
	Rating  *int    `validate:"omitnil,min=1,max=5" field:"rating"`
	Content *string `validate:"omitnil,notblank,max=5000" field:"content"`
}

func NewReviewService(
	reviews repository.ReviewRepository,
	votes repository.VoteRepository,
	coordinator *cache.Coordinator,
	content ContentLookup,
	users UserDirectory,
	notifier ExperienceNotifier,
) *ReviewService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ReviewService{
		reviews:  reviews,
		votes:    votes,
		cache:    coordinator,
		content:  content,
		users:    users,
		notifier: notifier,
		logger:   observability.Component("reviews"),
	}
}

var errDuplicateReview = models.NewConflictError("You have already reviewed this novel")

func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (_ *models.Review, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "reviews", "CreateReview")
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	exists, err := s.content.NovelExists(ctx, in.NovelID)
	if err != nil {
		return nil, models.NewUpstreamError("content", err)
	}
	if !exists {
		return nil, models.NewNotFoundError("Novel", in.NovelID)
	}

	taken, err := s.reviews.ExistsByUserAndNovel(ctx, in.UserID, in.NovelID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if taken {
		return nil, errDuplicateReview
	}

	review := &models.Review{
		UserID:  in.UserID,
		NovelID: in.NovelID,
		Rating:  in.Rating,
		Content: in.Content,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDuplicateReview
		}
		return nil, models.NewInternalError(err)
	}

	s.cache.InvalidateReviewCaches(ctx, cache.ReviewScope(review))
	s.cache.InvalidateRatingStats(ctx, review.NovelID)
	s.cache.CacheReview(ctx, review)
	s.notifier.Notify(ctx, clients.ExperienceEvent{
		UserID:   review.UserID,
		Action:   clients.ActionReview,
		EntityID: review.ID,
	})
	s.logger.InfoContext(ctx, "review created",
		slog.Uint64("review_id", uint64(review.ID)),
		slog.Uint64("novel_id", uint64(review.NovelID)),
	)
	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	review, hit := s.cache.GetCachedReview(ctx, id)
	if hit {
		if n, ok := s.cache.GetCachedLikeCount(ctx, models.EntityReview, id); ok {
			review.LikeCnt = n
		}
	} else {
		var err error
		review, err = s.reviews.GetByID(ctx, id)
		if err != nil {
			return nil, repoError(err, "Review", id)
		}
		s.cache.CacheReview(ctx, review)
		s.cache.SetCachedLikeCount(ctx, models.EntityReview, id, review.LikeCnt)
	}
	s.withUsername(ctx, review)
	return review, nil
}

// GetReviewByUUID reads through to the repository; public ids are not cached.
func (s *ReviewService) GetReviewByUUID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetByUUID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Review", id)
	}
	s.withUsername(ctx, review)
	return review, nil
}

func (s *ReviewService) GetUserNovelReview(ctx context.Context, userID uuid.UUID, novelID uint) (*models.Review, error) {
	return cache.ReadThrough(ctx, s.cache, cache.UserNovelReviewKey(userID, novelID), cache.ReviewTTL,
		func(ctx context.Context) (*models.Review, error) {
			review, err := s.reviews.GetByUserAndNovel(ctx, userID, novelID)
			if err != nil {
				return nil, repoError(err, "Review", novelID)
			}
			return review, nil
		})
}

func (s *ReviewService) UpdateReview(ctx context.Context, caller Caller, id uint, in UpdateReviewInput) (*models.Review, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	changes := models.ReviewChanges{Rating: in.Rating, Content: in.Content}
	if changes.Empty() {
		return nil, models.NewValidationError("nothing to update")
	}

	existing, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Review", id)
	}
	if existing.UserID != caller.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own reviews")
	}

	n, err := s.reviews.Update(ctx, id, changes)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if n == 0 {
		return nil, models.NewNotFoundError("Review", id)
	}
	updated, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Review", id)
	}

	s.cache.InvalidateReviewCaches(ctx, cache.ReviewScope(updated))
	if changes.Rating != nil {
		s.cache.InvalidateRatingStats(ctx, updated.NovelID)
	}
	s.cache.CacheReview(ctx, updated)
	return updated, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, caller Caller, id uint) error {
	existing, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return repoError(err, "Review", id)
	}
	if existing.UserID != caller.UserID && !caller.Admin {
		return models.NewUnauthorizedError("You can only delete your own reviews")
	}

	n, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if n == 0 {
		return models.NewNotFoundError("Review", id)
	}
	if _, err := s.votes.DeleteForEntities(ctx, models.EntityReview, []uint{id}); err != nil {
		s.logger.WarnContext(ctx, "failed to drop votes of deleted review",
			slog.Uint64("review_id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}

	s.cache.InvalidateReviewCaches(ctx, cache.ReviewScope(existing))
	s.cache.InvalidateRatingStats(ctx, existing.NovelID)
	s.cache.InvalidateEngagementCaches(ctx, models.EntityReview, id)
	return nil
}

func (s *ReviewService) ListNovelReviews(ctx context.Context, novelID uint, page models.PageRequest) (models.Page[models.Review], error) {
	page = page.Normalize()
	if err := page.Validate(models.SortByCreateTime, models.SortByLikeCnt); err != nil {
		return models.Page[models.Review]{}, err
	}
	return s.cachedPage(ctx, cache.NovelReviewsKey(novelID, page), page, func(ctx context.Context) ([]models.Review, int64, error) {
		return s.reviews.ListByNovel(ctx, novelID, page)
	})
}

func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, page models.PageRequest) (models.Page[models.Review], error) {
	page = page.Normalize()
	if err := page.Validate(models.SortByCreateTime, models.SortByLikeCnt); err != nil {
		return models.Page[models.Review]{}, err
	}
	return s.cachedPage(ctx, cache.UserReviewsKey(userID, page), page, func(ctx context.Context) ([]models.Review, int64, error) {
		return s.reviews.ListByUser(ctx, userID, page)
	})
}

func (s *ReviewService) cachedPage(
	ctx context.Context,
	key string,
	page models.PageRequest,
	load func(context.Context) ([]models.Review, int64, error),
) (models.Page[models.Review], error) {
	result, err := cache.ReadThrough(ctx, s.cache, key, cache.ReviewTTL, func(ctx context.Context) (models.Page[models.Review], error) {
		items, total, err := load(ctx)
		if err != nil {
			return models.Page[models.Review]{}, models.NewInternalError(err)
		}
		return models.NewPage(items, total, page), nil
	})
	if err != nil {
		return result, err
	}
	s.withUsernames(ctx, result.Items)
	return result, nil
}

func (s *ReviewService) SearchReviews(ctx context.Context, filter models.ReviewFilter) (models.Page[models.Review], error) {
	filter.PageRequest = filter.PageRequest.Normalize()
	if err := filter.PageRequest.Validate(models.SortByCreateTime, models.SortByLikeCnt); err != nil {
		return models.Page[models.Review]{}, err
	}
	if filter.MinRating != nil && (*filter.MinRating < models.MinRating || *filter.MinRating > models.MaxRating) {
		return models.Page[models.Review]{}, models.NewValidationError("min_rating must be between 1 and 5")
	}
	items, total, err := s.reviews.Search(ctx, filter)
	if err != nil {
		return models.Page[models.Review]{}, models.NewInternalError(err)
	}
	s.withUsernames(ctx, items)
	return models.NewPage(items, total, filter.PageRequest), nil
}

func (s *ReviewService) withUsername(ctx context.Context, r *models.Review) {
	if s.users != nil {
		r.Username = s.users.Username(ctx, r.UserID)
	}
}

func (s *ReviewService) withUsernames(ctx context.Context, items []models.Review) {
	if s.users == nil || len(items) == 0 {
		return
	}
	names := s.users.Usernames(ctx, userIDs(items, func(r models.Review) uuid.UUID { return r.UserID }))
	for i := range items {
		items[i].Username = names[items[i].UserID]
	}
}
