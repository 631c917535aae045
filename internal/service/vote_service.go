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

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoteService handles likes. Liking twice or unliking something never liked
// is a no-op that reports the current state.
type VoteService struct {
	votes    repository.VoteRepository
	cache    *cache.Coordinator
	notifier ExperienceNotifier
	logger   *slog.Logger
}

func NewVoteService(votes repository.VoteRepository, coordinator *cache.Coordinator, notifier ExperienceNotifier) *VoteService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &VoteService{
		votes:    votes,
		cache:    coordinator,
		notifier: notifier,
		logger:   observability.Component("votes"),
	}
}

func validateTarget(t models.EntityType, id uint) error {
	if !t.Valid() {
		return models.NewValidationError("entity type must be comment or review")
	}
	if id == 0 {
		return models.NewValidationError("entity id is required")
	}
	return nil
}

func targetError(err error, t models.EntityType, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(string(t), id)
	}
	return models.NewInternalError(err)
}

func (s *VoteService) Like(ctx context.Context, userID uuid.UUID, t models.EntityType, id uint) (_ *models.LikeState, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "votes", "Like")
	defer func() { observability.EndSpan(span, err) }()

	if err := validateTarget(t, id); err != nil {
		return nil, err
	}
	added, count, err := s.votes.Add(ctx, userID, t, id)
	if err != nil {
		return nil, targetError(err, t, id)
	}
	if added {
		s.adjustCounter(ctx, t, id, count, s.cache.IncrementCachedLikeCount)
		s.notifier.Notify(ctx, clients.ExperienceEvent{UserID: userID, Action: clients.ActionLike, EntityID: id})
	}
	s.cache.CacheVote(ctx, t, id, userID, true)
	return &models.LikeState{EntityType: t, EntityID: id, Liked: true, LikeCount: count}, nil
}

func (s *VoteService) Unlike(ctx context.Context, userID uuid.UUID, t models.EntityType, id uint) (*models.LikeState, error) {
	if err := validateTarget(t, id); err != nil {
		return nil, err
	}
	removed, count, err := s.votes.Remove(ctx, userID, t, id)
	if err != nil {
		return nil, targetError(err, t, id)
	}
	if removed {
		s.adjustCounter(ctx, t, id, count, s.cache.DecrementCachedLikeCount)
	}
	s.cache.CacheVote(ctx, t, id, userID, false)
	return &models.LikeState{EntityType: t, EntityID: id, Liked: false, LikeCount: count}, nil
}

// adjustCounter applies a durable like change to the counter key. A live
// counter moves by one; an absent one is seeded with the committed count.
func (s *VoteService) adjustCounter(
	ctx context.Context,
	t models.EntityType,
	id uint,
	committed int64,
	adjust func(context.Context, models.EntityType, uint) (int64, bool),
) {
	if s.cache.LikeCounterExists(ctx, t, id) {
		if _, ok := adjust(ctx, t, id); ok {
			return
		}
	}
	s.cache.SetCachedLikeCount(ctx, t, id, committed)
}

func (s *VoteService) HasLiked(ctx context.Context, userID uuid.UUID, t models.EntityType, id uint) (bool, error) {
	if err := validateTarget(t, id); err != nil {
		return false, err
	}
	if liked, found := s.cache.GetCachedVote(ctx, t, id, userID); found {
		return liked, nil
	}
	liked, err := s.votes.HasVoted(ctx, userID, t, id)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	s.cache.CacheVote(ctx, t, id, userID, liked)
	return liked, nil
}
