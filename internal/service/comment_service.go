package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"engagement/internal/cache"
	"engagement/internal/clients"
	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/repository"
	"engagement/internal/validation"

	"github.com/google/uuid"
)

type CommentService struct {
	comments repository.CommentRepository
	cache    *cache.Coordinator
	content  ContentLookup
	users    UserDirectory
	notifier ExperienceNotifier
	logger   *slog.Logger
}

type CreateCommentInput struct {
	UserID    uuid.UUID `validate:"required" field:"user_id"`
	ChapterID uint      `validate:"required" field:"chapter_id"`
	Content   string    `validate:"notblank,max=2000" field:"content"`
	IsSpoiler bool
}

// UpdateCommentInput changes only the fields that are set.
type UpdateCommentInput struct {
	Content   *string `validate:"omitnil,notblank,max=2000" field:"content"`
	IsSpoiler *bool
}

func NewCommentService(
	comments repository.CommentRepository,
	coordinator *cache.Coordinator,
	content ContentLookup,
	users UserDirectory,
	notifier ExperienceNotifier,
) *CommentService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &CommentService{
		comments: comments,
		cache:    coordinator,
		content:  content,
		users:    users,
		notifier: notifier,
		logger:   observability.Component("comments"),
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (_ *models.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "comments", "CreateComment")
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	exists, err := s.content.ChapterExists(ctx, in.ChapterID)
	if err != nil {
		return nil, models.NewUpstreamError("content", err)
	}
	if !exists {
		return nil, models.NewNotFoundError("Chapter", in.ChapterID)
	}

	comment := &models.Comment{
		UserID:    in.UserID,
		ChapterID: in.ChapterID,
		Content:   in.Content,
		IsSpoiler: in.IsSpoiler,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.cache.InvalidateCommentCaches(ctx, cache.CommentScope(comment))
	s.cache.CacheComment(ctx, comment)
	s.notifier.Notify(ctx, clients.ExperienceEvent{
		UserID:   comment.UserID,
		Action:   clients.ActionComment,
		EntityID: comment.ID,
	})
	s.logger.InfoContext(ctx, "comment created",
		slog.Uint64("comment_id", uint64(comment.ID)),
		slog.Uint64("chapter_id", uint64(comment.ChapterID)),
	)
	return comment, nil
}

// GetComment serves the cached entry when present. The like counter, when
// cached, is fresher than the entity entry and wins.
func (s *CommentService) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, hit := s.cache.GetCachedComment(ctx, id)
	if hit {
		if n, ok := s.cache.GetCachedLikeCount(ctx, models.EntityComment, id); ok {
			comment.LikeCnt = n
		}
	} else {
		var err error
		comment, err = s.comments.GetByID(ctx, id)
		if err != nil {
			return nil, repoError(err, "Comment", id)
		}
		s.cache.CacheComment(ctx, comment)
		s.cache.SetCachedLikeCount(ctx, models.EntityComment, id, comment.LikeCnt)
	}
	s.withUsername(ctx, comment)
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, caller Caller, id uint, in UpdateCommentInput) (*models.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	changes := models.CommentChanges{Content: in.Content, IsSpoiler: in.IsSpoiler}
	if changes.Empty() {
		return nil, models.NewValidationError("nothing to update")
	}

	existing, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Comment", id)
	}
	if existing.UserID != caller.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own comments")
	}

	n, err := s.comments.Update(ctx, id, changes)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if n == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}
	updated, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Comment", id)
	}

	s.cache.InvalidateCommentCaches(ctx, cache.CommentScope(updated))
	s.cache.CacheComment(ctx, updated)
	return updated, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, caller Caller, id uint) error {
	existing, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return repoError(err, "Comment", id)
	}
	if existing.UserID != caller.UserID && !caller.Admin {
		return models.NewUnauthorizedError("You can only delete your own comments")
	}

	n, err := s.comments.Delete(ctx, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if n == 0 {
		return models.NewNotFoundError("Comment", id)
	}

	s.cache.InvalidateCommentCaches(ctx, cache.CommentScope(existing))
	s.cache.InvalidateEngagementCaches(ctx, models.EntityComment, id)
	return nil
}

func (s *CommentService) ListChapterComments(ctx context.Context, chapterID uint, page models.PageRequest) (models.Page[models.Comment], error) {
	page = page.Normalize()
	if err := page.Validate(models.SortByCreateTime, models.SortByLikeCnt); err != nil {
		return models.Page[models.Comment]{}, err
	}
	return s.cachedPage(ctx, cache.ChapterCommentsKey(chapterID, page), page, func(ctx context.Context) ([]models.Comment, int64, error) {
		return s.comments.ListByChapter(ctx, chapterID, page)
	})
}

func (s *CommentService) ListUserComments(ctx context.Context, userID uuid.UUID, page models.PageRequest) (models.Page[models.Comment], error) {
	page = page.Normalize()
	if err := page.Validate(models.SortByCreateTime, models.SortByLikeCnt); err != nil {
		return models.Page[models.Comment]{}, err
	}
	return s.cachedPage(ctx, cache.UserCommentsKey(userID, page), page, func(ctx context.Context) ([]models.Comment, int64, error) {
		return s.comments.ListByUser(ctx, userID, page)
	})
}

func (s *CommentService) cachedPage(
	ctx context.Context,
	key string,
	page models.PageRequest,
	load func(context.Context) ([]models.Comment, int64, error),
) (models.Page[models.Comment], error) {
	result, err := cache.ReadThrough(ctx, s.cache, key, cache.CommentTTL, func(ctx context.Context) (models.Page[models.Comment], error) {
		items, total, err := load(ctx)
		if err != nil {
			return models.Page[models.Comment]{}, models.NewInternalError(err)
		}
		return models.NewPage(items, total, page), nil
	})
	if err != nil {
		return result, err
	}
	s.withUsernames(ctx, result.Items)
	return result, nil
}

// SearchComments runs a free-form search. Results are not cached.
func (s *CommentService) SearchComments(ctx context.Context, filter models.CommentFilter) (models.Page[models.Comment], error) {
	filter.PageRequest = filter.PageRequest.Normalize()
	if err := filter.PageRequest.Validate(models.SortByCreateTime, models.SortByLikeCnt); err != nil {
		return models.Page[models.Comment]{}, err
	}
	items, total, err := s.comments.Search(ctx, filter)
	if err != nil {
		return models.Page[models.Comment]{}, models.NewInternalError(err)
	}
	s.withUsernames(ctx, items)
	return models.NewPage(items, total, filter.PageRequest), nil
}

// BatchDeleteComments soft-deletes ids and returns how many rows went away.
func (s *CommentService) BatchDeleteComments(ctx context.Context, caller Caller, ids []uint) (int64, error) {
	targets, err := s.batchTargets(ctx, caller, ids)
	if err != nil {
		return 0, err
	}
	n, err := s.comments.BatchDelete(ctx, ids)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	for i := range targets {
		s.cache.InvalidateCommentCaches(ctx, cache.CommentScope(&targets[i]))
		s.cache.InvalidateEngagementCaches(ctx, models.EntityComment, targets[i].ID)
	}
	return n, nil
}

func (s *CommentService) BatchUpdateSpoilerStatus(ctx context.Context, caller Caller, ids []uint, spoiler bool) (int64, error) {
	targets, err := s.batchTargets(ctx, caller, ids)
	if err != nil {
		return 0, err
	}
	n, err := s.comments.BatchUpdateSpoiler(ctx, ids, spoiler)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	for i := range targets {
		s.cache.InvalidateCommentCaches(ctx, cache.CommentScope(&targets[i]))
	}
	return n, nil
}

// batchTargets loads the rows a batch touches. Admins may act on any
// comment; other callers only on their own.
func (s *CommentService) batchTargets(ctx context.Context, caller Caller, ids []uint) ([]models.Comment, error) {
	if err := validateBatch(ids); err != nil {
		return nil, err
	}
	targets, err := s.comments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !caller.Admin {
		for _, c := range targets {
			if c.UserID != caller.UserID {
				return nil, models.NewUnauthorizedError("You can only modify your own comments")
			}
		}
	}
	return targets, nil
}

func (s *CommentService) RecentComments(ctx context.Context, hours, limit int) ([]models.Comment, error) {
	if hours < 1 || hours > MaxWindowHours {
		return nil, models.NewValidationError("hours must be between 1 and 720")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	items, err := s.comments.ListRecent(ctx, hours, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (s *CommentService) PopularComments(ctx context.Context, threshold int64, limit int) ([]models.Comment, error) {
	if threshold < 0 {
		return nil, models.NewValidationError("threshold must be zero or greater")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	items, err := s.comments.ListPopular(ctx, threshold, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (s *CommentService) KeywordComments(ctx context.Context, keyword string, limit int) ([]models.Comment, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || utf8.RuneCountInString(keyword) > 100 {
		return nil, models.NewValidationError("keyword must be between 1 and 100 characters")
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	items, err := s.comments.SearchKeyword(ctx, keyword, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (s *CommentService) withUsername(ctx context.Context, c *models.Comment) {
	if s.users != nil {
		c.Username = s.users.Username(ctx, c.UserID)
	}
}

func (s *CommentService) withUsernames(ctx context.Context, items []models.Comment) {
	if s.users == nil || len(items) == 0 {
		return
	}
	names := s.users.Usernames(ctx, userIDs(items, func(c models.Comment) uuid.UUID { return c.UserID }))
	for i := range items {
		items[i].Username = names[items[i].UserID]
	}
}
