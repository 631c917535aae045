package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"engagement/internal/models"
	"engagement/internal/observability"

	"github.com/google/uuid"
)

// Coordinator wraps repository reads and writes with cache population,
// invalidation and like-counter maintenance. Cache failures never fail the
// caller: they are logged, counted and treated as misses.
type Coordinator struct {
	store   Store
	timeout time.Duration
	logger  *slog.Logger
}

// NewCoordinator builds a coordinator bounding each cache call by timeout.
func NewCoordinator(store Store, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &Coordinator{
		store:   store,
		timeout: timeout,
		logger:  observability.Component("cache"),
	}
}

func (c *Coordinator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Coordinator) fail(ctx context.Context, op, key string, err error) {
	observability.CacheFailures.WithLabelValues(op).Inc()
	c.logger.WarnContext(ctx, "cache operation failed, falling back to repository",
		slog.String("operation", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// GetJSON reads key into dest. It reports false on a miss or on any failure.
func (c *Coordinator) GetJSON(ctx context.Context, key string, dest any) bool {
	cctx, cancel := c.bounded(ctx)
	defer cancel()

	b, err := c.store.Get(cctx, key)
	if errors.Is(err, ErrCacheMiss) {
		observability.CacheRequests.WithLabelValues(namespaceOf(key), "miss").Inc()
		return false
	}
	if err != nil {
		observability.CacheRequests.WithLabelValues(namespaceOf(key), "error").Inc()
		c.fail(ctx, "get", key, err)
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		observability.CacheRequests.WithLabelValues(namespaceOf(key), "error").Inc()
		c.fail(ctx, "decode", key, err)
		return false
	}
	observability.CacheRequests.WithLabelValues(namespaceOf(key), "hit").Inc()
	return true
}

// SetJSON stores v under key, best-effort.
func (c *Coordinator) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		c.fail(ctx, "encode", key, err)
		return
	}
	cctx, cancel := c.bounded(ctx)
	defer cancel()
	if err := c.store.Set(cctx, key, b, ttl); err != nil {
		c.fail(ctx, "set", key, err)
	}
}

// ReadThrough returns the cached value for key, or loads it, caches it with
// ttl and returns it. Load errors (including not-found) are returned as is and
// never cached, so an entity created later is not hidden by a stale miss.
func ReadThrough[T any](ctx context.Context, c *Coordinator, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.SetJSON(ctx, key, v, ttl)
	return v, nil
}

// Invalidate clears the keys and patterns ns owns for scope. It reports
// whether every deletion succeeded; failures are logged as cache
// inconsistencies bounded by TTL.
func (c *Coordinator) Invalidate(ctx context.Context, ns Namespace, scope Scope) bool {
	plan := PlanFor(ns, scope)
	ok := true

	if len(plan.Keys) > 0 {
		cctx, cancel := c.bounded(ctx)
		n, err := c.store.Delete(cctx, plan.Keys...)
		cancel()
		if err != nil {
			ok = false
			c.inconsistent(ctx, ns, strings.Join(plan.Keys, ","), err)
		} else {
			observability.CacheInvalidatedKeys.WithLabelValues(string(ns)).Add(float64(n))
		}
	}

	for _, pattern := range plan.Patterns {
		// Pattern scans walk the keyspace; give them their own budget.
		cctx, cancel := context.WithTimeout(ctx, 5*c.timeout)
		n, err := c.store.DeleteMatching(cctx, pattern)
		cancel()
		if err != nil {
			ok = false
			c.inconsistent(ctx, ns, pattern, err)
			continue
		}
		observability.CacheInvalidatedKeys.WithLabelValues(string(ns)).Add(float64(n))
	}
	return ok
}

func (c *Coordinator) inconsistent(ctx context.Context, ns Namespace, target string, err error) {
	observability.CacheFailures.WithLabelValues("invalidate").Inc()
	c.logger.ErrorContext(ctx, "cache invalidation failed after commit; entries stay stale until TTL",
		slog.String("namespace", string(ns)),
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
}

// DeleteKey removes a single key, best-effort.
func (c *Coordinator) DeleteKey(ctx context.Context, key string) {
	cctx, cancel := c.bounded(ctx)
	defer cancel()
	if _, err := c.store.Delete(cctx, key); err != nil {
		c.fail(ctx, "delete", key, err)
	}
}

// GetCachedComment returns the cached comment, if any.
func (c *Coordinator) GetCachedComment(ctx context.Context, id uint) (*models.Comment, bool) {
	var comment models.Comment
	if !c.GetJSON(ctx, CommentKey(id), &comment) {
		return nil, false
	}
	return &comment, true
}

// CacheComment overwrites the per-entity entry after a successful write.
func (c *Coordinator) CacheComment(ctx context.Context, comment *models.Comment) {
	c.SetJSON(ctx, CommentKey(comment.ID), comment, CommentTTL)
}

// InvalidateCommentCaches clears the comment entry and every listing that could contain it.
func (c *Coordinator) InvalidateCommentCaches(ctx context.Context, scope Scope) bool {
	return c.Invalidate(ctx, NamespaceComment, scope)
}

func (c *Coordinator) GetCachedReview(ctx context.Context, id uint) (*models.Review, bool) {
	var review models.Review
	if !c.GetJSON(ctx, ReviewKey(id), &review) {
		return nil, false
	}
	return &review, true
}

func (c *Coordinator) CacheReview(ctx context.Context, review *models.Review) {
	c.SetJSON(ctx, ReviewKey(review.ID), review, ReviewTTL)
}

func (c *Coordinator) InvalidateReviewCaches(ctx context.Context, scope Scope) bool {
	return c.Invalidate(ctx, NamespaceReview, scope)
}

// InvalidateRatingStats drops the cached rating histogram of a novel.
func (c *Coordinator) InvalidateRatingStats(ctx context.Context, novelID uint) bool {
	return c.Invalidate(ctx, NamespaceStats, Scope{NovelID: novelID})
}

// InvalidateReportStats drops every cached moderation dashboard.
func (c *Coordinator) InvalidateReportStats(ctx context.Context) bool {
	return c.Invalidate(ctx, NamespaceStats, Scope{Reports: true})
}

// InvalidateVoteCaches drops every vote marker of an entity.
func (c *Coordinator) InvalidateVoteCaches(ctx context.Context, t models.EntityType, id uint) bool {
	return c.Invalidate(ctx, NamespaceVote, Scope{ID: id, EntityType: t})
}

// InvalidateEngagementCaches drops the like counter and vote markers of an entity.
func (c *Coordinator) InvalidateEngagementCaches(ctx context.Context, t models.EntityType, id uint) bool {
	likes := c.Invalidate(ctx, NamespaceLike, Scope{ID: id, EntityType: t})
	votes := c.InvalidateVoteCaches(ctx, t, id)
	return likes && votes
}

// GetCachedLikeCount reads the counter-only like key.
func (c *Coordinator) GetCachedLikeCount(ctx context.Context, t models.EntityType, id uint) (int64, bool) {
	key := LikeKey(t, id)
	cctx, cancel := c.bounded(ctx)
	defer cancel()

	b, err := c.store.Get(cctx, key)
	if errors.Is(err, ErrCacheMiss) {
		observability.CacheRequests.WithLabelValues("like", "miss").Inc()
		return 0, false
	}
	if err != nil {
		c.fail(ctx, "get", key, err)
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		c.fail(ctx, "decode", key, err)
		return 0, false
	}
	observability.CacheRequests.WithLabelValues("like", "hit").Inc()
	return n, true
}

// SetCachedLikeCount seeds the counter from the durable like_cnt.
func (c *Coordinator) SetCachedLikeCount(ctx context.Context, t models.EntityType, id uint, n int64) {
	key := LikeKey(t, id)
	cctx, cancel := c.bounded(ctx)
	defer cancel()
	if err := c.store.Set(cctx, key, []byte(strconv.FormatInt(n, 10)), LikeTTL); err != nil {
		c.fail(ctx, "set", key, err)
	}
}

// IncrementCachedLikeCount adds one to the counter, creating it at 1 when absent.
func (c *Coordinator) IncrementCachedLikeCount(ctx context.Context, t models.EntityType, id uint) (int64, bool) {
	return c.adjustLikeCount(ctx, t, id, 1)
}

// DecrementCachedLikeCount subtracts one. A counter that would go negative is
// dropped so the next read reconciles it from the repository.
func (c *Coordinator) DecrementCachedLikeCount(ctx context.Context, t models.EntityType, id uint) (int64, bool) {
	n, ok := c.adjustLikeCount(ctx, t, id, -1)
	if ok && n < 0 {
		c.DeleteKey(ctx, LikeKey(t, id))
		return 0, false
	}
	return n, ok
}

func (c *Coordinator) adjustLikeCount(ctx context.Context, t models.EntityType, id uint, delta int64) (int64, bool) {
	key := LikeKey(t, id)
	cctx, cancel := c.bounded(ctx)
	defer cancel()
	n, err := c.store.Increment(cctx, key, delta, LikeTTL)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.fail(ctx, "increment", key, err)
		}
		return 0, false
	}
	return n, true
}

// LikeCounterExists reports whether the counter key is present.
func (c *Coordinator) LikeCounterExists(ctx context.Context, t models.EntityType, id uint) bool {
	key := LikeKey(t, id)
	cctx, cancel := c.bounded(ctx)
	defer cancel()
	ok, err := c.store.Exists(cctx, key)
	if err != nil {
		c.fail(ctx, "exists", key, err)
		return false
	}
	return ok
}

// GetCachedVote returns whether userID liked the entity, when known.
func (c *Coordinator) GetCachedVote(ctx context.Context, t models.EntityType, id uint, userID uuid.UUID) (liked bool, found bool) {
	found = c.GetJSON(ctx, VoteKey(t, id, userID), &liked)
	return liked, found
}

// CacheVote records the vote marker of userID.
func (c *Coordinator) CacheVote(ctx context.Context, t models.EntityType, id uint, userID uuid.UUID, liked bool) {
	c.SetJSON(ctx, VoteKey(t, id, userID), liked, VoteTTL)
}
