package cache

import (
	"fmt"
	"time"

	"engagement/internal/models"

	"github.com/google/uuid"
)

// Namespace prefixes. Every key the service writes starts with one of them.
const (
	CommentPrefix    = "comment:"
	ReviewPrefix     = "review:"
	VotePrefix       = "vote:"
	LikePrefix       = "like:"
	EngagementPrefix = "engagement:"
)

// TTL tiers.
const (
	CommentTTL = time.Hour
	ReviewTTL  = 2 * time.Hour
	VoteTTL    = time.Hour
	LikeTTL    = 30 * time.Minute
	StatsTTL   = 15 * time.Minute
)

func CommentKey(id uint) string {
	return fmt.Sprintf("comment:%d", id)
}

// ChapterCommentsKey caches one listing page of a chapter.
func ChapterCommentsKey(chapterID uint, page models.PageRequest) string {
	return fmt.Sprintf("comment:chapter:%d:%s", chapterID, pageShape(page))
}

func UserCommentsKey(userID uuid.UUID, page models.PageRequest) string {
	return fmt.Sprintf("comment:user:%s:%s", userID, pageShape(page))
}

func ReviewKey(id uint) string {
	return fmt.Sprintf("review:%d", id)
}

func NovelReviewsKey(novelID uint, page models.PageRequest) string {
	return fmt.Sprintf("review:novel:%d:%s", novelID, pageShape(page))
}

func UserReviewsKey(userID uuid.UUID, page models.PageRequest) string {
	return fmt.Sprintf("review:user:%s:%s", userID, pageShape(page))
}

// UserNovelReviewKey caches the single review a user wrote for a novel.
func UserNovelReviewKey(userID uuid.UUID, novelID uint) string {
	return fmt.Sprintf("review:user:%s:novel:%d", userID, novelID)
}

// VoteKey marks whether userID liked the entity.
func VoteKey(t models.EntityType, id uint, userID uuid.UUID) string {
	return fmt.Sprintf("vote:%s:%d:%s", t, id, userID)
}

// LikeKey is the counter-only key of an entity, separate from its full cache entry.
func LikeKey(t models.EntityType, id uint) string {
	return fmt.Sprintf("like:%s:%d", t, id)
}

func NovelRatingStatsKey(novelID uint) string {
	return fmt.Sprintf("engagement:novel:%d:ratings", novelID)
}

func CommentActivityKey(days int) string {
	return fmt.Sprintf("engagement:activity:%d", days)
}

func MostReportedKey(limit int) string {
	return fmt.Sprintf("engagement:reports:top:%d", limit)
}

func ReportStatusCountsKey() string {
	return "engagement:reports:status"
}

func pageShape(p models.PageRequest) string {
	return fmt.Sprintf("p%d:s%d:%s:%s", p.Page, p.Size, p.Sort, p.Order)
}
