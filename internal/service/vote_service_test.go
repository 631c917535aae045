package service

import (
	"context"
	"testing"

	"engagement/internal/cache"
	"engagement/internal/clients"
	"engagement/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteService_LikeIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	author, fan := uuid.New(), uuid.New()

	comment, err := env.comments.CreateComment(ctx, CreateCommentInput{UserID: author, ChapterID: 1, Content: "like me"})
	require.NoError(t, err)

	state, err := env.votes.Like(ctx, fan, models.EntityComment, comment.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)

	state, err = env.votes.Like(ctx, fan, models.EntityComment, comment.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)

	n, err := env.engagement.LikeCount(ctx, models.EntityComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := env.comments.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCnt)

	liked, err := env.votes.HasLiked(ctx, fan, models.EntityComment, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	likes := 0
	for _, e := range env.notifier.Events() {
		if e.Action == clients.ActionLike {
			likes++
		}
	}
	assert.Equal(t, 1, likes)
}

func TestVoteService_UnlikeTracksCounter(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	fans := []uuid.UUID{uuid.New(), uuid.New()}

	review, err := env.reviews.CreateReview(ctx, CreateReviewInput{UserID: uuid.New(), NovelID: 1, Rating: 5, Content: "wow"})
	require.NoError(t, err)

	for _, fan := range fans {
		_, err := env.votes.Like(ctx, fan, models.EntityReview, review.ID)
		require.NoError(t, err)
	}
	n, err := env.engagement.LikeCount(ctx, models.EntityReview, review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	state, err := env.votes.Unlike(ctx, fans[0], models.EntityReview, review.ID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)

	// Unliking again changes nothing.
	state, err = env.votes.Unlike(ctx, fans[0], models.EntityReview, review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.LikeCount)

	n, err = env.engagement.LikeCount(ctx, models.EntityReview, review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	liked, err := env.votes.HasLiked(ctx, fans[0], models.EntityReview, review.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestVoteService_CounterSeededAfterEviction(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	comment, err := env.comments.CreateComment(ctx, CreateCommentInput{UserID: uuid.New(), ChapterID: 1, Content: "x"})
	require.NoError(t, err)
	_, err = env.votes.Like(ctx, uuid.New(), models.EntityComment, comment.ID)
	require.NoError(t, err)

	env.redis.Del(cache.LikeKey(models.EntityComment, comment.ID))

	_, err = env.votes.Like(ctx, uuid.New(), models.EntityComment, comment.ID)
	require.NoError(t, err)

	raw, err := env.redis.Get(cache.LikeKey(models.EntityComment, comment.ID))
	require.NoError(t, err)
	assert.Equal(t, "2", raw)
}

func TestVoteService_Targets(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.votes.Like(ctx, user, "novel", 1)
	assertValidationError(t, err)

	_, err = env.votes.Like(ctx, user, models.EntityComment, 0)
	assertValidationError(t, err)

	_, err = env.votes.Like(ctx, user, models.EntityComment, 404)
	assertAppError(t, err, models.CodeNotFound)

	_, err = env.votes.Unlike(ctx, user, models.EntityReview, 404)
	assertAppError(t, err, models.CodeNotFound)

	_, err = env.engagement.LikeCount(ctx, models.EntityReview, 404)
	assertAppError(t, err, models.CodeNotFound)

	comment, err := env.comments.CreateComment(ctx, CreateCommentInput{UserID: user, ChapterID: 1, Content: "gone soon"})
	require.NoError(t, err)
	require.NoError(t, env.comments.DeleteComment(ctx, Caller{UserID: user}, comment.ID))

	_, err = env.votes.Like(ctx, uuid.New(), models.EntityComment, comment.ID)
	assertAppError(t, err, models.CodeNotFound)
}
