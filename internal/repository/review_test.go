package repository

import (
	"context"
	"errors"
	"testing"

	"engagement/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReviewRepository_OneReviewPerUserAndNovel(t *testing.T) {
	repo := NewReviewRepository(setupTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	first := &models.Review{UserID: user, NovelID: 42, Rating: 4, Content: "solid"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.UUID)

	exists, err := repo.ExistsByUserAndNovel(ctx, user, 42)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Create(ctx, &models.Review{UserID: user, NovelID: 42, Rating: 1, Content: "changed my mind"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := repo.GetByUserAndNovel(ctx, user, 42)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "solid", got.Content)

	// Another novel, or another user, is fine.
	require.NoError(t, repo.Create(ctx, &models.Review{UserID: user, NovelID: 43, Rating: 3, Content: "ok"}))
	require.NoError(t, repo.Create(ctx, &models.Review{UserID: uuid.New(), NovelID: 42, Rating: 5, Content: "great"}))
}

func TestReviewRepository_DeleteFreesTheSlot(t *testing.T) {
	repo := NewReviewRepository(setupTestDB(t))
	ctx := context.Background()
	user := uuid.New()

	review := &models.Review{UserID: user, NovelID: 1, Rating: 2, Content: "meh"}
	require.NoError(t, repo.Create(ctx, review))

	n, err := repo.Delete(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByUUID(ctx, review.UUID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	assert.NoError(t, repo.Create(ctx, &models.Review{UserID: user, NovelID: 1, Rating: 5, Content: "reread it"}))
}

func TestReviewRepository_UpdateAndSearch(t *testing.T) {
	repo := NewReviewRepository(setupTestDB(t))
	ctx := context.Background()

	a := &models.Review{UserID: uuid.New(), NovelID: 9, Rating: 2, Content: "Weak ending"}
	b := &models.Review{UserID: uuid.New(), NovelID: 9, Rating: 5, Content: "A masterpiece"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	rating := 3
	n, err := repo.Update(ctx, a.ID, models.ReviewChanges{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)
	assert.Equal(t, "Weak ending", got.Content)

	minRating := 3
	items, total, err := repo.Search(ctx, models.ReviewFilter{MinRating: &minRating, Keyword: "MASTER"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)

	items, total, err = repo.ListByNovel(ctx, 9, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)
}

func TestReviewRepository_RatingCounts(t *testing.T) {
	repo := NewReviewRepository(setupTestDB(t))
	ctx := context.Background()

	for _, rating := range []int{5, 5, 4, 1} {
		require.NoError(t, repo.Create(ctx, &models.Review{UserID: uuid.New(), NovelID: 77, Rating: rating, Content: "x"}))
	}

	counts, err := repo.RatingCounts(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{5: 2, 4: 1, 1: 1}, counts)

	empty, err := repo.RatingCounts(ctx, 78)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
