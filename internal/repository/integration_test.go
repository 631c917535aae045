//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"engagement/internal/database"
	"engagement/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts a disposable Postgres and migrates the schema into it.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("engagement"),
		tcpostgres.WithUsername("engagement"),
		tcpostgres.WithPassword("engagement"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestPostgres_UniquenessConstraints(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	user := uuid.New()

	reviews := NewReviewRepository(db)
	require.NoError(t, reviews.Create(ctx, &models.Review{UserID: user, NovelID: 1, Rating: 4, Content: "good"}))
	err := reviews.Create(ctx, &models.Review{UserID: user, NovelID: 1, Rating: 2, Content: "again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	reports := NewReportRepository(db)
	report := newReport(user, models.ReportContentReview, 1)
	require.NoError(t, reports.Create(ctx, report))
	assert.ErrorIs(t, reports.Create(ctx, newReport(user, models.ReportContentReview, 1)), ErrDuplicate)

	n, err := reports.Resolve(ctx, report.ID, models.Resolution{Action: models.ReportStatusResolved, AdminNotes: "ok", ResolvedBy: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, reports.Create(ctx, newReport(user, models.ReportContentReview, 1)))
}

func TestPostgres_ConcurrentLikes(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	comments := NewCommentRepository(db)
	votes := NewVoteRepository(db)
	comment := &models.Comment{UserID: uuid.New(), ChapterID: 1, Content: "popular"}
	require.NoError(t, comments.Create(ctx, comment))

	const likers = 20
	errs := make(chan error, likers)
	for i := 0; i < likers; i++ {
		go func() {
			_, _, err := votes.Add(ctx, uuid.New(), models.EntityComment, comment.ID)
			errs <- err
		}()
	}
	for i := 0; i < likers; i++ {
		require.NoError(t, <-errs)
	}

	count, err := votes.LikeCount(ctx, models.EntityComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(likers), count)
}
