package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"engagement/internal/cache"
	"engagement/internal/clients"
	"engagement/internal/database"
	"engagement/internal/models"
	"engagement/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeUnauthorized)
}

// contentStub knows a fixed set of chapters and novels.
type contentStub struct {
	chapters map[uint]bool
	novels   map[uint]bool
	err      error
}

func (c *contentStub) ChapterExists(_ context.Context, id uint) (bool, error) {
	return c.chapters[id], c.err
}

func (c *contentStub) NovelExists(_ context.Context, id uint) (bool, error) {
	return c.novels[id], c.err
}

type usersStub map[uuid.UUID]string

func (u usersStub) Username(_ context.Context, id uuid.UUID) string {
	if name, ok := u[id]; ok {
		return name
	}
	return clients.UnknownUser
}

func (u usersStub) Usernames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		out[id] = u.Username(ctx, id)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []clients.ExperienceEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event clients.ExperienceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []clients.ExperienceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]clients.ExperienceEvent(nil), r.events...)
}

// testEnv wires every service over in-memory SQLite and miniredis.
type testEnv struct {
	db         *gorm.DB
	redis      *miniredis.Miniredis
	store      *cache.RedisStore
	content    *contentStub
	users      usersStub
	notifier   *recordingNotifier
	comments   *CommentService
	reviews    *ReviewService
	reports    *ReportService
	votes      *VoteService
	engagement *EngagementService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := cache.NewRedisStore(rdb)
	coord := cache.NewCoordinator(store, 200*time.Millisecond)

	env := &testEnv{
		db:       db,
		redis:    mr,
		store:    store,
		content:  &contentStub{chapters: map[uint]bool{1: true, 2: true}, novels: map[uint]bool{1: true, 2: true}},
		users:    usersStub{},
		notifier: &recordingNotifier{},
	}

	commentRepo := repository.NewCommentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	reportRepo := repository.NewReportRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	env.comments = NewCommentService(commentRepo, coord, env.content, env.users, env.notifier)
	env.reviews = NewReviewService(reviewRepo, voteRepo, coord, env.content, env.users, env.notifier)
	env.reports = NewReportService(reportRepo, coord)
	env.votes = NewVoteService(voteRepo, coord, env.notifier)
	env.engagement = NewEngagementService(commentRepo, reviewRepo, reportRepo, voteRepo, coord, env.users)
	return env
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
