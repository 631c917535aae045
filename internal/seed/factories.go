// Package seed provides helpers to create demo engagement data for
// development databases and tests.
package seed

import (
	"context"
	"math/rand"
	"time"

	"engagement/internal/models"
	"engagement/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Factory builds engagement rows and persists them through the repositories,
// so like counters stay consistent with vote rows.
type Factory struct {
	db       *gorm.DB
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	reports  repository.ReportRepository
	votes    repository.VoteRepository
	faker    *gofakeit.Faker
	rnd      *rand.Rand
	maxDays  int
}

// NewFactory creates a Factory bound to db. seed makes the generated content
// reproducible; maxDays spreads created_at over the trailing window.
func NewFactory(db *gorm.DB, seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		db:       db,
		comments: repository.NewCommentRepository(db),
		reviews:  repository.NewReviewRepository(db),
		reports:  repository.NewReportRepository(db),
		votes:    repository.NewVoteRepository(db),
		faker:    gofakeit.New(seed),
		rnd:      rand.New(rand.NewSource(seed)),
		maxDays:  maxDays,
	}
}

// createdAt returns a realistic timestamp within the trailing window.
func (f *Factory) createdAt() time.Time {
	back := time.Duration(f.rnd.Intn(f.maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// BuildComment returns an unsaved comment by user on chapterID.
func (f *Factory) BuildComment(user uuid.UUID, chapterID uint, overrides ...func(*models.Comment)) *models.Comment {
	c := &models.Comment{
		UserID:    user,
		ChapterID: chapterID,
		Content:   f.faker.Sentence(f.rnd.Intn(20) + 3),
		IsSpoiler: f.rnd.Intn(10) == 0,
		CreatedAt: f.createdAt(),
	}
	for _, o := range overrides {
		o(c)
	}
	return c
}

func (f *Factory) CreateComment(ctx context.Context, user uuid.UUID, chapterID uint, overrides ...func(*models.Comment)) (*models.Comment, error) {
	c := f.BuildComment(user, chapterID, overrides...)
	if err := f.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BuildReview returns an unsaved review. Ratings lean positive like real
// reading sites.
func (f *Factory) BuildReview(user uuid.UUID, novelID uint, overrides ...func(*models.Review)) *models.Review {
	weights := []int{1, 2, 3, 3, 4, 4, 4, 5, 5, 5}
	r := &models.Review{
		UserID:    user,
		NovelID:   novelID,
		Rating:    weights[f.rnd.Intn(len(weights))],
		Content:   f.faker.Paragraph(1, f.rnd.Intn(4)+2, 12, " "),
		CreatedAt: f.createdAt(),
	}
	for _, o := range overrides {
		o(r)
	}
	return r
}

func (f *Factory) CreateReview(ctx context.Context, user uuid.UUID, novelID uint, overrides ...func(*models.Review)) (*models.Review, error) {
	r := f.BuildReview(user, novelID, overrides...)
	if err := f.reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

var (
	seedContentTypes = []models.ReportContentType{models.ReportContentComment, models.ReportContentReview}
	seedReportTypes  = []models.ReportType{
		models.ReportTypeSpam, models.ReportTypeHarassment, models.ReportTypeSpoiler,
		models.ReportTypeInappropriate, models.ReportTypeOther,
	}
)

// CreateReport files an IN_REVIEW report by reporter against contentID.
func (f *Factory) CreateReport(ctx context.Context, reporter uuid.UUID, contentID uint, overrides ...func(*models.Report)) (*models.Report, error) {
	r := &models.Report{
		ReporterID:  reporter,
		ContentType: seedContentTypes[f.rnd.Intn(len(seedContentTypes))],
		ContentID:   contentID,
		ReportType:  seedReportTypes[f.rnd.Intn(len(seedReportTypes))],
		Reason:      f.faker.Sentence(8),
		Status:      models.ReportStatusInReview,
	}
	for _, o := range overrides {
		o(r)
	}
	if err := f.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Like records a like through the vote repository.
func (f *Factory) Like(ctx context.Context, user uuid.UUID, t models.EntityType, id uint) error {
	_, _, err := f.votes.Add(ctx, user, t, id)
	return err
}
