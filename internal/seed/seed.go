package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"engagement/internal/models"
	"engagement/internal/observability"
	"engagement/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Users              int
	Novels             int
	ChaptersPerNovel   int
	CommentsPerChapter int
	ReviewChance       float64 // chance that a user reviews a given novel
	LikeChance         float64 // chance that a user likes a given entity
	Reports            int
	MaxDays            int
	RandomSeed         int64
}

// DefaultOptions is a small but lively dataset.
func DefaultOptions() Options {
	return Options{
		Users:              25,
		Novels:             5,
		ChaptersPerNovel:   10,
		CommentsPerChapter: 4,
		ReviewChance:       0.4,
		LikeChance:         0.1,
		Reports:            15,
		MaxDays:            60,
		RandomSeed:         42,
	}
}

// Result summarizes what a run created.
type Result struct {
	Users    []uuid.UUID
	Comments int
	Reviews  int
	Likes    int
	Reports  int
}

// Seeder fills a database with engagement data.
type Seeder struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, logger: observability.Component("seed")}
}

// ClearAll removes every engagement row.
func (s *Seeder) ClearAll() error {
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE votes, reports, reviews, comments RESTART IDENTITY CASCADE`).Error
	}
	for _, m := range []any{&models.Vote{}, &models.Report{}, &models.Review{}, &models.Comment{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

// Seed creates users' comments, reviews, likes and reports. Chapter ids run
// from 1 to Novels*ChaptersPerNovel; novel ids from 1 to Novels.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users <= 0 || opts.Novels <= 0 || opts.ChaptersPerNovel <= 0 {
		return nil, errors.New("users, novels and chapters per novel must be positive")
	}
	f := NewFactory(s.db, opts.RandomSeed, opts.MaxDays)
	res := &Result{}
	for i := 0; i < opts.Users; i++ {
		res.Users = append(res.Users, uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("seed-user-%d-%d", opts.RandomSeed, i))))
	}
	pick := func() uuid.UUID { return res.Users[f.rnd.Intn(len(res.Users))] }

	var commentIDs []uint
	chapters := opts.Novels * opts.ChaptersPerNovel
	for chapter := 1; chapter <= chapters; chapter++ {
		for i := 0; i < opts.CommentsPerChapter; i++ {
			c, err := f.CreateComment(ctx, pick(), uint(chapter))
			if err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			commentIDs = append(commentIDs, c.ID)
			res.Comments++
		}
	}

	var reviewIDs []uint
	for novel := 1; novel <= opts.Novels; novel++ {
		for _, user := range res.Users {
			if f.rnd.Float64() >= opts.ReviewChance {
				continue
			}
			r, err := f.CreateReview(ctx, user, uint(novel))
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("create review: %w", err)
			}
			reviewIDs = append(reviewIDs, r.ID)
			res.Reviews++
		}
	}

	likeAll := func(t models.EntityType, ids []uint) error {
		for _, id := range ids {
			for _, user := range res.Users {
				if f.rnd.Float64() >= opts.LikeChance {
					continue
				}
				if err := f.Like(ctx, user, t, id); err != nil {
					return fmt.Errorf("like %s %d: %w", t, id, err)
				}
				res.Likes++
			}
		}
		return nil
	}
	if err := likeAll(models.EntityComment, commentIDs); err != nil {
		return nil, err
	}
	if err := likeAll(models.EntityReview, reviewIDs); err != nil {
		return nil, err
	}

	for i := 0; i < opts.Reports && len(commentIDs) > 0; i++ {
		target := commentIDs[f.rnd.Intn(len(commentIDs))]
		_, err := f.CreateReport(ctx, pick(), target)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create report: %w", err)
		}
		res.Reports++
	}

	s.logger.InfoContext(ctx, "seed complete",
		slog.Int("users", len(res.Users)),
		slog.Int("comments", res.Comments),
		slog.Int("reviews", res.Reviews),
		slog.Int("likes", res.Likes),
		slog.Int("reports", res.Reports),
	)
	return res, nil
}
