// Package service implements the engagement workflows: comments, reviews,
// reports, likes and the aggregated statistics built on them.
package service

import (
	"context"
	"errors"

	"engagement/internal/clients"
	"engagement/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller is the identity an operation runs as.
type Caller struct {
	UserID uuid.UUID
	Admin  bool
}

// ContentLookup confirms chapters and novels exist.
type ContentLookup interface {
	ChapterExists(ctx context.Context, chapterID uint) (bool, error)
	NovelExists(ctx context.Context, novelID uint) (bool, error)
}

// UserDirectory resolves display names. It never fails; unknown users get a
// placeholder.
type UserDirectory interface {
	Username(ctx context.Context, userID uuid.UUID) string
	Usernames(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]string
}

// ExperienceNotifier forwards experience events without blocking the caller.
type ExperienceNotifier interface {
	Notify(ctx context.Context, event clients.ExperienceEvent)
}

// Batch and window bounds.
const (
	MaxBatchSize   = 100
	MaxWindowHours = 24 * 30
	MaxWindowDays  = 365
	MaxListLimit   = 100
)

func repoError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func validateBatch(ids []uint) error {
	if len(ids) == 0 {
		return models.NewValidationError("ids must not be empty")
	}
	if len(ids) > MaxBatchSize {
		return models.NewValidationError("at most 100 ids per batch")
	}
	return nil
}

func validateLimit(limit int) error {
	if limit < 1 || limit > MaxListLimit {
		return models.NewValidationError("limit must be between 1 and 100")
	}
	return nil
}

func userIDs[T any](items []T, id func(T) uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, id(item))
	}
	return ids
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, clients.ExperienceEvent) {}
