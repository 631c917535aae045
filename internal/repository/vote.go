package repository

import (
	"context"

	"engagement/internal/models"
	"engagement/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository records likes. A vote row and the like_cnt of its entity
// always change in the same transaction.
type VoteRepository interface {
	// Add records a like and returns whether it was new plus the resulting count.
	Add(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID uint) (bool, int64, error)
	// Remove withdraws a like and returns whether one existed plus the resulting count.
	Remove(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID uint) (bool, int64, error)
	HasVoted(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID uint) (bool, error)
	LikeCount(ctx context.Context, entityType models.EntityType, entityID uint) (int64, error)
	DeleteForEntities(ctx context.Context, entityType models.EntityType, ids []uint) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func entityModel(t models.EntityType) any {
	if t == models.EntityReview {
		return &models.Review{}
	}
	return &models.Comment{}
}

func likeCount(tx *gorm.DB, t models.EntityType, id uint) (int64, error) {
	var counts []int64
	if err := tx.Model(entityModel(t)).Where("id = ?", id).Pluck("like_cnt", &counts).Error; err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return counts[0], nil
}

func (r *voteRepository) Add(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID uint) (bool, int64, error) {
	defer observability.TrackQuery("insert", "votes")()
	var (
		added bool
		count int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := likeCount(tx, entityType, entityID); err != nil {
			return err
		}
		vote := models.Vote{UserID: userID, EntityType: entityType, EntityID: entityID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			added = true
			err := tx.Model(entityModel(entityType)).
				Where("id = ?", entityID).
				UpdateColumn("like_cnt", gorm.Expr("like_cnt + ?", 1)).Error
			if err != nil {
				return err
			}
		}
		var err error
		count, err = likeCount(tx, entityType, entityID)
		return err
	})
	return added, count, err
}

func (r *voteRepository) Remove(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID uint) (bool, int64, error) {
	defer observability.TrackQuery("delete", "votes")()
	var (
		removed bool
		count   int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := likeCount(tx, entityType, entityID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
			Delete(&models.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			removed = true
			err := tx.Model(entityModel(entityType)).
				Where("id = ? AND like_cnt > 0", entityID).
				UpdateColumn("like_cnt", gorm.Expr("like_cnt - ?", 1)).Error
			if err != nil {
				return err
			}
		}
		var err error
		count, err = likeCount(tx, entityType, entityID)
		return err
	})
	return removed, count, err
}

func (r *voteRepository) HasVoted(ctx context.Context, userID uuid.UUID, entityType models.EntityType, entityID uint) (bool, error) {
	defer observability.TrackQuery("count", "votes")()
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Count(&n).Error
	return n > 0, err
}

func (r *voteRepository) LikeCount(ctx context.Context, entityType models.EntityType, entityID uint) (int64, error) {
	defer observability.TrackQuery("select", entityType.Table())()
	return likeCount(r.db.WithContext(ctx), entityType, entityID)
}

func (r *voteRepository) DeleteForEntities(ctx context.Context, entityType models.EntityType, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.TrackQuery("delete", "votes")()
	res := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id IN ?", entityType, ids).
		Delete(&models.Vote{})
	return res.RowsAffected, res.Error
}
