package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names an entity that can be liked.
type EntityType string

const (
	EntityComment EntityType = "comment"
	EntityReview  EntityType = "review"
)

// Valid reports whether t can carry likes.
func (t EntityType) Valid() bool {
	return t == EntityComment || t == EntityReview
}

// Table returns the table holding the like_cnt column for t.
func (t EntityType) Table() string {
	switch t {
	case EntityComment:
		return Comment{}.TableName()
	case EntityReview:
		return Review{}.TableName()
	}
	return ""
}

// Vote records that a user liked an entity.
// The combination of UserID, EntityType and EntityID must be unique.
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_entity" json:"user_id"`
	EntityType EntityType `gorm:"type:varchar(20);not null;uniqueIndex:idx_votes_user_entity;index:idx_votes_entity" json:"entity_type"`
	EntityID   uint       `gorm:"not null;uniqueIndex:idx_votes_user_entity;index:idx_votes_entity" json:"entity_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Vote) TableName() string {
	return "votes"
}

// LikeState is returned by like/unlike operations.
type LikeState struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   uint       `json:"entity_id"`
	Liked      bool       `json:"liked"`
	LikeCount  int64      `json:"like_count"`
}
