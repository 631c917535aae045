package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review limits.
const (
	MinRating       = 1
	MaxRating       = 5
	ReviewMinLength = 1
	ReviewMaxLength = 5000
)

// Review is a user's rating of a novel. At most one review exists per
// (UserID, NovelID); the storage unique index is the real guarantee.
// Reviews are hard-deleted so the author may review the novel again.
type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"uuid"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_novel" json:"user_id"`
	NovelID   uint           `gorm:"not null;uniqueIndex:idx_reviews_user_novel;index" json:"novel_id"`
	Rating    int            `gorm:"not null" json:"rating"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	LikeCnt   int64          `gorm:"not null;default:0" json:"like_cnt"`
	CreatedAt time.Time      `gorm:"index" json:"create_time"`
	UpdatedAt time.Time      `json:"update_time"`

	Username string `gorm:"-" json:"username,omitempty"`
}

// TableName specifies the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate assigns the public identifier.
func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

// ReviewFilter narrows a review search.
type ReviewFilter struct {
	IDs       []uint
	UserID    *uuid.UUID
	NovelID   *uint
	MinRating *int
	Keyword   string
	PageRequest
}

// ReviewChanges is a selective update for reviews.
type ReviewChanges struct {
	Rating  *int
	Content *string
}

func (c ReviewChanges) Empty() bool {
	return c.Rating == nil && c.Content == nil
}

func (c ReviewChanges) Columns() map[string]any {
	cols := map[string]any{}
	if c.Rating != nil {
		cols["rating"] = *c.Rating
	}
	if c.Content != nil {
		cols["content"] = *c.Content
	}
	return cols
}
