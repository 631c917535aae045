// Package models contains data structures for the engagement domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment limits.
const (
	CommentMinLength = 1
	CommentMaxLength = 2000
)

// Comment is a reader comment on a chapter.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ChapterID uint           `gorm:"not null;index" json:"chapter_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	IsSpoiler bool           `gorm:"not null;default:false" json:"is_spoiler"`
	LikeCnt   int64          `gorm:"not null;default:0" json:"like_cnt"`
	CreatedAt time.Time      `gorm:"index" json:"create_time"`
	UpdatedAt time.Time      `json:"update_time"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Username is resolved from the user service and never persisted.
	Username string `gorm:"-" json:"username,omitempty"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// CommentFilter narrows a comment search.
type CommentFilter struct {
	IDs       []uint
	UserID    *uuid.UUID
	ChapterID *uint
	IsSpoiler *bool
	Keyword   string
	PageRequest
}

// CommentChanges is a selective update; nil fields are left untouched.
type CommentChanges struct {
	Content   *string
	IsSpoiler *bool
}

// Empty reports whether no field is set.
func (c CommentChanges) Empty() bool {
	return c.Content == nil && c.IsSpoiler == nil
}

// Columns returns the column map GORM applies.
func (c CommentChanges) Columns() map[string]any {
	cols := map[string]any{}
	if c.Content != nil {
		cols["content"] = *c.Content
	}
	if c.IsSpoiler != nil {
		cols["is_spoiler"] = *c.IsSpoiler
	}
	return cols
}
