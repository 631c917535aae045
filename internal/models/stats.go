package models

import "github.com/google/uuid"

// RatingBucket is one star level of a rating histogram.
type RatingBucket struct {
	Stars      int     `json:"stars"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RatingStats summarizes the reviews of a novel.
type RatingStats struct {
	NovelID       uint           `json:"novel_id"`
	TotalReviews  int64          `json:"total_reviews"`
	AverageRating float64        `json:"average_rating"`
	Histogram     []RatingBucket `json:"histogram"`
}

// UserActivity is a user and how many rows they produced.
type UserActivity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Count    int64     `json:"count"`
}

// ChapterActivity is a chapter and its comment count.
type ChapterActivity struct {
	ChapterID uint  `json:"chapter_id"`
	Count     int64 `json:"count"`
}

// CommentActivity is comment volume over a trailing window.
type CommentActivity struct {
	Days                 int              `json:"days"`
	CommentCount         int64            `json:"comment_count"`
	MostActiveUser       *UserActivity    `json:"most_active_user,omitempty"`
	MostCommentedChapter *ChapterActivity `json:"most_commented_chapter,omitempty"`
}

// ReportedContent is a content item and how many reports name it.
type ReportedContent struct {
	ContentType ReportContentType `json:"content_type"`
	ContentID   uint              `json:"content_id"`
	ReportCount int64             `json:"report_count"`
}

// ModerationDashboard is the admin overview.
type ModerationDashboard struct {
	StatusCounts map[ReportStatus]int64 `json:"status_counts"`
	MostReported []ReportedContent      `json:"most_reported"`
	Activity     CommentActivity        `json:"activity"`
}
