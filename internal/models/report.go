package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStatus defines lifecycle states for abuse reports.
type ReportStatus string

const (
	// ReportStatusInReview is the initial state; only it accepts a resolution.
	ReportStatusInReview ReportStatus = "IN_REVIEW"
	// ReportStatusResolved is terminal: the report was acted upon.
	ReportStatusResolved ReportStatus = "RESOLVED"
	// ReportStatusDismissed is terminal: the report was rejected.
	ReportStatusDismissed ReportStatus = "DISMISSED"
)

// IsTerminal reports whether no further transition is permitted.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	return s == ReportStatusInReview && next.IsTerminal()
}

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusInReview || s.IsTerminal()
}

// ReportContentType names what is being reported.
type ReportContentType string

const (
	ReportContentNovel   ReportContentType = "NOVEL"
	ReportContentChapter ReportContentType = "CHAPTER"
	ReportContentComment ReportContentType = "COMMENT"
	ReportContentReview  ReportContentType = "REVIEW"
	ReportContentUser    ReportContentType = "USER"
)

// Valid reports whether t is a known content type.
func (t ReportContentType) Valid() bool {
	switch t {
	case ReportContentNovel, ReportContentChapter, ReportContentComment, ReportContentReview, ReportContentUser:
		return true
	}
	return false
}

// ReportType classifies the abuse.
type ReportType string

const (
	ReportTypeSpam          ReportType = "SPAM"
	ReportTypeHarassment    ReportType = "HARASSMENT"
	ReportTypeSpoiler       ReportType = "SPOILER"
	ReportTypeInappropriate ReportType = "INAPPROPRIATE"
	ReportTypeCopyright     ReportType = "COPYRIGHT"
	ReportTypeOther         ReportType = "OTHER"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeSpam, ReportTypeHarassment, ReportTypeSpoiler, ReportTypeInappropriate, ReportTypeCopyright, ReportTypeOther:
		return true
	}
	return false
}

// Report limits.
const (
	ReportReasonMaxLength = 1000
	AdminNotesMaxLength   = 1000
)

// Report is a user-submitted abuse report. At most one IN_REVIEW report exists
// per (ReporterID, ContentType, ContentID), enforced by a partial unique index.
type Report struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"uuid"`
	ReporterID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ContentType ReportContentType `gorm:"type:varchar(20);not null;index:idx_reports_content" json:"content_type"`
	ContentID   uint              `gorm:"not null;index:idx_reports_content" json:"content_id"`
	ReportType  ReportType        `gorm:"type:varchar(20);not null" json:"report_type"`
	Reason      string            `gorm:"type:text;not null;default:''" json:"reason"`
	Status      ReportStatus      `gorm:"type:varchar(20);not null;default:'IN_REVIEW';index" json:"status"`
	AdminNotes  string            `gorm:"type:text;not null;default:''" json:"admin_notes"`
	ResolvedBy  *uuid.UUID        `gorm:"type:uuid" json:"resolved_by,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM.
func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(_ *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ReportStatusInReview
	}
	return nil
}

// ReportFilter narrows a report search.
type ReportFilter struct {
	IDs         []uint
	ReporterID  *uuid.UUID
	ContentType *ReportContentType
	ContentID   *uint
	Status      *ReportStatus
	Keyword     string
	PageRequest
}

// Resolution is a moderation action on an IN_REVIEW report.
type Resolution struct {
	Action     ReportStatus
	AdminNotes string
	ResolvedBy uuid.UUID
}
