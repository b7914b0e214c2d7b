package models

import (
	"time"

	"gorm.io/datatypes"
)

// BroadcastStatus lifecycle: pending -> sending -> completed | failed.
// Transitions only move forward; completed and failed are terminal.
type BroadcastStatus string

const (
	BroadcastStatusPending   BroadcastStatus = "pending"
	BroadcastStatusSending   BroadcastStatus = "sending"
	BroadcastStatusCompleted BroadcastStatus = "completed"
	BroadcastStatusFailed    BroadcastStatus = "failed"
)

// CanTransitionTo reports whether the status machine allows moving to next.
func (s BroadcastStatus) CanTransitionTo(next BroadcastStatus) bool {
	switch s {
	case BroadcastStatusPending:
		return next == BroadcastStatusSending || next == BroadcastStatusFailed
	case BroadcastStatusSending:
		return next == BroadcastStatusCompleted || next == BroadcastStatusFailed
	default:
		// completed / failed are terminal
		return false
	}
}

// BroadcastRecipientType selects how the recipient set is resolved.
type BroadcastRecipientType string

const (
	RecipientTypeAll        BroadcastRecipientType = "all"
	RecipientTypeByDistrict BroadcastRecipientType = "by_district"
	RecipientTypeByRegion   BroadcastRecipientType = "by_region"
	RecipientTypeByRole     BroadcastRecipientType = "by_role"
)

func (t BroadcastRecipientType) Valid() bool {
	switch t {
	case RecipientTypeAll, RecipientTypeByDistrict, RecipientTypeByRegion, RecipientTypeByRole:
		return true
	}
	return false
}

// Broadcast is an admin-authored message plus its targeting rule and the
// running delivery/read counters. Content and targeting are immutable after
// creation; only status, counters and the sent/completed timestamps advance.
//
// Invariant: 0 <= ReadCount <= DeliveredCount <= TotalRecipients.
// TotalRecipients is a snapshot taken at send time, not a live query.
type Broadcast struct {
	BaseModel
	SenderID string                 `gorm:"type:uuid;not null;index" json:"sender_id"`
	Title    string                 `gorm:"type:varchar(200);not null" json:"title"`
	Body     string                 `gorm:"type:text;not null" json:"body"`
	Priority NotificationPriority   `gorm:"type:varchar(20);not null" json:"priority"`
	Link     string                 `gorm:"type:varchar(500)" json:"link,omitempty"`

	RecipientType   BroadcastRecipientType `gorm:"type:varchar(50);not null" json:"recipient_type"`
	RecipientFilter datatypes.JSON         `gorm:"type:jsonb" json:"recipient_filter,omitempty"`

	TotalRecipients int64 `gorm:"not null;default:0" json:"total_recipients"`
	DeliveredCount  int64 `gorm:"not null;default:0" json:"delivered_count"`
	ReadCount       int64 `gorm:"not null;default:0" json:"read_count"`

	Status BroadcastStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
