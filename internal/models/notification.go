package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationKind categorizes where a notification came from.
type NotificationKind string

const (
	NotificationKindSystem         NotificationKind = "system"
	NotificationKindUserActivity   NotificationKind = "user_activity"
	NotificationKindAdminAction    NotificationKind = "admin_action"
	NotificationKindAdminBroadcast NotificationKind = "admin_broadcast"
	NotificationKindDataChange     NotificationKind = "data_change"
	NotificationKindAlert          NotificationKind = "alert"
)

// NotificationPriority levels, low to urgent.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindSystem, NotificationKindUserActivity, NotificationKindAdminAction,
		NotificationKindAdminBroadcast, NotificationKindDataChange, NotificationKindAlert:
		return true
	}
	return false
}

func (p NotificationPriority) Valid() bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityMedium, NotificationPriorityHigh, NotificationPriorityUrgent:
		return true
	}
	return false
}

// Notification is one recipient's inbox entry. Rows are soft-deleted only
// (DeletedAt is set, never removed) so broadcast accounting stays intact.
//
// Invariant: ReadAt is non-nil iff IsRead is true.
type Notification struct {
	BaseModel
	RecipientID string               `gorm:"type:uuid;not null;index:idx_notifications_recipient_unread,priority:1" json:"recipient_id"`
	Kind        NotificationKind     `gorm:"type:varchar(50);not null;index" json:"kind"`
	Priority    NotificationPriority `gorm:"type:varchar(20);not null" json:"priority"`
	Title       string               `gorm:"type:varchar(200);not null" json:"title"`
	Body        string               `gorm:"type:text;not null" json:"body"`
	Link        string               `gorm:"type:varchar(500)" json:"link,omitempty"`
	Metadata    datatypes.JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`

	// BroadcastID ties the row to the broadcast that fanned it out.
	// Set once at creation, never mutated afterward.
	BroadcastID *string `gorm:"type:uuid;index" json:"broadcast_id,omitempty"`

	IsRead bool       `gorm:"not null;default:false;index:idx_notifications_recipient_unread,priority:2" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	// Soft delete. Deliberately a plain nullable column instead of
	// gorm.DeletedAt: deleted rows must stay reachable for the stats
	// reconciler, so the query layer filters explicitly.
	DeletedAt *time.Time `gorm:"index" json:"-"`
}
