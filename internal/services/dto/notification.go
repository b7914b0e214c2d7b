package dto

import "time"

// ---------------- Requests ----------------

type CreateNotificationRequest struct {
	RecipientID string                 `json:"recipient_id" validate:"required,uuid"`
	Kind        string                 `json:"kind" validate:"required,notification_kind"`
	Priority    string                 `json:"priority" validate:"required,notification_priority"`
	Title       string                 `json:"title" validate:"required,max=200"`
	Body        string                 `json:"body" validate:"required"`
	Link        string                 `json:"link" validate:"omitempty,max=500"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type MarkManyReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1,dive,uuid"`
}

// ---------------- Responses ----------------

type NotificationResponse struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipient_id"`
	Kind        string                 `json:"kind"`
	Priority    string                 `json:"priority"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Link        string                 `json:"link,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	BroadcastID string                 `json:"broadcast_id,omitempty"`
	IsRead      bool                   `json:"is_read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NotificationListResponse carries the page plus the live unread count, so
// clients refresh their badge from the same poll.
type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int64                   `json:"total"`
	UnreadCount   int64                   `json:"unread_count"`
	Page          int                     `json:"page"`
	PageSize      int                     `json:"page_size"`
	TotalPages    int                     `json:"total_pages"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type AffectedCountResponse struct {
	Affected int64 `json:"affected"`
}

// ---------------- Criteria ----------------

type NotificationCriteria struct {
	Kind     string `form:"kind"`
	Priority string `form:"priority"`
	IsRead   *bool  `form:"is_read"`
	Page     int
	PageSize int
}
