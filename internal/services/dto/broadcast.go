package dto

import "time"

// ---------------- Requests ----------------

// CreateBroadcastRequest carries authored content plus the targeting rule.
// Exactly one of the id lists is consulted, selected by RecipientType; the
// others are ignored.
type CreateBroadcastRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Body     string `json:"body" validate:"required"`
	Priority string `json:"priority" validate:"required,notification_priority"`
	Link     string `json:"link" validate:"omitempty,max=500"`

	RecipientType string   `json:"recipient_type" validate:"required,recipient_type"`
	DistrictIDs   []string `json:"district_ids" validate:"omitempty,dive,uuid"`
	RegionIDs     []string `json:"region_ids" validate:"omitempty,dive,uuid"`
	RoleIDs       []string `json:"role_ids" validate:"omitempty,dive,min=1"`
}

// ---------------- Responses ----------------

type BroadcastResponse struct {
	ID              string                 `json:"id"`
	SenderID        string                 `json:"sender_id"`
	Title           string                 `json:"title"`
	Body            string                 `json:"body"`
	Priority        string                 `json:"priority"`
	Link            string                 `json:"link,omitempty"`
	RecipientType   string                 `json:"recipient_type"`
	RecipientFilter map[string]interface{} `json:"recipient_filter,omitempty"`
	TotalRecipients int64                  `json:"total_recipients"`
	DeliveredCount  int64                  `json:"delivered_count"`
	ReadCount       int64                  `json:"read_count"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	SentAt          *time.Time             `json:"sent_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

type BroadcastListResponse struct {
	Broadcasts []*BroadcastResponse `json:"broadcasts"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

type BroadcastStatsResponse struct {
	BroadcastID     string  `json:"broadcast_id"`
	TotalRecipients int64   `json:"total_recipients"`
	DeliveredCount  int64   `json:"delivered_count"`
	ReadCount       int64   `json:"read_count"`
	UnreadCount     int64   `json:"unread_count"`
	ReadPercentage  float64 `json:"read_percentage"`
}

// ---------------- Criteria ----------------

type BroadcastCriteria struct {
	Status   string `form:"status"`
	Page     int
	PageSize int
}
