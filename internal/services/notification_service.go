package services

import (
	"encoding/json"
	"fmt"

	"agritrack_backend/internal/cache"
	"agritrack_backend/internal/models"
	"agritrack_backend/internal/repositories"
	"agritrack_backend/internal/services/dto"
	"agritrack_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

const maxPageSize = 100

type NotificationService interface {
	// Create is the entry point for service-originated notifications
	// (system alerts, admin actions) and for broadcast fan-out.
	Create(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error)

	// Recipient-scoped inbox operations.
	Get(recipientID, notificationID string) (*dto.NotificationResponse, error)
	List(recipientID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	UnreadCount(recipientID string) (int64, error)
	MarkRead(recipientID, notificationID string) (*dto.NotificationResponse, error)
	MarkManyRead(recipientID string, notificationIDs []string) (int64, error)
	MarkAllRead(recipientID string) (int64, error)
	Delete(recipientID, notificationID string) error
	ClearAll(recipientID string) (int64, error)

	GetRecipientStats(recipientID string) (*repositories.NotificationStats, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	statsAggregator  StatsAggregator
	unreadCache      *cache.UnreadCache
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	statsAggregator StatsAggregator,
	unreadCache *cache.UnreadCache,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		statsAggregator:  statsAggregator,
		unreadCache:      unreadCache,
	}
}

func (s *notificationService) Create(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	var metadataJSON datatypes.JSON
	if req.Metadata != nil {
		jsonData, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification metadata: %w", err)
		}
		metadataJSON = datatypes.JSON(jsonData)
	}

	notification := &models.Notification{
		RecipientID: req.RecipientID,
		Kind:        models.NotificationKind(req.Kind),
		Priority:    models.NotificationPriority(req.Priority),
		Title:       req.Title,
		Body:        req.Body,
		Link:        req.Link,
		Metadata:    metadataJSON,
		IsRead:      false,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}

	s.unreadCache.Invalidate(req.RecipientID)

	return buildNotificationResponse(notification), nil
}

func (s *notificationService) Get(recipientID, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.notificationRepo.FindByID(recipientID, notificationID)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}
	return buildNotificationResponse(notification), nil
}

func (s *notificationService) List(recipientID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	repoCriteria := repositories.NotificationCriteria{
		Kind:     models.NotificationKind(criteria.Kind),
		Priority: models.NotificationPriority(criteria.Priority),
		IsRead:   criteria.IsRead,
		Page:     clampPage(criteria.Page),
		PageSize: clampPageSize(criteria.PageSize),
	}

	notifications, total, err := s.notificationRepo.FindForRecipient(recipientID, repoCriteria)
	if err != nil {
		return nil, err
	}

	unread, err := s.UnreadCount(recipientID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unread,
		Page:          repoCriteria.Page,
		PageSize:      repoCriteria.PageSize,
		TotalPages:    calculateTotalPages(total, repoCriteria.PageSize),
	}, nil
}

// UnreadCount serves the badge poll: cache hit when Redis is configured,
// indexed DB count otherwise.
func (s *notificationService) UnreadCount(recipientID string) (int64, error) {
	if count, ok := s.unreadCache.Get(recipientID); ok {
		return count, nil
	}

	count, err := s.notificationRepo.UnreadCount(recipientID)
	if err != nil {
		return 0, err
	}

	s.unreadCache.Set(recipientID, count)
	return count, nil
}

// MarkRead is idempotent: re-marking a read row succeeds and returns the row
// unchanged. Only a real unread->read transition reaches the stats
// aggregator, and exactly once.
func (s *notificationService) MarkRead(recipientID, notificationID string) (*dto.NotificationResponse, error) {
	transitioned, err := s.notificationRepo.MarkRead(recipientID, notificationID)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}

	notification, err := s.notificationRepo.FindByID(recipientID, notificationID)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}

	if transitioned {
		s.unreadCache.Invalidate(recipientID)
		if notification.BroadcastID != nil {
			s.statsAggregator.OnNotificationRead(*notification.BroadcastID)
		}
	}

	return buildNotificationResponse(notification), nil
}

// MarkManyRead marks the rows this recipient owns and skips ids that are
// foreign, absent, or already read; the affected count is returned.
func (s *notificationService) MarkManyRead(recipientID string, notificationIDs []string) (int64, error) {
	transitions, err := s.notificationRepo.MarkManyRead(recipientID, notificationIDs)
	if err != nil {
		return 0, err
	}

	if len(transitions) > 0 {
		s.unreadCache.Invalidate(recipientID)
		s.statsAggregator.OnNotificationsRead(transitions)
	}

	return int64(len(transitions)), nil
}

func (s *notificationService) MarkAllRead(recipientID string) (int64, error) {
	transitions, err := s.notificationRepo.MarkAllRead(recipientID)
	if err != nil {
		return 0, err
	}

	if len(transitions) > 0 {
		s.unreadCache.Invalidate(recipientID)
		s.statsAggregator.OnNotificationsRead(transitions)
	}

	return int64(len(transitions)), nil
}

// Delete soft-deletes; broadcast counters are untouched by design (a deleted
// read row keeps its read_count contribution).
func (s *notificationService) Delete(recipientID, notificationID string) error {
	if err := s.notificationRepo.SoftDelete(recipientID, notificationID); err != nil {
		return s.wrapRepoError(err)
	}
	s.unreadCache.Invalidate(recipientID)
	return nil
}

func (s *notificationService) ClearAll(recipientID string) (int64, error) {
	affected, err := s.notificationRepo.SoftDeleteAll(recipientID)
	if err != nil {
		return 0, err
	}
	s.unreadCache.Invalidate(recipientID)
	return affected, nil
}

func (s *notificationService) GetRecipientStats(recipientID string) (*repositories.NotificationStats, error) {
	return s.notificationRepo.GetRecipientStats(recipientID)
}

func (s *notificationService) wrapRepoError(err error) error {
	if apperrors.Is(err, repositories.ErrNotificationNotFound) {
		return apperrors.ErrNotFound(err, "notification")
	}
	return err
}

func buildNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	resp := &dto.NotificationResponse{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Kind:        string(n.Kind),
		Priority:    string(n.Priority),
		Title:       n.Title,
		Body:        n.Body,
		Link:        n.Link,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}

	if n.BroadcastID != nil {
		resp.BroadcastID = *n.BroadcastID
	}

	if len(n.Metadata) > 0 {
		var metadata map[string]interface{}
		if err := json.Unmarshal(n.Metadata, &metadata); err == nil {
			resp.Metadata = metadata
		}
	}

	return resp
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampPageSize(pageSize int) int {
	if pageSize < 1 {
		return 20
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return int(pages)
}
