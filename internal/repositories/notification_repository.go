package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agritrack_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
)

// ReadTransition reports one notification that actually flipped from unread
// to read, with the broadcast it belongs to (empty for non-broadcast rows).
// The stats aggregator consumes these to bump broadcast read counters exactly
// once per transition.
type ReadTransition struct {
	NotificationID string
	BroadcastID    string
}

type NotificationRepository interface {
	Create(notification *models.Notification) error
	// CreateBatch inserts rows in batches and returns how many made it in.
	// A failed batch falls back to per-row inserts so one bad row cannot
	// sink the rest of a broadcast fan-out.
	CreateBatch(notifications []*models.Notification, batchSize int) (int64, error)

	// All read/mutation paths below are scoped to recipientID and exclude
	// soft-deleted rows.
	FindByID(recipientID, notificationID string) (*models.Notification, error)
	FindForRecipient(recipientID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	UnreadCount(recipientID string) (int64, error)

	// MarkRead flips is_read with a conditional UPDATE; transitioned is
	// false when the row was already read (idempotent re-marks).
	MarkRead(recipientID, notificationID string) (transitioned bool, err error)
	MarkManyRead(recipientID string, notificationIDs []string) ([]ReadTransition, error)
	MarkAllRead(recipientID string) ([]ReadTransition, error)

	SoftDelete(recipientID, notificationID string) error
	SoftDeleteAll(recipientID string) (int64, error)

	GetRecipientStats(recipientID string) (*NotificationStats, error)

	// CountForBroadcast recounts delivered/read rows for one broadcast,
	// including soft-deleted rows (deletion never changes broadcast
	// accounting). Used by the stats reconciler, never on the hot path.
	CountForBroadcast(broadcastID string) (delivered, read int64, err error)
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NotificationCriteria filters FindForRecipient. Zero values mean "no filter".
type NotificationCriteria struct {
	Kind     models.NotificationKind
	Priority models.NotificationPriority
	IsRead   *bool
	Page     int
	PageSize int
}

// NotificationStats summarizes one recipient's inbox.
type NotificationStats struct {
	Total       int64            `json:"total"`
	UnreadCount int64            `json:"unread_count"`
	ReadCount   int64            `json:"read_count"`
	ByKind      map[string]int64 `json:"by_kind"`
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

// active scopes a query to live (not soft-deleted) rows of one recipient.
func (r *NotificationRepositoryImpl) active(recipientID string) *gorm.DB {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND deleted_at IS NULL", recipientID)
}

func (r *NotificationRepositoryImpl) Create(notification *models.Notification) error {
	if err := r.validateNotification(notification); err != nil {
		return err
	}
	return r.db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) CreateBatch(notifications []*models.Notification, batchSize int) (int64, error) {
	if len(notifications) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	for _, notification := range notifications {
		if err := r.validateNotification(notification); err != nil {
			return 0, err
		}
	}

	var delivered int64
	for start := 0; start < len(notifications); start += batchSize {
		end := start + batchSize
		if end > len(notifications) {
			end = len(notifications)
		}
		chunk := notifications[start:end]

		if err := r.db.Create(chunk).Error; err == nil {
			delivered += int64(len(chunk))
			continue
		}

		// Batch insert failed; retry row by row so we only lose the rows
		// that are actually bad.
		for _, n := range chunk {
			if err := r.db.Create(n).Error; err == nil {
				delivered++
			}
		}
	}

	return delivered, nil
}

func (r *NotificationRepositoryImpl) FindByID(recipientID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.active(recipientID).
		Where("id = ?", notificationID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindForRecipient(recipientID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	query := r.active(recipientID)

	if criteria.Kind != "" {
		query = query.Where("kind = ?", criteria.Kind)
	}
	if criteria.Priority != "" {
		query = query.Where("priority = ?", criteria.Priority)
	}
	if criteria.IsRead != nil {
		query = query.Where("is_read = ?", *criteria.IsRead)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	var notifications []models.Notification
	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

// UnreadCount is served by the composite index on (recipient_id, is_read),
// never a table scan.
func (r *NotificationRepositoryImpl) UnreadCount(recipientID string) (int64, error) {
	var count int64
	err := r.active(recipientID).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkRead(recipientID, notificationID string) (bool, error) {
	now := time.Now()

	// Conditional update: only an unread row is touched, so two concurrent
	// mark-reads of the same row produce exactly one transition.
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ? AND deleted_at IS NULL", notificationID, recipientID, false).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Nothing flipped: either already read (fine, idempotent) or the row
	// does not exist for this recipient.
	if _, err := r.FindByID(recipientID, notificationID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *NotificationRepositoryImpl) MarkManyRead(recipientID string, notificationIDs []string) ([]ReadTransition, error) {
	if len(notificationIDs) == 0 {
		return nil, nil
	}
	return r.markReadReturning("recipient_id = ? AND id IN ? AND is_read = ? AND deleted_at IS NULL",
		recipientID, notificationIDs, false)
}

func (r *NotificationRepositoryImpl) MarkAllRead(recipientID string) ([]ReadTransition, error) {
	return r.markReadReturning("recipient_id = ? AND is_read = ? AND deleted_at IS NULL",
		recipientID, false)
}

// markReadReturning runs the batch flip with RETURNING so the exact set of
// transitioned rows comes back from the same statement. Re-selecting after
// the UPDATE would race with concurrent single-row mark-reads.
func (r *NotificationRepositoryImpl) markReadReturning(cond string, args ...interface{}) ([]ReadTransition, error) {
	now := time.Now()

	var updated []models.Notification
	result := r.db.Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "broadcast_id"}}}).
		Where(cond, args...).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	transitions := make([]ReadTransition, 0, len(updated))
	for _, n := range updated {
		t := ReadTransition{NotificationID: n.ID}
		if n.BroadcastID != nil {
			t.BroadcastID = *n.BroadcastID
		}
		transitions = append(transitions, t)
	}
	return transitions, nil
}

func (r *NotificationRepositoryImpl) SoftDelete(recipientID, notificationID string) error {
	now := time.Now()
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND deleted_at IS NULL", notificationID, recipientID).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) SoftDeleteAll(recipientID string) (int64, error) {
	now := time.Now()
	result := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND deleted_at IS NULL", recipientID).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) GetRecipientStats(recipientID string) (*NotificationStats, error) {
	var stats NotificationStats

	if err := r.active(recipientID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if err := r.active(recipientID).Where("is_read = ?", false).Count(&stats.UnreadCount).Error; err != nil {
		return nil, err
	}
	stats.ReadCount = stats.Total - stats.UnreadCount

	stats.ByKind = make(map[string]int64)
	var kindStats []struct {
		Kind  string
		Count int64
	}
	err := r.active(recipientID).
		Select("kind, COUNT(*) as count").
		Group("kind").Scan(&kindStats).Error
	if err != nil {
		return nil, err
	}
	for _, ks := range kindStats {
		stats.ByKind[ks.Kind] = ks.Count
	}

	return &stats, nil
}

func (r *NotificationRepositoryImpl) CountForBroadcast(broadcastID string) (int64, int64, error) {
	var delivered int64
	if err := r.db.Model(&models.Notification{}).
		Where("broadcast_id = ?", broadcastID).
		Count(&delivered).Error; err != nil {
		return 0, 0, err
	}

	var read int64
	if err := r.db.Model(&models.Notification{}).
		Where("broadcast_id = ? AND is_read = ?", broadcastID, true).
		Count(&read).Error; err != nil {
		return 0, 0, err
	}

	return delivered, read, nil
}

func (r *NotificationRepositoryImpl) validateNotification(notification *models.Notification) error {
	if notification.RecipientID == "" {
		return errors.New("recipient ID is required")
	}
	if notification.Title == "" {
		return errors.New("notification title is required")
	}
	if len(notification.Title) > 200 {
		return errors.New("notification title exceeds 200 characters")
	}
	if notification.Body == "" {
		return errors.New("notification body is required")
	}
	if len(notification.Link) > 500 {
		return errors.New("notification link exceeds 500 characters")
	}
	if !notification.Kind.Valid() {
		return fmt.Errorf("invalid notification kind: %s", notification.Kind)
	}
	if !notification.Priority.Valid() {
		return fmt.Errorf("invalid notification priority: %s", notification.Priority)
	}
	if len(notification.Metadata) > 0 && !json.Valid(notification.Metadata) {
		return ErrInvalidNotificationData
	}
	return nil
}
