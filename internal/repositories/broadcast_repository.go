package repositories

import (
	"errors"
	"time"

	"agritrack_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrBroadcastNotFound = errors.New("broadcast not found")
	// ErrBroadcastStatusConflict means a guarded status update matched no
	// row: the broadcast moved on (or never existed). The status machine is
	// strictly forward, so this is never retried.
	ErrBroadcastStatusConflict = errors.New("broadcast status conflict")
)

type BroadcastRepository interface {
	Create(broadcast *models.Broadcast) error
	FindByID(id string) (*models.Broadcast, error)
	FindAll(criteria BroadcastCriteria) ([]models.Broadcast, int64, error)

	// Guarded lifecycle transitions. Each update carries the expected
	// current status in its WHERE clause, keeping transitions monotonic
	// under concurrency.
	MarkSending(id string) error
	Complete(id string, totalRecipients, deliveredCount int64) error
	Fail(id string) error

	// IncrementReadCount is the single atomic primitive behind broadcast
	// read accounting: a database-side counter bump, never read-modify-write
	// in the application.
	IncrementReadCount(id string, delta int64) error

	// SetCounters overwrites both counters; reconciler repair only.
	SetCounters(id string, deliveredCount, readCount int64) error
	FindForReconcile(olderThan time.Time, limit int) ([]models.Broadcast, error)
}

type BroadcastRepositoryImpl struct {
	db *gorm.DB
}

type BroadcastCriteria struct {
	Status   models.BroadcastStatus
	SenderID string
	Page     int
	PageSize int
}

func NewBroadcastRepository(db *gorm.DB) BroadcastRepository {
	return &BroadcastRepositoryImpl{db: db}
}

func (r *BroadcastRepositoryImpl) Create(broadcast *models.Broadcast) error {
	return r.db.Create(broadcast).Error
}

func (r *BroadcastRepositoryImpl) FindByID(id string) (*models.Broadcast, error) {
	var broadcast models.Broadcast
	err := r.db.First(&broadcast, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBroadcastNotFound
		}
		return nil, err
	}
	return &broadcast, nil
}

func (r *BroadcastRepositoryImpl) FindAll(criteria BroadcastCriteria) ([]models.Broadcast, int64, error) {
	query := r.db.Model(&models.Broadcast{})

	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.SenderID != "" {
		query = query.Where("sender_id = ?", criteria.SenderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	var broadcasts []models.Broadcast
	err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&broadcasts).Error

	return broadcasts, total, err
}

func (r *BroadcastRepositoryImpl) MarkSending(id string) error {
	now := time.Now()
	return r.guardedUpdate(id, models.BroadcastStatusPending, map[string]interface{}{
		"status":     models.BroadcastStatusSending,
		"sent_at":    now,
		"updated_at": now,
	})
}

func (r *BroadcastRepositoryImpl) Complete(id string, totalRecipients, deliveredCount int64) error {
	now := time.Now()
	return r.guardedUpdate(id, models.BroadcastStatusSending, map[string]interface{}{
		"status":           models.BroadcastStatusCompleted,
		"total_recipients": totalRecipients,
		"delivered_count":  deliveredCount,
		"completed_at":     now,
		"updated_at":       now,
	})
}

// Fail is reachable from both pending (validation-stage failure) and sending
// (resolver failure), so it guards on either.
func (r *BroadcastRepositoryImpl) Fail(id string) error {
	now := time.Now()
	result := r.db.Model(&models.Broadcast{}).
		Where("id = ? AND status IN ?", id, []models.BroadcastStatus{models.BroadcastStatusPending, models.BroadcastStatusSending}).
		Updates(map[string]interface{}{
			"status":           models.BroadcastStatusFailed,
			"total_recipients": 0,
			"completed_at":     now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBroadcastStatusConflict
	}
	return nil
}

func (r *BroadcastRepositoryImpl) IncrementReadCount(id string, delta int64) error {
	if delta <= 0 {
		return nil
	}
	result := r.db.Model(&models.Broadcast{}).
		Where("id = ?", id).
		UpdateColumn("read_count", gorm.Expr("read_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBroadcastNotFound
	}
	return nil
}

func (r *BroadcastRepositoryImpl) SetCounters(id string, deliveredCount, readCount int64) error {
	result := r.db.Model(&models.Broadcast{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivered_count": deliveredCount,
			"read_count":      readCount,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBroadcastNotFound
	}
	return nil
}

// FindForReconcile returns completed broadcasts to verify for counter drift,
// oldest-checked first.
func (r *BroadcastRepositoryImpl) FindForReconcile(olderThan time.Time, limit int) ([]models.Broadcast, error) {
	var broadcasts []models.Broadcast
	err := r.db.Where("status = ? AND updated_at < ?", models.BroadcastStatusCompleted, olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&broadcasts).Error
	return broadcasts, err
}

func (r *BroadcastRepositoryImpl) guardedUpdate(id string, expected models.BroadcastStatus, fields map[string]interface{}) error {
	result := r.db.Model(&models.Broadcast{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBroadcastStatusConflict
	}
	return nil
}
