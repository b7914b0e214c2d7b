package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"agritrack_backend/internal/models"
	"agritrack_backend/internal/repositories"
)

// In-memory repository fakes. They reproduce the contracts the real
// GORM-backed repositories document: recipient scoping, conditional read
// transitions, guarded broadcast status updates.

type fakeNotificationRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*models.Notification

	// failRecipients makes CreateBatch silently skip these recipients,
	// simulating rows rejected during a fan-out.
	failRecipients map[string]bool
	createErr      error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		rows:           make(map[string]*models.Notification),
		failRecipients: make(map[string]bool),
	}
}

func (f *fakeNotificationRepo) nextID() string {
	f.seq++
	return fmt.Sprintf("n-%04d", f.seq)
}

func (f *fakeNotificationRepo) Create(n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == "" {
		n.ID = f.nextID()
	}
	n.CreatedAt = time.Now()
	clone := *n
	f.rows[n.ID] = &clone
	return nil
}

func (f *fakeNotificationRepo) CreateBatch(notifications []*models.Notification, batchSize int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var inserted int64
	var skipped bool
	for _, n := range notifications {
		if f.failRecipients[n.RecipientID] {
			skipped = true
			continue
		}
		if n.ID == "" {
			n.ID = f.nextID()
		}
		n.CreatedAt = time.Now()
		clone := *n
		f.rows[n.ID] = &clone
		inserted++
	}
	if skipped {
		return inserted, errors.New("some rows were skipped")
	}
	return inserted, nil
}

func (f *fakeNotificationRepo) find(recipientID, notificationID string) *models.Notification {
	n, ok := f.rows[notificationID]
	if !ok || n.RecipientID != recipientID || n.DeletedAt != nil {
		return nil
	}
	return n
}

func (f *fakeNotificationRepo) FindByID(recipientID, notificationID string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(recipientID, notificationID)
	if n == nil {
		return nil, repositories.ErrNotificationNotFound
	}
	clone := *n
	return &clone, nil
}

func (f *fakeNotificationRepo) FindForRecipient(recipientID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Notification
	for _, n := range f.rows {
		if n.RecipientID != recipientID || n.DeletedAt != nil {
			continue
		}
		if criteria.Kind != "" && n.Kind != criteria.Kind {
			continue
		}
		if criteria.Priority != "" && n.Priority != criteria.Priority {
			continue
		}
		if criteria.IsRead != nil && n.IsRead != *criteria.IsRead {
			continue
		}
		matched = append(matched, *n)
	}
	total := int64(len(matched))

	// No ordering or paging fidelity needed beyond slicing.
	start := (criteria.Page - 1) * criteria.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + criteria.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeNotificationRepo) UnreadCount(recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.rows {
		if n.RecipientID == recipientID && n.DeletedAt == nil && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(recipientID, notificationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(recipientID, notificationID)
	if n == nil {
		return false, repositories.ErrNotificationNotFound
	}
	if n.IsRead {
		return false, nil
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	return true, nil
}

func (f *fakeNotificationRepo) MarkManyRead(recipientID string, notificationIDs []string) ([]repositories.ReadTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var transitions []repositories.ReadTransition
	now := time.Now()
	for _, id := range notificationIDs {
		n := f.find(recipientID, id)
		if n == nil || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		tr := repositories.ReadTransition{NotificationID: n.ID}
		if n.BroadcastID != nil {
			tr.BroadcastID = *n.BroadcastID
		}
		transitions = append(transitions, tr)
	}
	return transitions, nil
}

func (f *fakeNotificationRepo) MarkAllRead(recipientID string) ([]repositories.ReadTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var transitions []repositories.ReadTransition
	now := time.Now()
	for _, n := range f.rows {
		if n.RecipientID != recipientID || n.DeletedAt != nil || n.IsRead {
			continue
		}
		n.IsRead = true
		n.ReadAt = &now
		tr := repositories.ReadTransition{NotificationID: n.ID}
		if n.BroadcastID != nil {
			tr.BroadcastID = *n.BroadcastID
		}
		transitions = append(transitions, tr)
	}
	return transitions, nil
}

func (f *fakeNotificationRepo) SoftDelete(recipientID, notificationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(recipientID, notificationID)
	if n == nil {
		return repositories.ErrNotificationNotFound
	}
	now := time.Now()
	n.DeletedAt = &now
	return nil
}

func (f *fakeNotificationRepo) SoftDeleteAll(recipientID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var affected int64
	now := time.Now()
	for _, n := range f.rows {
		if n.RecipientID == recipientID && n.DeletedAt == nil {
			n.DeletedAt = &now
			affected++
		}
	}
	return affected, nil
}

func (f *fakeNotificationRepo) GetRecipientStats(recipientID string) (*repositories.NotificationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repositories.NotificationStats{ByKind: make(map[string]int64)}
	for _, n := range f.rows {
		if n.RecipientID != recipientID || n.DeletedAt != nil {
			continue
		}
		stats.Total++
		if n.IsRead {
			stats.ReadCount++
		} else {
			stats.UnreadCount++
		}
		stats.ByKind[string(n.Kind)]++
	}
	return stats, nil
}

func (f *fakeNotificationRepo) CountForBroadcast(broadcastID string) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var delivered, read int64
	for _, n := range f.rows {
		if n.BroadcastID == nil || *n.BroadcastID != broadcastID {
			continue
		}
		delivered++
		if n.IsRead {
			read++
		}
	}
	return delivered, read, nil
}

type fakeBroadcastRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*models.Broadcast

	createErr      error
	completeErr    error
	markSendingErr error
}

func newFakeBroadcastRepo() *fakeBroadcastRepo {
	return &fakeBroadcastRepo{rows: make(map[string]*models.Broadcast)}
}

func (f *fakeBroadcastRepo) Create(b *models.Broadcast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if b.ID == "" {
		f.seq++
		b.ID = fmt.Sprintf("b-%04d", f.seq)
	}
	b.CreatedAt = time.Now()
	clone := *b
	f.rows[b.ID] = &clone
	return nil
}

func (f *fakeBroadcastRepo) FindByID(id string) (*models.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, repositories.ErrBroadcastNotFound
	}
	clone := *b
	return &clone, nil
}

func (f *fakeBroadcastRepo) FindAll(criteria repositories.BroadcastCriteria) ([]models.Broadcast, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Broadcast
	for _, b := range f.rows {
		if criteria.Status != "" && b.Status != criteria.Status {
			continue
		}
		matched = append(matched, *b)
	}
	return matched, int64(len(matched)), nil
}

func (f *fakeBroadcastRepo) MarkSending(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markSendingErr != nil {
		return f.markSendingErr
	}
	b, ok := f.rows[id]
	if !ok || b.Status != models.BroadcastStatusPending {
		return repositories.ErrBroadcastStatusConflict
	}
	now := time.Now()
	b.Status = models.BroadcastStatusSending
	b.SentAt = &now
	return nil
}

func (f *fakeBroadcastRepo) Complete(id string, totalRecipients, deliveredCount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	b, ok := f.rows[id]
	if !ok || b.Status != models.BroadcastStatusSending {
		return repositories.ErrBroadcastStatusConflict
	}
	now := time.Now()
	b.Status = models.BroadcastStatusCompleted
	b.TotalRecipients = totalRecipients
	b.DeliveredCount = deliveredCount
	b.CompletedAt = &now
	return nil
}

func (f *fakeBroadcastRepo) Fail(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repositories.ErrBroadcastNotFound
	}
	if b.Status != models.BroadcastStatusPending && b.Status != models.BroadcastStatusSending {
		return repositories.ErrBroadcastStatusConflict
	}
	now := time.Now()
	b.Status = models.BroadcastStatusFailed
	b.TotalRecipients = 0
	b.CompletedAt = &now
	return nil
}

func (f *fakeBroadcastRepo) IncrementReadCount(id string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repositories.ErrBroadcastNotFound
	}
	b.ReadCount += delta
	return nil
}

func (f *fakeBroadcastRepo) SetCounters(id string, deliveredCount, readCount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repositories.ErrBroadcastNotFound
	}
	b.DeliveredCount = deliveredCount
	b.ReadCount = readCount
	return nil
}

func (f *fakeBroadcastRepo) FindForReconcile(olderThan time.Time, limit int) ([]models.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Broadcast
	for _, b := range f.rows {
		if b.Status != models.BroadcastStatusCompleted {
			continue
		}
		matched = append(matched, *b)
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

// fakeDirectoryRepo serves recipient resolution from a fixed account list.
type dirAccount struct {
	id       string
	role     models.UserRole
	status   models.UserStatus
	locked   bool
	district string
	regions  []string
}

type fakeDirectoryRepo struct {
	accounts []dirAccount
	err      error
}

func (f *fakeDirectoryRepo) eligible(a dirAccount) bool {
	return a.status == models.UserStatusActive && !a.locked
}

func (f *fakeDirectoryRepo) ActiveNonAdminIDs() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for _, a := range f.accounts {
		if f.eligible(a) && a.role != models.UserRoleAdmin {
			ids = append(ids, a.id)
		}
	}
	return ids, nil
}

func (f *fakeDirectoryRepo) ActiveIDsByDistrict(districtIDs []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(districtIDs))
	for _, d := range districtIDs {
		wanted[d] = true
	}
	var ids []string
	for _, a := range f.accounts {
		if f.eligible(a) && wanted[a.district] {
			ids = append(ids, a.id)
		}
	}
	return ids, nil
}

func (f *fakeDirectoryRepo) ActiveIDsByRegion(regionIDs []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(regionIDs))
	for _, r := range regionIDs {
		wanted[r] = true
	}
	var ids []string
	for _, a := range f.accounts {
		if !f.eligible(a) {
			continue
		}
		for _, r := range a.regions {
			if wanted[r] {
				ids = append(ids, a.id)
				break
			}
		}
	}
	return ids, nil
}

func (f *fakeDirectoryRepo) ActiveIDsByRole(roles []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(roles))
	for _, r := range roles {
		wanted[r] = true
	}
	var ids []string
	for _, a := range f.accounts {
		if f.eligible(a) && wanted[string(a.role)] {
			ids = append(ids, a.id)
		}
	}
	return ids, nil
}
