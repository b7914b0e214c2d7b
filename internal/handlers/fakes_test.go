package handlers

import (
	"agritrack_backend/internal/repositories"
	"agritrack_backend/internal/services/dto"
)

// Handler tests stub the service layer; service behavior has its own tests.

type fakeNotificationService struct {
	createFn    func(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error)
	getFn       func(recipientID, notificationID string) (*dto.NotificationResponse, error)
	listFn      func(recipientID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	unreadFn    func(recipientID string) (int64, error)
	markReadFn  func(recipientID, notificationID string) (*dto.NotificationResponse, error)
	markManyFn  func(recipientID string, ids []string) (int64, error)
	markAllFn   func(recipientID string) (int64, error)
	deleteFn    func(recipientID, notificationID string) error
	clearAllFn  func(recipientID string) (int64, error)
	statsFn     func(recipientID string) (*repositories.NotificationStats, error)
}

func (f *fakeNotificationService) Create(req *dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	return f.createFn(req)
}

func (f *fakeNotificationService) Get(recipientID, notificationID string) (*dto.NotificationResponse, error) {
	return f.getFn(recipientID, notificationID)
}

func (f *fakeNotificationService) List(recipientID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	return f.listFn(recipientID, criteria)
}

func (f *fakeNotificationService) UnreadCount(recipientID string) (int64, error) {
	return f.unreadFn(recipientID)
}

func (f *fakeNotificationService) MarkRead(recipientID, notificationID string) (*dto.NotificationResponse, error) {
	return f.markReadFn(recipientID, notificationID)
}

func (f *fakeNotificationService) MarkManyRead(recipientID string, ids []string) (int64, error) {
	return f.markManyFn(recipientID, ids)
}

func (f *fakeNotificationService) MarkAllRead(recipientID string) (int64, error) {
	return f.markAllFn(recipientID)
}

func (f *fakeNotificationService) Delete(recipientID, notificationID string) error {
	return f.deleteFn(recipientID, notificationID)
}

func (f *fakeNotificationService) ClearAll(recipientID string) (int64, error) {
	return f.clearAllFn(recipientID)
}

func (f *fakeNotificationService) GetRecipientStats(recipientID string) (*repositories.NotificationStats, error) {
	return f.statsFn(recipientID)
}

type fakeBroadcastService struct {
	createFn func(senderID string, req *dto.CreateBroadcastRequest) (*dto.BroadcastResponse, error)
	getFn    func(broadcastID string) (*dto.BroadcastResponse, error)
	listFn   func(criteria dto.BroadcastCriteria) (*dto.BroadcastListResponse, error)
	statsFn  func(broadcastID string) (*dto.BroadcastStatsResponse, error)
}

func (f *fakeBroadcastService) Create(senderID string, req *dto.CreateBroadcastRequest) (*dto.BroadcastResponse, error) {
	return f.createFn(senderID, req)
}

func (f *fakeBroadcastService) Get(broadcastID string) (*dto.BroadcastResponse, error) {
	return f.getFn(broadcastID)
}

func (f *fakeBroadcastService) List(criteria dto.BroadcastCriteria) (*dto.BroadcastListResponse, error) {
	return f.listFn(criteria)
}

func (f *fakeBroadcastService) Stats(broadcastID string) (*dto.BroadcastStatsResponse, error) {
	return f.statsFn(broadcastID)
}
