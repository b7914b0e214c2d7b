package services

import (
	"fmt"
	"testing"

	"agritrack_backend/internal/config"
	"agritrack_backend/internal/models"
	"agritrack_backend/internal/repositories"
	"agritrack_backend/internal/services/dto"
	"agritrack_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldStaff(n int) []dirAccount {
	accounts := make([]dirAccount, 0, n)
	for i := 0; i < n; i++ {
		accounts = append(accounts, dirAccount{
			id:       fmt.Sprintf("user-%03d", i),
			role:     models.UserRoleOfficer,
			status:   models.UserStatusActive,
			district: "district-1",
			regions:  []string{"region-1"},
		})
	}
	return accounts
}

func newBroadcastServiceForTest(directory *fakeDirectoryRepo) (BroadcastService, *fakeBroadcastRepo, *fakeNotificationRepo) {
	broadcastRepo := newFakeBroadcastRepo()
	notificationRepo := newFakeNotificationRepo()
	resolver := NewRecipientResolver(directory)
	svc := NewBroadcastService(broadcastRepo, notificationRepo, resolver, config.BroadcastConfig{
		FanoutWorkers: 4,
		FanoutBatch:   3,
	})
	return svc, broadcastRepo, notificationRepo
}

func validBroadcastRequest() *dto.CreateBroadcastRequest {
	return &dto.CreateBroadcastRequest{
		Title:         "Planting season opens",
		Body:          "Submit your field plans before the end of the month.",
		Priority:      string(models.NotificationPriorityHigh),
		RecipientType: string(models.RecipientTypeAll),
	}
}

func TestBroadcastService_CreateFansOutToAllActiveStaff(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: append(fieldStaff(10),
		dirAccount{id: "admin-1", role: models.UserRoleAdmin, status: models.UserStatusActive},
		dirAccount{id: "locked-1", role: models.UserRoleOfficer, status: models.UserStatusActive, locked: true},
		dirAccount{id: "pending-1", role: models.UserRoleOfficer, status: models.UserStatusPending},
	)}
	svc, _, notificationRepo := newBroadcastServiceForTest(directory)

	result, err := svc.Create("admin-1", validBroadcastRequest())
	require.NoError(t, err)

	assert.Equal(t, string(models.BroadcastStatusCompleted), result.Status)
	assert.Equal(t, int64(10), result.TotalRecipients)
	assert.Equal(t, int64(10), result.DeliveredCount)
	assert.NotNil(t, result.SentAt)
	assert.NotNil(t, result.CompletedAt)

	// Admins, locked and pending accounts received nothing.
	for _, excluded := range []string{"admin-1", "locked-1", "pending-1"} {
		count, err := notificationRepo.UnreadCount(excluded)
		require.NoError(t, err)
		assert.Zero(t, count, "no delivery expected for %s", excluded)
	}

	// Delivered rows carry the broadcast linkage and kind.
	delivered, _, err := notificationRepo.CountForBroadcast(result.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), delivered)

	inbox, _, err := notificationRepo.FindForRecipient("user-000",
		notificationCriteriaPage1())
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationKindAdminBroadcast, inbox[0].Kind)
	assert.Equal(t, "Planting season opens", inbox[0].Title)
}

func TestBroadcastService_PartialDeliveryStillCompletes(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: fieldStaff(8)}
	svc, _, notificationRepo := newBroadcastServiceForTest(directory)

	notificationRepo.failRecipients["user-002"] = true
	notificationRepo.failRecipients["user-005"] = true

	result, err := svc.Create("admin-1", validBroadcastRequest())
	require.NoError(t, err)

	assert.Equal(t, string(models.BroadcastStatusCompleted), result.Status)
	assert.Equal(t, int64(8), result.TotalRecipients)
	assert.Equal(t, int64(6), result.DeliveredCount)
}

func TestBroadcastService_EmptyFilterRejectedBeforePersist(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: fieldStaff(3)}
	svc, broadcastRepo, _ := newBroadcastServiceForTest(directory)

	req := validBroadcastRequest()
	req.RecipientType = string(models.RecipientTypeByDistrict)
	req.DistrictIDs = nil

	_, err := svc.Create("admin-1", req)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeInvalidTargeting, appErr.Code)

	// Nothing was written.
	_, total, err := broadcastRepo.FindAll(brCriteriaPage1())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBroadcastService_NoMatchingRecipientsFails(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: fieldStaff(3)}
	svc, _, notificationRepo := newBroadcastServiceForTest(directory)

	req := validBroadcastRequest()
	req.RecipientType = string(models.RecipientTypeByDistrict)
	req.DistrictIDs = []string{"district-nowhere"}

	result, err := svc.Create("admin-1", req)
	require.NoError(t, err)

	assert.Equal(t, string(models.BroadcastStatusFailed), result.Status)
	assert.Zero(t, result.TotalRecipients)
	assert.Zero(t, result.DeliveredCount)

	delivered, _, err := notificationRepo.CountForBroadcast(result.ID)
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestBroadcastService_DirectoryOutageFailsBroadcast(t *testing.T) {
	directory := &fakeDirectoryRepo{err: assert.AnError}
	svc, _, _ := newBroadcastServiceForTest(directory)

	result, err := svc.Create("admin-1", validBroadcastRequest())
	require.NoError(t, err)
	assert.Equal(t, string(models.BroadcastStatusFailed), result.Status)
}

func TestBroadcastService_TargetingByRegionAndRole(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: []dirAccount{
		{id: "officer-1", role: models.UserRoleOfficer, status: models.UserStatusActive, regions: []string{"region-1", "region-2"}},
		{id: "officer-2", role: models.UserRoleOfficer, status: models.UserStatusActive, regions: []string{"region-2"}},
		{id: "super-1", role: models.UserRoleSupervisor, status: models.UserStatusActive, regions: []string{"region-3"}},
	}}
	svc, _, _ := newBroadcastServiceForTest(directory)

	req := validBroadcastRequest()
	req.RecipientType = string(models.RecipientTypeByRegion)
	req.RegionIDs = []string{"region-1", "region-2"}

	// officer-1 matches both regions but must be delivered to once.
	result, err := svc.Create("admin-1", req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalRecipients)
	assert.Equal(t, int64(2), result.DeliveredCount)

	req = validBroadcastRequest()
	req.RecipientType = string(models.RecipientTypeByRole)
	req.RoleIDs = []string{string(models.UserRoleSupervisor)}

	result, err = svc.Create("admin-1", req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalRecipients)
}

func TestBroadcastService_StatsPercentage(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: fieldStaff(3)}
	svc, broadcastRepo, _ := newBroadcastServiceForTest(directory)

	result, err := svc.Create("admin-1", validBroadcastRequest())
	require.NoError(t, err)

	require.NoError(t, broadcastRepo.IncrementReadCount(result.ID, 1))

	stats, err := svc.Stats(result.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.DeliveredCount)
	assert.Equal(t, int64(1), stats.ReadCount)
	assert.Equal(t, int64(2), stats.UnreadCount)
	assert.InDelta(t, 33.33, stats.ReadPercentage, 0.001)
}

func TestBroadcastService_StatsZeroDelivered(t *testing.T) {
	svc, broadcastRepo, _ := newBroadcastServiceForTest(&fakeDirectoryRepo{})

	broadcast := &models.Broadcast{Status: models.BroadcastStatusFailed}
	require.NoError(t, broadcastRepo.Create(broadcast))

	stats, err := svc.Stats(broadcast.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.ReadPercentage)
	assert.Zero(t, stats.UnreadCount)
}

func TestBroadcastService_GetNotFound(t *testing.T) {
	directory := &fakeDirectoryRepo{}
	svc, _, _ := newBroadcastServiceForTest(directory)

	_, err := svc.Get("missing")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestBroadcastService_ListFiltersByStatus(t *testing.T) {
	directory := &fakeDirectoryRepo{accounts: fieldStaff(2)}
	svc, _, _ := newBroadcastServiceForTest(directory)

	_, err := svc.Create("admin-1", validBroadcastRequest())
	require.NoError(t, err)

	req := validBroadcastRequest()
	req.RecipientType = string(models.RecipientTypeByDistrict)
	req.DistrictIDs = []string{"district-nowhere"}
	_, err = svc.Create("admin-1", req)
	require.NoError(t, err)

	completed, err := svc.List(dto.BroadcastCriteria{Status: string(models.BroadcastStatusCompleted), Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed.Total)

	all, err := svc.List(dto.BroadcastCriteria{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func notificationCriteriaPage1() repositories.NotificationCriteria {
	return repositories.NotificationCriteria{Page: 1, PageSize: 20}
}

func brCriteriaPage1() repositories.BroadcastCriteria {
	return repositories.BroadcastCriteria{Page: 1, PageSize: 20}
}
