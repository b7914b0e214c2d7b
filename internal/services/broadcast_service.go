package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"agritrack_backend/internal/config"
	"agritrack_backend/internal/logger"
	"agritrack_backend/internal/models"
	"agritrack_backend/internal/repositories"
	"agritrack_backend/internal/services/dto"
	"agritrack_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type BroadcastService interface {
	// Create authors the broadcast and runs the fan-out to completion
	// before returning. The returned broadcast reflects the final status,
	// including failed; a failed fan-out is not a transport error.
	Create(senderID string, req *dto.CreateBroadcastRequest) (*dto.BroadcastResponse, error)

	Get(broadcastID string) (*dto.BroadcastResponse, error)
	List(criteria dto.BroadcastCriteria) (*dto.BroadcastListResponse, error)
	Stats(broadcastID string) (*dto.BroadcastStatsResponse, error)
}

type broadcastService struct {
	broadcastRepo    repositories.BroadcastRepository
	notificationRepo repositories.NotificationRepository
	resolver         RecipientResolver
	cfg              config.BroadcastConfig
}

func NewBroadcastService(
	broadcastRepo repositories.BroadcastRepository,
	notificationRepo repositories.NotificationRepository,
	resolver RecipientResolver,
	cfg config.BroadcastConfig,
) BroadcastService {
	return &broadcastService{
		broadcastRepo:    broadcastRepo,
		notificationRepo: notificationRepo,
		resolver:         resolver,
		cfg:              cfg,
	}
}

func (s *broadcastService) Create(senderID string, req *dto.CreateBroadcastRequest) (*dto.BroadcastResponse, error) {
	recipientType := models.BroadcastRecipientType(req.RecipientType)
	filter := targetingFilter(recipientType, req)

	// Bad targeting is rejected before anything is persisted.
	if recipientType != models.RecipientTypeAll && len(filter) == 0 {
		return nil, apperrors.ErrInvalidTargeting(
			fmt.Sprintf("recipient type %q requires a non-empty filter", req.RecipientType))
	}

	broadcast := &models.Broadcast{
		SenderID:        senderID,
		Title:           req.Title,
		Body:            req.Body,
		Priority:        models.NotificationPriority(req.Priority),
		Link:            req.Link,
		RecipientType:   recipientType,
		RecipientFilter: encodeFilter(recipientType, filter),
		Status:          models.BroadcastStatusPending,
	}

	if err := s.broadcastRepo.Create(broadcast); err != nil {
		return nil, err
	}

	s.runFanout(broadcast, filter)

	final, err := s.broadcastRepo.FindByID(broadcast.ID)
	if err != nil {
		return nil, err
	}
	return buildBroadcastResponse(final), nil
}

// runFanout drives pending -> sending -> completed|failed. Failures inside
// the pipeline land the broadcast in failed instead of surfacing as errors;
// the caller reads the outcome off the status.
func (s *broadcastService) runFanout(broadcast *models.Broadcast, filter []string) {
	log := logger.With("broadcast_id", broadcast.ID)

	if err := s.broadcastRepo.MarkSending(broadcast.ID); err != nil {
		log.Error("failed to mark broadcast sending", "error", err.Error())
		s.fail(broadcast.ID, log)
		return
	}

	recipients, err := s.resolver.Resolve(broadcast.RecipientType, filter)
	if err != nil {
		log.Error("recipient resolution failed", "error", err.Error())
		s.fail(broadcast.ID, log)
		return
	}
	if len(recipients) == 0 {
		log.Warn("targeting matched no recipients")
		s.fail(broadcast.ID, log)
		return
	}

	total := int64(len(recipients))
	var delivered atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.FanoutWorkers)

	batchSize := s.cfg.FanoutBatch
	for start := 0; start < len(recipients); start += batchSize {
		end := start + batchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		chunk := recipients[start:end]

		g.Go(func() error {
			rows := make([]*models.Notification, 0, len(chunk))
			for _, recipientID := range chunk {
				rows = append(rows, &models.Notification{
					RecipientID: recipientID,
					Kind:        models.NotificationKindAdminBroadcast,
					Priority:    broadcast.Priority,
					Title:       broadcast.Title,
					Body:        broadcast.Body,
					Link:        broadcast.Link,
					BroadcastID: &broadcast.ID,
				})
			}

			inserted, err := s.notificationRepo.CreateBatch(rows, len(rows))
			delivered.Add(inserted)
			return err
		})
	}

	// Batch errors were already absorbed row by row inside CreateBatch;
	// the group error only signals that some rows were skipped.
	if err := g.Wait(); err != nil {
		log.Warn("fan-out finished with skipped rows", "error", err.Error())
	}

	if err := s.broadcastRepo.Complete(broadcast.ID, total, delivered.Load()); err != nil {
		log.Error("failed to complete broadcast", "error", err.Error())
		s.fail(broadcast.ID, log)
		return
	}

	log.Info("broadcast fan-out finished",
		"total_recipients", total,
		"delivered_count", delivered.Load(),
	)
}

func (s *broadcastService) fail(broadcastID string, log *slog.Logger) {
	if err := s.broadcastRepo.Fail(broadcastID); err != nil {
		log.Error("failed to mark broadcast failed", "error", err.Error())
	}
}

func (s *broadcastService) Get(broadcastID string) (*dto.BroadcastResponse, error) {
	broadcast, err := s.broadcastRepo.FindByID(broadcastID)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}
	return buildBroadcastResponse(broadcast), nil
}

func (s *broadcastService) List(criteria dto.BroadcastCriteria) (*dto.BroadcastListResponse, error) {
	repoCriteria := repositories.BroadcastCriteria{
		Status:   models.BroadcastStatus(criteria.Status),
		Page:     clampPage(criteria.Page),
		PageSize: clampPageSize(criteria.PageSize),
	}

	broadcasts, total, err := s.broadcastRepo.FindAll(repoCriteria)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.BroadcastResponse, 0, len(broadcasts))
	for i := range broadcasts {
		responses = append(responses, buildBroadcastResponse(&broadcasts[i]))
	}

	return &dto.BroadcastListResponse{
		Broadcasts: responses,
		Total:      total,
		Page:       repoCriteria.Page,
		PageSize:   repoCriteria.PageSize,
		TotalPages: calculateTotalPages(total, repoCriteria.PageSize),
	}, nil
}

// Stats reads the denormalized counters; the reconciler keeps them honest
// against the notification rows.
func (s *broadcastService) Stats(broadcastID string) (*dto.BroadcastStatsResponse, error) {
	broadcast, err := s.broadcastRepo.FindByID(broadcastID)
	if err != nil {
		return nil, s.wrapRepoError(err)
	}

	unread := broadcast.DeliveredCount - broadcast.ReadCount
	if unread < 0 {
		unread = 0
	}

	var readPercentage float64
	if broadcast.DeliveredCount > 0 {
		readPercentage = float64(broadcast.ReadCount) / float64(broadcast.DeliveredCount) * 100
		readPercentage = math.Round(readPercentage*100) / 100
	}

	return &dto.BroadcastStatsResponse{
		BroadcastID:     broadcast.ID,
		TotalRecipients: broadcast.TotalRecipients,
		DeliveredCount:  broadcast.DeliveredCount,
		ReadCount:       broadcast.ReadCount,
		UnreadCount:     unread,
		ReadPercentage:  readPercentage,
	}, nil
}

func (s *broadcastService) wrapRepoError(err error) error {
	if apperrors.Is(err, repositories.ErrBroadcastNotFound) {
		return apperrors.ErrNotFound(err, "broadcast")
	}
	return err
}

func targetingFilter(recipientType models.BroadcastRecipientType, req *dto.CreateBroadcastRequest) []string {
	switch recipientType {
	case models.RecipientTypeByDistrict:
		return req.DistrictIDs
	case models.RecipientTypeByRegion:
		return req.RegionIDs
	case models.RecipientTypeByRole:
		return req.RoleIDs
	default:
		return nil
	}
}

func encodeFilter(recipientType models.BroadcastRecipientType, filter []string) datatypes.JSON {
	if recipientType == models.RecipientTypeAll {
		return nil
	}
	data, err := json.Marshal(map[string][]string{"ids": filter})
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func buildBroadcastResponse(b *models.Broadcast) *dto.BroadcastResponse {
	resp := &dto.BroadcastResponse{
		ID:              b.ID,
		SenderID:        b.SenderID,
		Title:           b.Title,
		Body:            b.Body,
		Priority:        string(b.Priority),
		Link:            b.Link,
		RecipientType:   string(b.RecipientType),
		TotalRecipients: b.TotalRecipients,
		DeliveredCount:  b.DeliveredCount,
		ReadCount:       b.ReadCount,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		SentAt:          b.SentAt,
		CompletedAt:     b.CompletedAt,
	}

	if len(b.RecipientFilter) > 0 {
		var filter map[string]interface{}
		if err := json.Unmarshal(b.RecipientFilter, &filter); err == nil {
			resp.RecipientFilter = filter
		}
	}

	return resp
}
