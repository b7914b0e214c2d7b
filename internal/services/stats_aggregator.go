package services

import (
	"agritrack_backend/internal/logger"
	"agritrack_backend/internal/repositories"
)

// StatsAggregator keeps broadcast read counters in step with inbox reads.
// It is invoked only for transitions that actually happened (the repository
// reports them from its conditional UPDATEs), so re-marking an already-read
// row never reaches it.
type StatsAggregator interface {
	// OnNotificationRead bumps the broadcast's read_count by one. The bump
	// is a database-side atomic increment, safe under arbitrary concurrent
	// readers of the same broadcast.
	OnNotificationRead(broadcastID string)

	// OnNotificationsRead handles a batch of transitions, one increment per
	// broadcast with the summed delta.
	OnNotificationsRead(transitions []repositories.ReadTransition)
}

type statsAggregator struct {
	broadcastRepo repositories.BroadcastRepository
}

func NewStatsAggregator(broadcastRepo repositories.BroadcastRepository) StatsAggregator {
	return &statsAggregator{broadcastRepo: broadcastRepo}
}

// Counter errors are logged, never propagated: the recipient's mark-read
// already succeeded, and the periodic reconciler repairs any missed bump.
func (s *statsAggregator) OnNotificationRead(broadcastID string) {
	if broadcastID == "" {
		return
	}
	if err := s.broadcastRepo.IncrementReadCount(broadcastID, 1); err != nil {
		logger.Error("failed to increment broadcast read count", "broadcast_id", broadcastID, "error", err.Error())
	}
}

func (s *statsAggregator) OnNotificationsRead(transitions []repositories.ReadTransition) {
	deltas := make(map[string]int64)
	for _, t := range transitions {
		if t.BroadcastID == "" {
			continue
		}
		deltas[t.BroadcastID]++
	}

	for broadcastID, delta := range deltas {
		if err := s.broadcastRepo.IncrementReadCount(broadcastID, delta); err != nil {
			logger.Error("failed to increment broadcast read count", "broadcast_id", broadcastID, "delta", delta, "error", err.Error())
		}
	}
}
