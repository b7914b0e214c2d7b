package workers

import (
	"context"
	"time"

	"agritrack_backend/internal/logger"
	"agritrack_backend/internal/repositories"
)

// reconcileBatchSize bounds how many broadcasts one sweep recounts.
const reconcileBatchSize = 50

// StatsReconciler periodically recounts delivered and read totals for
// completed broadcasts straight from the notification rows. The live
// counters are updated on a best-effort basis, so a crashed increment or a
// lost batch leaves drift; the sweep repairs it.
type StatsReconciler struct {
	broadcastRepo    repositories.BroadcastRepository
	notificationRepo repositories.NotificationRepository
	interval         time.Duration
}

func NewStatsReconciler(
	broadcastRepo repositories.BroadcastRepository,
	notificationRepo repositories.NotificationRepository,
	interval time.Duration,
) *StatsReconciler {
	return &StatsReconciler{
		broadcastRepo:    broadcastRepo,
		notificationRepo: notificationRepo,
		interval:         interval,
	}
}

func (w *StatsReconciler) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *StatsReconciler) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.WorkerLog("stats-reconciler", "started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			logger.WorkerLog("stats-reconciler", "stopped")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep recounts the stalest completed broadcasts, oldest first. Updating a
// broadcast bumps its updated_at, so the scan naturally rotates through the
// whole set over successive ticks.
func (w *StatsReconciler) Sweep() {
	cutoff := time.Now().Add(-w.interval)

	broadcasts, err := w.broadcastRepo.FindForReconcile(cutoff, reconcileBatchSize)
	if err != nil {
		logger.WorkerLog("stats-reconciler", "failed to list broadcasts", "error", err.Error())
		return
	}

	repaired := 0
	for i := range broadcasts {
		b := &broadcasts[i]

		delivered, read, err := w.notificationRepo.CountForBroadcast(b.ID)
		if err != nil {
			logger.WorkerLog("stats-reconciler", "recount failed",
				"broadcast_id", b.ID, "error", err.Error())
			continue
		}

		if delivered == b.DeliveredCount && read == b.ReadCount {
			continue
		}

		if err := w.broadcastRepo.SetCounters(b.ID, delivered, read); err != nil {
			logger.WorkerLog("stats-reconciler", "counter repair failed",
				"broadcast_id", b.ID, "error", err.Error())
			continue
		}

		logger.WorkerLog("stats-reconciler", "repaired counters",
			"broadcast_id", b.ID,
			"delivered_count", delivered,
			"read_count", read,
		)
		repaired++
	}

	if repaired > 0 {
		logger.WorkerLog("stats-reconciler", "sweep finished",
			"checked", len(broadcasts), "repaired", repaired)
	}
}
