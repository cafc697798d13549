package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/metrics"
	"eukexpress-backend/internal/models"
)

// StaleAfter matches the dashboard's attention_required window
const StaleAfter = 3 * 24 * time.Hour

type StaleCounter interface {
	CountStale(ctx context.Context, staleBefore time.Time) (int, error)
}

type QueueStats interface {
	Stats(ctx context.Context) (*models.OutboxStats, error)
}

// SweepWorker refreshes the attention and outbox gauges and warns about
// shipments that have gone quiet.
type SweepWorker struct {
	busyFlag
	stale    StaleCounter
	queue    QueueStats
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweepWorker(stale StaleCounter, queue QueueStats, schedule string, logger *zap.Logger) *SweepWorker {
	return &SweepWorker{stale: stale, queue: queue, schedule: schedule, logger: logger.Named("sweep"), now: time.Now}
}

func (w *SweepWorker) Name() string     { return "attention-sweep" }
func (w *SweepWorker) Schedule() string { return w.schedule }

func (w *SweepWorker) Execute(ctx context.Context) {
	if !w.acquire() {
		return
	}
	defer w.release()

	n, err := w.stale.CountStale(ctx, w.now().Add(-StaleAfter))
	if err != nil {
		w.logger.Error("failed to count stale shipments", zap.Error(err))
	} else {
		metrics.AttentionRequired.Set(float64(n))
		if n > 0 {
			w.logger.Warn("shipments need attention", zap.Int("count", n))
		}
	}

	stats, err := w.queue.Stats(ctx)
	if err != nil {
		w.logger.Error("failed to read outbox stats", zap.Error(err))
		return
	}
	metrics.OutboxPending.Set(float64(stats.Pending))
	if stats.Failed > 0 {
		w.logger.Warn("undeliverable notifications in outbox", zap.Int("failed", stats.Failed))
	}
}
