package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/email"
	"eukexpress-backend/internal/metrics"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/storage"
)

const (
	claimLease  = 2 * time.Minute
	sendWorkers = 4
)

// TaskStore is the outbox table as seen by the delivery worker
type TaskStore interface {
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.NotificationTask, error)
	MarkSent(ctx context.Context, id int64, attempts int, at time.Time) error
	MarkRetry(ctx context.Context, id int64, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id int64, attempts int, lastErr string, at time.Time) error
	Stats(ctx context.Context) (*models.OutboxStats, error)
}

// AttemptLog records one row per delivery attempt
type AttemptLog interface {
	Create(ctx context.Context, e *models.EmailLogEntry) error
}

// OutboxWorker delivers queued notification tasks through the email provider
type OutboxWorker struct {
	busyFlag
	tasks    TaskStore
	logs     AttemptLog
	provider email.Provider
	docs     storage.Store
	schedule string
	batch    int
	base     time.Duration
	max      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewOutboxWorker(cfg *config.Config, tasks TaskStore, logs AttemptLog, provider email.Provider, docs storage.Store, logger *zap.Logger) *OutboxWorker {
	batch := cfg.Outbox.BatchSize
	if batch <= 0 {
		batch = 20
	}
	return &OutboxWorker{
		tasks:    tasks,
		logs:     logs,
		provider: provider,
		docs:     docs,
		schedule: cfg.Outbox.Schedule,
		batch:    batch,
		base:     cfg.Outbox.BaseBackoff,
		max:      cfg.Outbox.MaxBackoff,
		logger:   logger.Named("outbox"),
		now:      time.Now,
	}
}

func (w *OutboxWorker) Name() string     { return "outbox" }
func (w *OutboxWorker) Schedule() string { return w.schedule }

func (w *OutboxWorker) Execute(ctx context.Context) {
	if !w.acquire() {
		return
	}
	defer w.release()

	sent, failed, err := w.Drain(ctx)
	if err != nil {
		w.logger.Error("outbox drain failed", zap.Error(err))
		return
	}
	if sent+failed > 0 {
		w.logger.Info("outbox drained", zap.Int("sent", sent), zap.Int("failed", failed))
	}
}

// Drain claims one batch of due tasks and attempts each of them once. It
// returns the number delivered and the number of failed attempts.
func (w *OutboxWorker) Drain(ctx context.Context) (int, int, error) {
	tasks, err := w.tasks.ClaimDue(ctx, w.now(), claimLease, w.batch)
	if err != nil {
		return 0, 0, err
	}

	var sent, failed atomic.Int32
	var wg sync.WaitGroup
	sem := make(chan struct{}, sendWorkers)
	for _, t := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(t *models.NotificationTask) {
			defer wg.Done()
			defer func() { <-sem }()
			if w.deliver(ctx, t) {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
		}(t)
	}
	wg.Wait()

	if stats, err := w.tasks.Stats(ctx); err == nil {
		metrics.OutboxPending.Set(float64(stats.Pending))
	}
	return int(sent.Load()), int(failed.Load()), nil
}

func (w *OutboxWorker) deliver(ctx context.Context, t *models.NotificationTask) bool {
	attempt := t.Attempts + 1
	msg := &email.Message{To: t.RecipientEmail, Subject: t.Subject, HTML: t.HTMLBody}

	var messageID string
	err := w.attach(ctx, t, msg)
	if err == nil {
		messageID, err = w.provider.Send(ctx, msg)
	}
	now := w.now()

	entry := &models.EmailLogEntry{
		ShipmentID:     t.ShipmentID,
		TaskID:         &t.ID,
		RecipientType:  t.RecipientType,
		RecipientEmail: t.RecipientEmail,
		EmailType:      t.EmailType,
		Subject:        t.Subject,
		MessageID:      messageID,
		Status:         models.EmailStatusSent,
		Attempt:        attempt,
		CreatedAt:      now,
	}
	if err != nil {
		entry.Status = models.EmailStatusFailed
		entry.ErrorMessage = err.Error()
	}
	if lerr := w.logs.Create(ctx, entry); lerr != nil {
		w.logger.Warn("failed to write email log", zap.Int64("task_id", t.ID), zap.Error(lerr))
	}

	if err == nil {
		metrics.Notifications.WithLabelValues(string(t.EmailType), "sent").Inc()
		if merr := w.tasks.MarkSent(ctx, t.ID, attempt, now); merr != nil {
			w.logger.Error("failed to mark task sent", zap.Int64("task_id", t.ID), zap.Error(merr))
		}
		return true
	}

	fields := []zap.Field{
		zap.Int64("task_id", t.ID),
		zap.String("tracking_number", t.TrackingNumber),
		zap.String("email_type", string(t.EmailType)),
		zap.Int("attempt", attempt),
		zap.Error(err),
	}
	if attempt >= t.MaxAttempts {
		metrics.Notifications.WithLabelValues(string(t.EmailType), "failed").Inc()
		w.logger.Error("notification delivery failed", fields...)
		if merr := w.tasks.MarkFailed(ctx, t.ID, attempt, err.Error(), now); merr != nil {
			w.logger.Error("failed to mark task failed", zap.Int64("task_id", t.ID), zap.Error(merr))
		}
		return false
	}

	metrics.Notifications.WithLabelValues(string(t.EmailType), "retry").Inc()
	next := now.Add(Backoff(w.base, w.max, attempt))
	w.logger.Warn("notification delivery will be retried", append(fields, zap.Time("next_attempt_at", next))...)
	if merr := w.tasks.MarkRetry(ctx, t.ID, attempt, next, err.Error()); merr != nil {
		w.logger.Error("failed to reschedule task", zap.Int64("task_id", t.ID), zap.Error(merr))
	}
	return false
}

func (w *OutboxWorker) attach(ctx context.Context, t *models.NotificationTask, msg *email.Message) error {
	if t.AttachmentKey == "" {
		return nil
	}
	data, _, err := w.docs.Get(ctx, t.AttachmentKey)
	if err != nil {
		return fmt.Errorf("failed to load attachment %s: %w", t.AttachmentKey, err)
	}
	msg.Attachments = []email.Attachment{{Filename: t.AttachmentName, Content: data}}
	return nil
}

// Backoff is base * 2^(attempt-1), capped at max
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
