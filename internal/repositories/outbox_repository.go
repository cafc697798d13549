package repositories

import (
	"context"
	"fmt"
	"time"

	"eukexpress-backend/internal/models"
)

// OutboxRepository stores notification tasks. Enqueue runs inside the
// shipment transaction; the claim and mark methods are used by the worker.
type OutboxRepository struct {
	DB DBTX
}

func NewOutboxRepository(db DBTX) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

const taskColumns = `id, shipment_id, tracking_number, recipient_type, recipient_email, email_type, subject, html_body,
	attachment_key, attachment_name, status, attempts, max_attempts, next_attempt_at, last_error,
	campaign_id, created_at, processed_at`

func (r *OutboxRepository) Enqueue(ctx context.Context, t *models.NotificationTask) error {
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO notification_tasks(shipment_id, tracking_number, recipient_type, recipient_email, email_type,
			subject, html_body, attachment_key, attachment_name, status, max_attempts, next_attempt_at, campaign_id, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		t.ShipmentID, t.TrackingNumber, t.RecipientType, t.RecipientEmail, t.EmailType,
		t.Subject, t.HTMLBody, t.AttachmentKey, t.AttachmentName, t.Status, t.MaxAttempts,
		t.NextAttemptAt, t.CampaignID, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// ClaimDue leases up to limit due tasks. Rows locked by another worker are
// skipped, and claimed rows are pushed out by lease so a concurrent drain
// does not pick them up while they are being sent.
func (r *OutboxRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.NotificationTask, error) {
	rows, err := r.DB.Query(ctx,
		`UPDATE notification_tasks SET next_attempt_at = $2
		 WHERE id IN (
			SELECT id FROM notification_tasks
			WHERE status = 'PENDING' AND next_attempt_at <= $1
			ORDER BY next_attempt_at, id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+taskColumns,
		now, now.Add(lease), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim notification tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.NotificationTask
	for rows.Next() {
		var t models.NotificationTask
		if err := rows.Scan(&t.ID, &t.ShipmentID, &t.TrackingNumber, &t.RecipientType, &t.RecipientEmail,
			&t.EmailType, &t.Subject, &t.HTMLBody, &t.AttachmentKey, &t.AttachmentName, &t.Status,
			&t.Attempts, &t.MaxAttempts, &t.NextAttemptAt, &t.LastError, &t.CampaignID,
			&t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64, attempts int, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notification_tasks SET status = 'SENT', attempts = $2, last_error = '', processed_at = $3
		 WHERE id = $1`, id, attempts, at)
	return err
}

func (r *OutboxRepository) MarkRetry(ctx context.Context, id int64, attempts int, next time.Time, lastErr string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notification_tasks SET attempts = $2, next_attempt_at = $3, last_error = $4
		 WHERE id = $1`, id, attempts, next, lastErr)
	return err
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, lastErr string, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE notification_tasks SET status = 'FAILED', attempts = $2, last_error = $3, processed_at = $4
		 WHERE id = $1`, id, attempts, lastErr, at)
	return err
}

// Stats counts tasks by status
func (r *OutboxRepository) Stats(ctx context.Context) (*models.OutboxStats, error) {
	var s models.OutboxStats
	err := r.DB.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'SENT'),
			COUNT(*) FILTER (WHERE status = 'FAILED')
		 FROM notification_tasks`).Scan(&s.Pending, &s.Sent, &s.Failed)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
