package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eukexpress-backend/internal/models"
)

type EmailLogRepository struct {
	DB DBTX
}

func NewEmailLogRepository(db DBTX) *EmailLogRepository {
	return &EmailLogRepository{DB: db}
}

// Create records one delivery attempt
func (r *EmailLogRepository) Create(ctx context.Context, e *models.EmailLogEntry) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO email_logs(shipment_id, task_id, recipient_type, recipient_email, email_type, subject,
			message_id, status, error_message, attempt, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		e.ShipmentID, e.TaskID, e.RecipientType, e.RecipientEmail, e.EmailType, e.Subject,
		e.MessageID, e.Status, e.ErrorMessage, e.Attempt, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to insert email log: %w", err)
	}
	return nil
}

const emailLogColumns = `id, shipment_id, task_id, recipient_type, recipient_email, email_type, subject,
	message_id, status, error_message, attempt, created_at`

func scanEmailLog(row pgx.Row) (*models.EmailLogEntry, error) {
	var e models.EmailLogEntry
	err := row.Scan(&e.ID, &e.ShipmentID, &e.TaskID, &e.RecipientType, &e.RecipientEmail, &e.EmailType,
		&e.Subject, &e.MessageID, &e.Status, &e.ErrorMessage, &e.Attempt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return &e, err
}

// ListByShipment returns attempts newest first
func (r *EmailLogRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*models.EmailLogEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+emailLogColumns+` FROM email_logs WHERE shipment_id = $1
		 ORDER BY created_at DESC, id DESC`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.EmailLogEntry
	for rows.Next() {
		e, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastNotification returns the most recent shipment email that was not an
// ad-hoc message, or models.ErrNotFound
func (r *EmailLogRepository) LastNotification(ctx context.Context, shipmentID uuid.UUID) (*models.EmailLogEntry, error) {
	return scanEmailLog(r.DB.QueryRow(ctx,
		`SELECT `+emailLogColumns+` FROM email_logs
		 WHERE shipment_id = $1 AND email_type NOT IN ($2, $3)
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		shipmentID, models.EmailCustomMessage, models.EmailBulk))
}
