package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"eukexpress-backend/internal/models"
)

type CampaignRepository struct {
	DB *pgxpool.Pool
}

func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

const campaignColumns = `id, campaign_name, recipient_filter, subject, message, include_tracking_links,
	recipient_count, sent_by, status, error_message, created_at, completed_at`

func (r *CampaignRepository) Create(ctx context.Context, c *models.BulkEmailCampaign) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO bulk_email_campaigns(id, campaign_name, recipient_filter, subject, message,
			include_tracking_links, recipient_count, sent_by, status)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		c.ID, c.CampaignName, c.RecipientFilter, c.Subject, c.Message,
		c.IncludeTrackingLinks, c.RecipientCount, c.SentBy, c.Status,
	).Scan(&c.CreatedAt)
}

// List returns the latest campaigns first
func (r *CampaignRepository) List(ctx context.Context, limit int) ([]*models.BulkEmailCampaign, error) {
	return r.query(ctx, `SELECT `+campaignColumns+` FROM bulk_email_campaigns ORDER BY created_at DESC LIMIT $1`, limit)
}

// ClaimPending moves up to limit PENDING campaigns to PROCESSING and
// returns them. Campaigns claimed by another worker are skipped.
func (r *CampaignRepository) ClaimPending(ctx context.Context, limit int) ([]*models.BulkEmailCampaign, error) {
	return r.query(ctx,
		`UPDATE bulk_email_campaigns SET status = 'PROCESSING'
		 WHERE id IN (
			SELECT id FROM bulk_email_campaigns WHERE status = 'PENDING'
			ORDER BY created_at LIMIT $1 FOR UPDATE SKIP LOCKED
		 )
		 RETURNING `+campaignColumns, limit)
}

// Finish records the final state of a campaign
func (r *CampaignRepository) Finish(ctx context.Context, id uuid.UUID, status string, recipients int, errMsg string, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE bulk_email_campaigns SET status = $2, recipient_count = $3, error_message = $4, completed_at = $5
		 WHERE id = $1`, id, status, recipients, errMsg, at)
	return err
}

// EnqueueTasks writes all of a campaign's notification tasks atomically
func (r *CampaignRepository) EnqueueTasks(ctx context.Context, tasks []*models.NotificationTask) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	outbox := NewOutboxRepository(tx)
	for _, t := range tasks {
		if err := outbox.Enqueue(ctx, t); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *CampaignRepository) query(ctx context.Context, query string, args ...any) ([]*models.BulkEmailCampaign, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*models.BulkEmailCampaign
	for rows.Next() {
		var c models.BulkEmailCampaign
		if err := rows.Scan(&c.ID, &c.CampaignName, &c.RecipientFilter, &c.Subject, &c.Message,
			&c.IncludeTrackingLinks, &c.RecipientCount, &c.SentBy, &c.Status, &c.ErrorMessage,
			&c.CreatedAt, &c.CompletedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, rows.Err()
}
