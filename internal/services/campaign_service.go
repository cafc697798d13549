package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/internal/workflow"
)

const campaignListLimit = 50

// CampaignService records bulk email campaigns and expands them into
// outbox tasks from the background worker.
type CampaignService struct {
	campaigns CampaignStore
	shipments ShipmentStore
	planner   *NotificationPlanner
	logger    *zap.Logger
	now       func() time.Time
}

func NewCampaignService(campaigns CampaignStore, shipments ShipmentStore, planner *NotificationPlanner, logger *zap.Logger) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		shipments: shipments,
		planner:   planner,
		logger:    logger.Named("campaigns"),
		now:       timeutil.Now,
	}
}

// Create validates and records a PENDING campaign
func (c *CampaignService) Create(ctx context.Context, req *models.BulkEmailRequest, actor string) (*models.CampaignResponse, error) {
	v := models.NewValidationError()
	filter := strings.ToLower(strings.TrimSpace(req.RecipientFilter))
	if filter == "" {
		filter = models.FilterAll
	}
	if !models.ValidCampaignFilter(filter) {
		v.Add("recipient_filter", "must be all, active, customs_bond, delayed or international")
	}
	if strings.TrimSpace(req.Subject) == "" {
		v.Add("subject", "is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		v.Add("message", "is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	targets, err := c.shipments.ListByCampaignFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.CampaignName)
	if name == "" {
		name = fmt.Sprintf("Bulk %s %s", filter, c.now().Format(timeutil.DateTimeLayout))
	}
	campaign := &models.BulkEmailCampaign{
		CampaignName:         name,
		RecipientFilter:      filter,
		Subject:              strings.TrimSpace(req.Subject),
		Message:              req.Message,
		IncludeTrackingLinks: req.IncludeTrackingLinks,
		RecipientCount:       countRecipients(targets),
		SentBy:               actor,
		Status:               models.CampaignPending,
	}
	if err := c.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	c.logger.Info("campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("filter", filter),
		zap.Int("recipients", campaign.RecipientCount),
		zap.String("actor", actor))

	return &models.CampaignResponse{
		Success:        true,
		CampaignID:     campaign.ID.String(),
		RecipientCount: campaign.RecipientCount,
		Status:         campaign.Status,
	}, nil
}

func countRecipients(targets []*models.Shipment) int {
	n := 0
	for _, s := range targets {
		n += len(workflow.Parties(s, true))
	}
	return n
}

// List returns the most recent campaigns
func (c *CampaignService) List(ctx context.Context) ([]*models.BulkEmailCampaign, error) {
	return c.campaigns.List(ctx, campaignListLimit)
}

// ProcessPending claims PENDING campaigns and turns each into outbox tasks.
// It returns the number of campaigns handled.
func (c *CampaignService) ProcessPending(ctx context.Context, limit int) (int, error) {
	claimed, err := c.campaigns.ClaimPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	for _, campaign := range claimed {
		n, err := c.expand(ctx, campaign)
		now := c.now()
		if err != nil {
			c.logger.Error("campaign failed", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
			if ferr := c.campaigns.Finish(ctx, campaign.ID, models.CampaignFailed, 0, err.Error(), now); ferr != nil {
				return 0, ferr
			}
			continue
		}
		if err := c.campaigns.Finish(ctx, campaign.ID, models.CampaignCompleted, n, "", now); err != nil {
			return 0, err
		}
		c.logger.Info("campaign queued", zap.String("campaign_id", campaign.ID.String()), zap.Int("emails", n))
	}
	return len(claimed), nil
}

func (c *CampaignService) expand(ctx context.Context, campaign *models.BulkEmailCampaign) (int, error) {
	targets, err := c.shipments.ListByCampaignFilter(ctx, campaign.RecipientFilter)
	if err != nil {
		return 0, err
	}

	now := c.now()
	id := campaign.ID
	var tasks []*models.NotificationTask
	for _, s := range targets {
		for _, r := range workflow.Parties(s, true) {
			t, err := c.planner.Message(s, models.EmailBulk, r, campaign.Subject, campaign.Message, campaign.IncludeTrackingLinks, now)
			if err != nil {
				return 0, err
			}
			t.CampaignID = &id
			tasks = append(tasks, t)
		}
	}
	if len(tasks) == 0 {
		return 0, nil
	}
	if err := c.campaigns.EnqueueTasks(ctx, tasks); err != nil {
		return 0, err
	}
	return len(tasks), nil
}
