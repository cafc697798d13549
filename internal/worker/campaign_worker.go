package worker

import (
	"context"

	"go.uber.org/zap"
)

const campaignBatch = 5

// CampaignProcessor expands pending bulk campaigns into outbox tasks
type CampaignProcessor interface {
	ProcessPending(ctx context.Context, limit int) (int, error)
}

type CampaignWorker struct {
	busyFlag
	campaigns CampaignProcessor
	schedule  string
	logger    *zap.Logger
}

func NewCampaignWorker(campaigns CampaignProcessor, schedule string, logger *zap.Logger) *CampaignWorker {
	return &CampaignWorker{campaigns: campaigns, schedule: schedule, logger: logger.Named("campaigns")}
}

func (w *CampaignWorker) Name() string     { return "campaigns" }
func (w *CampaignWorker) Schedule() string { return w.schedule }

func (w *CampaignWorker) Execute(ctx context.Context) {
	if !w.acquire() {
		return
	}
	defer w.release()

	n, err := w.campaigns.ProcessPending(ctx, campaignBatch)
	if err != nil {
		w.logger.Error("campaign processing failed", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("campaigns processed", zap.Int("count", n))
	}
}
