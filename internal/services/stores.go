package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eukexpress-backend/internal/models"
)

// ShipmentStore is the persistence contract of the shipment record.
// Mutate must run fn and persist its result atomically: when fn returns an
// error nothing is written.
type ShipmentStore interface {
	TrackingExists(ctx context.Context, tracking string) (bool, error)
	Insert(ctx context.Context, s *models.Shipment, cs *models.ChangeSet) error
	Mutate(ctx context.Context, tracking string, fn func(*models.Shipment) (*models.ChangeSet, error)) (*models.Shipment, error)
	GetByTracking(ctx context.Context, tracking string) (*models.Shipment, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Shipment, int, error)
	Export(ctx context.Context, f models.ListFilter) ([]*models.Shipment, error)
	ListByCampaignFilter(ctx context.Context, filter string) ([]*models.Shipment, error)
	DistinctStatuses(ctx context.Context) ([]models.ShipmentStatus, error)
	DistinctLocations(ctx context.Context, limit int) ([]string, error)
	Delete(ctx context.Context, tracking string) error
}

type HistoryStore interface {
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*models.StatusHistoryEntry, error)
	Recent(ctx context.Context, limit int) ([]*models.RecentActivity, error)
}

type InterventionLogStore interface {
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*models.InterventionLogEntry, error)
}

type EmailLogStore interface {
	Create(ctx context.Context, e *models.EmailLogEntry) error
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*models.EmailLogEntry, error)
	LastNotification(ctx context.Context, shipmentID uuid.UUID) (*models.EmailLogEntry, error)
}

type OutboxStore interface {
	Enqueue(ctx context.Context, t *models.NotificationTask) error
	Stats(ctx context.Context) (*models.OutboxStats, error)
}

type DashboardStore interface {
	Stats(ctx context.Context, todayStart, monthStart, staleBefore time.Time) (*models.DashboardStats, error)
	CountStale(ctx context.Context, staleBefore time.Time) (int, error)
}

type CampaignStore interface {
	Create(ctx context.Context, c *models.BulkEmailCampaign) error
	List(ctx context.Context, limit int) ([]*models.BulkEmailCampaign, error)
	ClaimPending(ctx context.Context, limit int) ([]*models.BulkEmailCampaign, error)
	Finish(ctx context.Context, id uuid.UUID, status string, recipients int, errMsg string, at time.Time) error
	EnqueueTasks(ctx context.Context, tasks []*models.NotificationTask) error
}

type AdminStore interface {
	Create(ctx context.Context, a *models.Admin) error
	Get(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	Count(ctx context.Context) (int, error)
	RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetTOTP(ctx context.Context, id uuid.UUID, secret string, enabled bool) error
}

// ActivityPublisher receives a feed item for every committed status change
type ActivityPublisher interface {
	Publish(item models.ActivityItem)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.ActivityItem) {}
