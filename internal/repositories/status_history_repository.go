package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"eukexpress-backend/internal/models"
)

type StatusHistoryRepository struct {
	DB DBTX
}

func NewStatusHistoryRepository(db DBTX) *StatusHistoryRepository {
	return &StatusHistoryRepository{DB: db}
}

func (r *StatusHistoryRepository) Create(ctx context.Context, h *models.StatusHistoryEntry) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO status_history(shipment_id, previous_status, new_status, changed_by, location, notes, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		h.ShipmentID, h.PreviousStatus, h.NewStatus, h.ChangedBy, h.Location, h.Notes, h.CreatedAt,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}
	return nil
}

// ListByShipment returns the timeline newest first
func (r *StatusHistoryRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*models.StatusHistoryEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, shipment_id, previous_status, new_status, changed_by, location, notes, created_at
		 FROM status_history WHERE shipment_id = $1
		 ORDER BY created_at DESC, id DESC`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.StatusHistoryEntry
	for rows.Next() {
		var h models.StatusHistoryEntry
		if err := rows.Scan(&h.ID, &h.ShipmentID, &h.PreviousStatus, &h.NewStatus,
			&h.ChangedBy, &h.Location, &h.Notes, &h.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}

// Recent returns the latest status changes across all shipments
func (r *StatusHistoryRepository) Recent(ctx context.Context, limit int) ([]*models.RecentActivity, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT h.id, h.shipment_id, h.previous_status, h.new_status, h.changed_by, h.location, h.notes, h.created_at,
		        s.tracking_number
		 FROM status_history h
		 JOIN shipments s ON s.id = h.shipment_id
		 ORDER BY h.created_at DESC, h.id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.RecentActivity
	for rows.Next() {
		var a models.RecentActivity
		if err := rows.Scan(&a.ID, &a.ShipmentID, &a.PreviousStatus, &a.NewStatus,
			&a.ChangedBy, &a.Location, &a.Notes, &a.CreatedAt, &a.TrackingNumber); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}
