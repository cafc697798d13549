package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"eukexpress-backend/internal/models"
)

type InterventionLogRepository struct {
	DB DBTX
}

func NewInterventionLogRepository(db DBTX) *InterventionLogRepository {
	return &InterventionLogRepository{DB: db}
}

func (r *InterventionLogRepository) Create(ctx context.Context, e *models.InterventionLogEntry) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO intervention_log(shipment_id, intervention_type, action, previous_state, new_state, redundant, notes, performed_by, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		e.ShipmentID, e.InterventionType, e.Action, e.PreviousState, e.NewState, e.Redundant, e.Notes, e.PerformedBy, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to insert intervention log: %w", err)
	}
	return nil
}

// ListByShipment returns the ledger newest first
func (r *InterventionLogRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*models.InterventionLogEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, shipment_id, intervention_type, action, previous_state, new_state, redundant, notes, performed_by, created_at
		 FROM intervention_log WHERE shipment_id = $1
		 ORDER BY created_at DESC, id DESC`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.InterventionLogEntry
	for rows.Next() {
		var e models.InterventionLogEntry
		if err := rows.Scan(&e.ID, &e.ShipmentID, &e.InterventionType, &e.Action, &e.PreviousState,
			&e.NewState, &e.Redundant, &e.Notes, &e.PerformedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
