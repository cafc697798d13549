package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eukexpress-backend/internal/models"
)

const shipmentColumns = `id, tracking_number, invoice_number,
	sender_name, sender_email, sender_phone, sender_address,
	recipient_name, recipient_email, recipient_phone, recipient_address,
	origin_location, origin_code, destination_location, destination_code, is_international,
	goods_description, weight_kg::float8, dimensions, declared_value::float8, declared_currency,
	front_image_path, rear_image_path, front_image_hash, rear_image_hash,
	shipping_amount::float8, payment_currency, payment_method, payment_status, payment_reference, payment_received_at,
	sending_date, estimated_delivery_date, actual_delivery_date,
	current_status, current_location, status_updated_at,
	customs_bond_active, customs_bond_activated_at, customs_bond_released_at,
	customs_bond_location, customs_bond_reference, customs_bond_notes,
	security_hold_active, security_hold_activated_at, security_hold_cleared_at,
	security_hold_location, security_hold_reference, security_hold_notes,
	damage_reported, damage_reported_at, damage_resolved_at, damage_description, damage_resolution_notes,
	return_active, return_initiated_at, return_completed_at, return_reason,
	delay_active, delay_reported_at, delay_resolved_at, delay_reason, delay_notes, original_eta, revised_eta,
	qr_code_path, invoice_pdf_path, created_at, updated_at`

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	var s models.Shipment
	err := row.Scan(
		&s.ID, &s.TrackingNumber, &s.InvoiceNumber,
		&s.SenderName, &s.SenderEmail, &s.SenderPhone, &s.SenderAddress,
		&s.RecipientName, &s.RecipientEmail, &s.RecipientPhone, &s.RecipientAddress,
		&s.OriginLocation, &s.OriginCode, &s.DestinationLocation, &s.DestinationCode, &s.IsInternational,
		&s.GoodsDescription, &s.WeightKg, &s.Dimensions, &s.DeclaredValue, &s.DeclaredCurrency,
		&s.FrontImagePath, &s.RearImagePath, &s.FrontImageHash, &s.RearImageHash,
		&s.ShippingAmount, &s.PaymentCurrency, &s.PaymentMethod, &s.PaymentStatus, &s.PaymentReference, &s.PaymentReceivedAt,
		&s.SendingDate, &s.EstimatedDeliveryDate, &s.ActualDeliveryDate,
		&s.CurrentStatus, &s.CurrentLocation, &s.StatusUpdatedAt,
		&s.CustomsBondActive, &s.CustomsBondActivatedAt, &s.CustomsBondReleasedAt,
		&s.CustomsBondLocation, &s.CustomsBondReference, &s.CustomsBondNotes,
		&s.SecurityHoldActive, &s.SecurityHoldActivatedAt, &s.SecurityHoldClearedAt,
		&s.SecurityHoldLocation, &s.SecurityHoldReference, &s.SecurityHoldNotes,
		&s.DamageReported, &s.DamageReportedAt, &s.DamageResolvedAt, &s.DamageDescription, &s.DamageResolutionNotes,
		&s.ReturnActive, &s.ReturnInitiatedAt, &s.ReturnCompletedAt, &s.ReturnReason,
		&s.DelayActive, &s.DelayReportedAt, &s.DelayResolvedAt, &s.DelayReason, &s.DelayNotes, &s.OriginalETA, &s.RevisedETA,
		&s.QRCodePath, &s.InvoicePDFPath, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type ShipmentRepository struct {
	DB *pgxpool.Pool
}

func NewShipmentRepository(db *pgxpool.Pool) *ShipmentRepository {
	return &ShipmentRepository{DB: db}
}

// TrackingExists reports whether a tracking number is already taken
func (r *ShipmentRepository) TrackingExists(ctx context.Context, tracking string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shipments WHERE tracking_number = $1)`, tracking).Scan(&exists)
	return exists, err
}

// Insert stores a new shipment together with its creation history and
// invoice notifications in one transaction.
func (r *ShipmentRepository) Insert(ctx context.Context, s *models.Shipment, cs *models.ChangeSet) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO shipments(id, tracking_number, invoice_number,
			sender_name, sender_email, sender_phone, sender_address,
			recipient_name, recipient_email, recipient_phone, recipient_address,
			origin_location, origin_code, destination_location, destination_code, is_international,
			goods_description, weight_kg, dimensions, declared_value, declared_currency,
			front_image_path, rear_image_path, front_image_hash, rear_image_hash,
			shipping_amount, payment_currency, payment_method, payment_status,
			sending_date, estimated_delivery_date,
			current_status, current_location, status_updated_at,
			qr_code_path, invoice_pdf_path, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38)`,
		s.ID, s.TrackingNumber, s.InvoiceNumber,
		s.SenderName, s.SenderEmail, s.SenderPhone, s.SenderAddress,
		s.RecipientName, s.RecipientEmail, s.RecipientPhone, s.RecipientAddress,
		s.OriginLocation, s.OriginCode, s.DestinationLocation, s.DestinationCode, s.IsInternational,
		s.GoodsDescription, s.WeightKg, s.Dimensions, s.DeclaredValue, s.DeclaredCurrency,
		s.FrontImagePath, s.RearImagePath, s.FrontImageHash, s.RearImageHash,
		s.ShippingAmount, s.PaymentCurrency, s.PaymentMethod, s.PaymentStatus,
		s.SendingDate, s.EstimatedDeliveryDate,
		s.CurrentStatus, s.CurrentLocation, s.StatusUpdatedAt,
		s.QRCodePath, s.InvoicePDFPath, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shipment: %w", err)
	}

	if err := writeChangeSet(ctx, tx, cs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Mutate locks the shipment row, lets fn change it and returns the rows to
// append, then persists everything atomically. If fn fails nothing is
// written.
func (r *ShipmentRepository) Mutate(ctx context.Context, tracking string, fn func(*models.Shipment) (*models.ChangeSet, error)) (*models.Shipment, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s, err := scanShipment(tx.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE tracking_number = $1 FOR UPDATE`, tracking))
	if err != nil {
		return nil, err
	}

	cs, err := fn(s)
	if err != nil {
		return nil, err
	}

	if err := updateShipment(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := writeChangeSet(ctx, tx, cs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shipment mutation: %w", err)
	}
	return s, nil
}

func updateShipment(ctx context.Context, tx pgx.Tx, s *models.Shipment) error {
	_, err := tx.Exec(ctx,
		`UPDATE shipments SET
			current_status = $2, current_location = $3, status_updated_at = $4, actual_delivery_date = $5,
			customs_bond_active = $6, customs_bond_activated_at = $7, customs_bond_released_at = $8,
			customs_bond_location = $9, customs_bond_reference = $10, customs_bond_notes = $11,
			security_hold_active = $12, security_hold_activated_at = $13, security_hold_cleared_at = $14,
			security_hold_location = $15, security_hold_reference = $16, security_hold_notes = $17,
			damage_reported = $18, damage_reported_at = $19, damage_resolved_at = $20,
			damage_description = $21, damage_resolution_notes = $22,
			return_active = $23, return_initiated_at = $24, return_completed_at = $25, return_reason = $26,
			delay_active = $27, delay_reported_at = $28, delay_resolved_at = $29,
			delay_reason = $30, delay_notes = $31, original_eta = $32, revised_eta = $33,
			payment_status = $34, payment_method = $35, payment_reference = $36, payment_received_at = $37,
			updated_at = $38
		 WHERE id = $1`,
		s.ID,
		s.CurrentStatus, s.CurrentLocation, s.StatusUpdatedAt, s.ActualDeliveryDate,
		s.CustomsBondActive, s.CustomsBondActivatedAt, s.CustomsBondReleasedAt,
		s.CustomsBondLocation, s.CustomsBondReference, s.CustomsBondNotes,
		s.SecurityHoldActive, s.SecurityHoldActivatedAt, s.SecurityHoldClearedAt,
		s.SecurityHoldLocation, s.SecurityHoldReference, s.SecurityHoldNotes,
		s.DamageReported, s.DamageReportedAt, s.DamageResolvedAt,
		s.DamageDescription, s.DamageResolutionNotes,
		s.ReturnActive, s.ReturnInitiatedAt, s.ReturnCompletedAt, s.ReturnReason,
		s.DelayActive, s.DelayReportedAt, s.DelayResolvedAt,
		s.DelayReason, s.DelayNotes, s.OriginalETA, s.RevisedETA,
		s.PaymentStatus, s.PaymentMethod, s.PaymentReference, s.PaymentReceivedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update shipment: %w", err)
	}
	return nil
}

func writeChangeSet(ctx context.Context, tx pgx.Tx, cs *models.ChangeSet) error {
	if cs.Empty() {
		return nil
	}
	if cs.History != nil {
		if err := NewStatusHistoryRepository(tx).Create(ctx, cs.History); err != nil {
			return err
		}
	}
	if cs.Intervention != nil {
		if err := NewInterventionLogRepository(tx).Create(ctx, cs.Intervention); err != nil {
			return err
		}
	}
	outbox := NewOutboxRepository(tx)
	for _, t := range cs.Tasks {
		if err := outbox.Enqueue(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// GetByTracking returns the shipment or models.ErrNotFound
func (r *ShipmentRepository) GetByTracking(ctx context.Context, tracking string) (*models.Shipment, error) {
	return scanShipment(r.DB.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE tracking_number = $1`, tracking))
}

// buildFilter turns a ListFilter into a WHERE clause and its arguments
func buildFilter(f models.ListFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("current_status = $%d", f.Status)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(tracking_number ILIKE $%[1]d OR invoice_number ILIKE $%[1]d
			OR sender_name ILIKE $%[1]d OR recipient_name ILIKE $%[1]d
			OR origin_location ILIKE $%[1]d OR destination_location ILIKE $%[1]d)`, n))
	}
	if f.DateFrom != nil {
		add("created_at::date >= $%d::date", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at::date <= $%d::date", *f.DateTo)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of shipments, newest first, and the total count
func (r *ShipmentRepository) List(ctx context.Context, f models.ListFilter) ([]*models.Shipment, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM shipments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shipments: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM shipments%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		shipmentColumns, where, len(args)-1, len(args))
	shipments, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// Export returns every shipment matching f, newest first
func (r *ShipmentRepository) Export(ctx context.Context, f models.ListFilter) ([]*models.Shipment, error) {
	where, args := buildFilter(f)
	return r.query(ctx, `SELECT `+shipmentColumns+` FROM shipments`+where+` ORDER BY created_at DESC`, args...)
}

// ListByCampaignFilter selects the shipments a bulk campaign addresses
func (r *ShipmentRepository) ListByCampaignFilter(ctx context.Context, filter string) ([]*models.Shipment, error) {
	var where string
	switch filter {
	case models.FilterAll:
	case models.FilterActive:
		where = ` WHERE current_status NOT IN ('DELIVERED', 'RETURN_TO_SENDER')`
	case models.FilterCustomsBond:
		where = ` WHERE customs_bond_active = true`
	case models.FilterDelayed:
		where = ` WHERE delay_active = true`
	case models.FilterInternational:
		where = ` WHERE is_international = true`
	default:
		return nil, fmt.Errorf("unknown recipient filter %q", filter)
	}
	return r.query(ctx, `SELECT `+shipmentColumns+` FROM shipments`+where+` ORDER BY created_at DESC`)
}

func (r *ShipmentRepository) query(ctx context.Context, query string, args ...any) ([]*models.Shipment, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*models.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

// DistinctStatuses returns the statuses currently present
func (r *ShipmentRepository) DistinctStatuses(ctx context.Context) ([]models.ShipmentStatus, error) {
	rows, err := r.DB.Query(ctx, `SELECT DISTINCT current_status FROM shipments ORDER BY current_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []models.ShipmentStatus
	for rows.Next() {
		var s models.ShipmentStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// DistinctLocations returns up to limit origin and destination names
func (r *ShipmentRepository) DistinctLocations(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT loc FROM (
			SELECT origin_location AS loc FROM shipments
			UNION
			SELECT destination_location FROM shipments
		 ) l ORDER BY loc LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Delete removes a shipment. History and ledger rows cascade; email logs
// and outbox tasks keep a NULL reference.
func (r *ShipmentRepository) Delete(ctx context.Context, tracking string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM shipments WHERE tracking_number = $1`, tracking)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
