package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"eukexpress-backend/internal/models"
)

type DashboardRepository struct {
	DB *pgxpool.Pool
}

func NewDashboardRepository(db *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// Stats computes the dashboard counters in a single pass over shipments
func (r *DashboardRepository) Stats(ctx context.Context, todayStart, monthStart, staleBefore time.Time) (*models.DashboardStats, error) {
	var s models.DashboardStats
	err := r.DB.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE current_status NOT IN ('DELIVERED', 'RETURN_TO_SENDER')),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE delay_active),
			COUNT(*) FILTER (WHERE customs_bond_active),
			COUNT(*) FILTER (WHERE damage_reported),
			COUNT(*) FILTER (WHERE security_hold_active),
			COUNT(*) FILTER (WHERE current_status NOT IN ('DELIVERED', 'RETURN_TO_SENDER') AND updated_at < $3),
			COALESCE(SUM(declared_value) FILTER (WHERE created_at >= $2), 0)::float8
		 FROM shipments`,
		todayStart, monthStart, staleBefore,
	).Scan(&s.ActiveShipments, &s.TodayShipments, &s.DelayedCount, &s.CustomsBondCount,
		&s.DamageReportedCount, &s.SecurityHoldCount, &s.AttentionRequired, &s.RevenueMonth)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountStale counts active shipments not updated since staleBefore
func (r *DashboardRepository) CountStale(ctx context.Context, staleBefore time.Time) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM shipments
		 WHERE current_status NOT IN ('DELIVERED', 'RETURN_TO_SENDER') AND updated_at < $1`,
		staleBefore).Scan(&n)
	return n, err
}
