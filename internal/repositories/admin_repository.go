package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eukexpress-backend/internal/models"
)

type AdminRepository struct {
	DB *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{DB: db}
}

const adminColumns = `id, username, email, password_hash, totp_secret, totp_enabled, is_active,
	last_login, last_login_ip, created_at, updated_at`

func scanAdmin(row pgx.Row) (*models.Admin, error) {
	var a models.Admin
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.TOTPSecret, &a.TOTPEnabled,
		&a.IsActive, &a.LastLogin, &a.LastLoginIP, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepository) Create(ctx context.Context, a *models.Admin) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO admins(id, username, email, password_hash, is_active)
		 VALUES($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.IsActive,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AdminRepository) Get(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	return scanAdmin(r.DB.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
}

// GetByUsername matches either the username or the email address
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return scanAdmin(r.DB.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE username = $1 OR email = $1`, username))
}

func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}

func (r *AdminRepository) RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE admins SET last_login = $2, last_login_ip = $3 WHERE id = $1`, id, at, ip)
	return err
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	return err
}

// SetTOTP stores the secret and whether it is enabled. An empty secret
// with enabled=false turns 2FA off.
func (r *AdminRepository) SetTOTP(ctx context.Context, id uuid.UUID, secret string, enabled bool) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE admins SET totp_secret = $2, totp_enabled = $3, updated_at = NOW() WHERE id = $1`,
		id, secret, enabled)
	return err
}
