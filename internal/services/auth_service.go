package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"eukexpress-backend/internal/auth"
	"eukexpress-backend/internal/cache"
	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
)

type AuthService struct {
	admins  AdminStore
	jwt     *auth.JWTManager
	limiter *cache.RateLimiter
	logger  *zap.Logger
	now     func() time.Time
}

func NewAuthService(admins AdminStore, jwt *auth.JWTManager, limiter *cache.RateLimiter, logger *zap.Logger) *AuthService {
	return &AuthService{
		admins:  admins,
		jwt:     jwt,
		limiter: limiter,
		logger:  logger.Named("auth"),
		now:     timeutil.Now,
	}
}

// Login checks credentials and the TOTP code when 2FA is enabled
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest, ip string) (*models.AuthResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	ipKey, userKey := "login:ip:"+ip, "login:user:"+username

	ipOK := s.limiter.Allow(ctx, ipKey)
	userOK := s.limiter.Allow(ctx, userKey)
	if !ipOK || !userOK {
		s.logger.Warn("login rate limited", zap.String("username", username), zap.String("ip", ip))
		return nil, models.ErrRateLimited
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !admin.IsActive || !auth.VerifyPassword(admin.PasswordHash, req.Password) {
		s.logger.Warn("failed login", zap.String("username", username), zap.String("ip", ip))
		return nil, models.ErrInvalidCredentials
	}
	if admin.TOTPEnabled {
		if req.TOTPCode == "" {
			return nil, models.ErrTOTPRequired
		}
		if !totp.Validate(req.TOTPCode, admin.TOTPSecret) {
			s.logger.Warn("invalid 2fa code", zap.String("username", username), zap.String("ip", ip))
			return nil, models.ErrInvalidCredentials
		}
	}

	s.limiter.Reset(ctx, ipKey)
	s.limiter.Reset(ctx, userKey)

	now := s.now()
	if err := s.admins.RecordLogin(ctx, admin.ID, ip, now); err != nil {
		s.logger.Warn("failed to record login", zap.Error(err))
	}
	admin.LastLogin = &now
	admin.LastLoginIP = ip

	token, expiresAt, err := s.jwt.GenerateToken(admin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.logger.Info("admin logged in", zap.String("username", admin.Username), zap.String("ip", ip))
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Me returns the admin behind a session
func (s *AuthService) Me(ctx context.Context, adminID uuid.UUID) (*models.Admin, error) {
	return s.admins.Get(ctx, adminID)
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, adminID uuid.UUID, req *models.ChangePasswordRequest) error {
	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(admin.PasswordHash, req.CurrentPassword) {
		return models.ErrInvalidCredentials
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		v := models.NewValidationError()
		v.Add("new_password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
		return v
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, adminID, hash); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("username", admin.Username))
	return nil
}

// EnsureBootstrapAdmin creates the configured admin when none exists
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, cfg *config.Config) error {
	n, err := s.admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	if len(cfg.Admin.Password) < auth.MinPasswordLength {
		s.logger.Warn("no admin account exists and ADMIN_PASSWORD is unset or too short; run create-admin")
		return nil
	}
	_, err = CreateAdmin(ctx, s.admins, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", cfg.Admin.Username))
	return nil
}

// CreateAdmin hashes password and stores a new active admin
func CreateAdmin(ctx context.Context, admins AdminStore, username, email, password string) (*models.Admin, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{
		ID:           uuid.New(),
		Username:     strings.ToLower(strings.TrimSpace(username)),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := admins.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}
