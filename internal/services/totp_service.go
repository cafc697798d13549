package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
)

const totpIssuer = "EukExpress"

var (
	ErrNoTOTPSecret    = errors.New("2FA setup has not been started")
	ErrInvalidTOTPCode = errors.New("invalid 2FA code")
	ErrTOTPNotEnabled  = errors.New("2FA is not enabled")
)

// TOTPService manages admin two-factor authentication
type TOTPService struct {
	admins AdminStore
	logger *zap.Logger
}

func NewTOTPService(admins AdminStore, logger *zap.Logger) *TOTPService {
	return &TOTPService{admins: admins, logger: logger.Named("totp")}
}

// Setup creates a new secret and its QR code. 2FA stays disabled until
// Enable confirms a code.
func (s *TOTPService) Setup(ctx context.Context, adminID uuid.UUID) (*models.TOTPSetupResponse, error) {
	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		return nil, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: admin.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}
	if err := s.admins.SetTOTP(ctx, adminID, key.Secret(), false); err != nil {
		return nil, err
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      totpIssuer,
		AccountName: admin.Username,
	}, nil
}

// Enable turns on 2FA once the admin proves they hold the secret
func (s *TOTPService) Enable(ctx context.Context, adminID uuid.UUID, code string) error {
	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}
	if !totp.Validate(code, admin.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	if err := s.admins.SetTOTP(ctx, adminID, admin.TOTPSecret, true); err != nil {
		return err
	}
	s.logger.Info("2fa enabled", zap.String("username", admin.Username))
	return nil
}

// Disable turns off 2FA and forgets the secret
func (s *TOTPService) Disable(ctx context.Context, adminID uuid.UUID, code string) error {
	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !totp.Validate(code, admin.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	if err := s.admins.SetTOTP(ctx, adminID, "", false); err != nil {
		return err
	}
	s.logger.Info("2fa disabled", zap.String("username", admin.Username))
	return nil
}
