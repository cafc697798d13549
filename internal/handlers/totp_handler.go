package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eukexpress-backend/internal/middleware"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

// TwoFactor manages admin TOTP enrolment
type TwoFactor interface {
	Setup(ctx context.Context, adminID uuid.UUID) (*models.TOTPSetupResponse, error)
	Enable(ctx context.Context, adminID uuid.UUID, code string) error
	Disable(ctx context.Context, adminID uuid.UUID, code string) error
}

type TOTPHandler struct {
	totp   TwoFactor
	logger *zap.Logger
}

func NewTOTPHandler(totp TwoFactor, logger *zap.Logger) *TOTPHandler {
	return &TOTPHandler{totp: totp, logger: logger}
}

// Setup initiates 2FA setup - returns secret and QR code
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	resp, err := h.totp.Setup(r.Context(), adminID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Enable verifies the first code and switches 2FA on
func (h *TOTPHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.totp.Enable, "2FA enabled")
}

// Disable requires a valid current code
func (h *TOTPHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.totp.Disable, "2FA disabled")
}

func (h *TOTPHandler) withCode(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, uuid.UUID, string) error, message string) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.TOTPCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "Verification code is required")
		return
	}

	if err := fn(r.Context(), adminID, req.Code); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": message})
}
