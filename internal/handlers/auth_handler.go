package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eukexpress-backend/internal/middleware"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

// Authenticator is the slice of the auth service the handlers need
type Authenticator interface {
	Login(ctx context.Context, req *models.LoginRequest, ip string) (*models.AuthResponse, error)
	Me(ctx context.Context, adminID uuid.UUID) (*models.Admin, error)
	ChangePassword(ctx context.Context, adminID uuid.UUID, req *models.ChangePasswordRequest) error
}

type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		utils.Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	resp, err := h.auth.Login(r.Context(), &req, middleware.ClientIP(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Verify handles GET /api/v1/auth/verify and returns the current admin
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	admin, err := h.auth.Me(r.Context(), adminID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"valid": true, "admin": admin})
}

// Logout is stateless, the client drops its token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Logged out"})
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req models.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.auth.ChangePassword(r.Context(), adminID, &req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Password updated"})
}
