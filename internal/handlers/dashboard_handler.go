package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

type DashboardSource interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	QuickActions() []models.QuickAction
}

type DashboardHandler struct {
	source DashboardSource
	logger *zap.Logger
}

func NewDashboardHandler(source DashboardSource, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{source: source, logger: logger}
}

// Dashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.source.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

func (h *DashboardHandler) QuickActions(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]interface{}{"actions": h.source.QuickActions()})
}
