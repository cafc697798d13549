package handlers

import (
	"net/http"

	"eukexpress-backend/internal/monitoring"
	"eukexpress-backend/pkg/utils"
)

type MonitoringHandler struct {
	db           monitoring.Pinger
	cacheHealthy func() bool
	hub          *monitoring.Hub
}

func NewMonitoringHandler(db monitoring.Pinger, cacheHealthy func() bool, hub *monitoring.Hub) *MonitoringHandler {
	return &MonitoringHandler{db: db, cacheHealthy: cacheHealthy, hub: hub}
}

// SystemStats handles GET /api/v1/system/stats
func (h *MonitoringHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	healthy := h.cacheHealthy != nil && h.cacheHealthy()
	utils.JSON(w, http.StatusOK, monitoring.CollectSystemStats(r.Context(), h.db, healthy, h.hub))
}
