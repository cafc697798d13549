package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

// PublicTracker backs the unauthenticated tracking page
type PublicTracker interface {
	Track(ctx context.Context, tracking string) (*models.PublicTracking, error)
	QRCode(ctx context.Context, tracking string) ([]byte, error)
	Invoice(ctx context.Context, tracking string) ([]byte, string, error)
}

type PublicHandler struct {
	tracker PublicTracker
	logger  *zap.Logger
}

func NewPublicHandler(tracker PublicTracker, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{tracker: tracker, logger: logger}
}

// Track handles GET /api/v1/public/track/{tracking}
func (h *PublicHandler) Track(w http.ResponseWriter, r *http.Request) {
	p, err := h.tracker.Track(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writePublicError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

// QRCode handles GET /api/v1/public/track/{tracking}/qr
func (h *PublicHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.tracker.QRCode(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writePublicError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}

// Invoice handles GET /api/v1/public/track/{tracking}/invoice
func (h *PublicHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	pdf, name, err := h.tracker.Invoice(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writePublicError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", name))
	w.Write(pdf)
}
