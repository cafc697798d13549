package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"eukexpress-backend/internal/middleware"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

// Messenger queues ad-hoc and repeated emails for one shipment
type Messenger interface {
	SendMessage(ctx context.Context, tracking string, req *models.DirectMessageRequest, actor string) (int, error)
	Resend(ctx context.Context, tracking string, req *models.EmailResendRequest, actor string) (int, error)
}

// Campaigns records and lists bulk email campaigns
type Campaigns interface {
	Create(ctx context.Context, req *models.BulkEmailRequest, actor string) (*models.CampaignResponse, error)
	List(ctx context.Context) ([]*models.BulkEmailCampaign, error)
}

type CommunicationHandler struct {
	messenger Messenger
	campaigns Campaigns
	logger    *zap.Logger
}

func NewCommunicationHandler(messenger Messenger, campaigns Campaigns, logger *zap.Logger) *CommunicationHandler {
	return &CommunicationHandler{messenger: messenger, campaigns: campaigns, logger: logger}
}

// SendMessage handles POST /api/v1/shipments/{tracking}/message
func (h *CommunicationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.DirectMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	n, err := h.messenger.SendMessage(r.Context(), mux.Vars(r)["tracking"], &req, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusAccepted, map[string]interface{}{"success": true, "queued": n})
}

// Resend handles POST /api/v1/shipments/{tracking}/email/resend
func (h *CommunicationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req models.EmailResendRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	n, err := h.messenger.Resend(r.Context(), mux.Vars(r)["tracking"], &req, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusAccepted, map[string]interface{}{"success": true, "queued": n})
}

// CreateCampaign handles POST /api/v1/bulk/email
func (h *CommunicationHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req models.BulkEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.campaigns.Create(r.Context(), &req, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusAccepted, resp)
}

// ListCampaigns handles GET /api/v1/bulk/campaigns
func (h *CommunicationHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := h.campaigns.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []*models.BulkEmailCampaign{}
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"campaigns": list})
}
