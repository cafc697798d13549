package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/pkg/utils"
)

const maxWebhookBody = 1 << 20

// Payments is the Razorpay side of the payment service
type Payments interface {
	CreateOrder(ctx context.Context, tracking string) (*models.PaymentOrder, error)
	VerifyWebhookSignature(body []byte, signature string) bool
	ProcessWebhook(ctx context.Context, body []byte) error
}

type RazorpayHandler struct {
	payments Payments
	logger   *zap.Logger
}

func NewRazorpayHandler(payments Payments, logger *zap.Logger) *RazorpayHandler {
	return &RazorpayHandler{payments: payments, logger: logger.With(zap.String("component", "razorpay"))}
}

// CreateOrder handles POST /api/v1/shipments/{tracking}/payment/order
func (h *RazorpayHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.payments.CreateOrder(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, order)
}

// HandleWebhook processes Razorpay webhook events
// POST /api/v1/payments/webhook
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		utils.Error(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if !h.payments.VerifyWebhookSignature(body, r.Header.Get("X-Razorpay-Signature")) {
		h.logger.Warn("invalid webhook signature", zap.String("ip", r.RemoteAddr))
		utils.Error(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	// Acknowledge anything that verified so Razorpay stops retrying.
	if err := h.payments.ProcessWebhook(r.Context(), body); err != nil {
		h.logger.Error("webhook processing failed", zap.Error(err))
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
