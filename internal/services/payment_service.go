package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/models"
)

var ErrPaymentsDisabled = errors.New("online payments are not configured")

// OrderCreator is the part of the Razorpay client used to open orders
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentService takes shipping payments through Razorpay
type PaymentService struct {
	cfg       *config.Config
	shipments ShipmentStore
	recorder  *ShipmentService
	orders    OrderCreator
	logger    *zap.Logger
}

func NewPaymentService(cfg *config.Config, shipments ShipmentStore, recorder *ShipmentService, logger *zap.Logger) *PaymentService {
	p := &PaymentService{
		cfg:       cfg,
		shipments: shipments,
		recorder:  recorder,
		logger:    logger.Named("payments"),
	}
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		p.orders = razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret).Order
	}
	return p
}

// SetOrderCreator replaces the Razorpay order API
func (p *PaymentService) SetOrderCreator(o OrderCreator) {
	p.orders = o
}

// CreateOrder opens a Razorpay order for the shipping amount
func (p *PaymentService) CreateOrder(ctx context.Context, tracking string) (*models.PaymentOrder, error) {
	if p.orders == nil {
		return nil, ErrPaymentsDisabled
	}
	s, err := p.shipments.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return nil, err
	}
	if s.PaymentStatus == models.PaymentPaid {
		v := models.NewValidationError()
		v.Add("payment_status", "shipment is already paid")
		return nil, v
	}

	currency := s.PaymentCurrency
	if currency == "" {
		currency = p.cfg.Razorpay.Currency
	}
	order, err := p.orders.Create(map[string]interface{}{
		"amount":   int64(math.Round(s.ShippingAmount * 100)),
		"currency": currency,
		"receipt":  s.InvoiceNumber,
		"notes": map[string]interface{}{
			"tracking_number": s.TrackingNumber,
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay order response has no id")
	}

	if _, err := p.recorder.RecordPayment(ctx, s.TrackingNumber, &models.ManualPaymentRequest{
		Status:    models.PaymentPending,
		Method:    "razorpay",
		Reference: orderID,
	}); err != nil {
		return nil, err
	}
	p.logger.Info("payment order created", zap.String("tracking_number", s.TrackingNumber), zap.String("order_id", orderID))

	return &models.PaymentOrder{
		OrderID:  orderID,
		Amount:   s.ShippingAmount,
		Currency: currency,
		KeyID:    p.cfg.Razorpay.KeyID,
		Tracking: s.TrackingNumber,
	}, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header
func (p *PaymentService) VerifyWebhookSignature(body []byte, signature string) bool {
	secret := p.cfg.Razorpay.WebhookSecret
	if secret == "" || signature == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string            `json:"id"`
				OrderID string            `json:"order_id"`
				Method  string            `json:"method"`
				Notes   map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ProcessWebhook applies payment.captured and payment.failed events.
// Other events are ignored.
func (p *PaymentService) ProcessWebhook(ctx context.Context, body []byte) error {
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: malformed webhook body", models.ErrValidation)
	}

	var status string
	switch ev.Event {
	case "payment.captured":
		status = models.PaymentPaid
	case "payment.failed":
		status = models.PaymentFailed
	default:
		p.logger.Debug("ignoring webhook event", zap.String("event", ev.Event))
		return nil
	}

	entity := ev.Payload.Payment.Entity
	tracking := entity.Notes["tracking_number"]
	if tracking == "" {
		return fmt.Errorf("%w: payment %s carries no tracking number", models.ErrValidation, entity.ID)
	}
	method := "razorpay"
	if entity.Method != "" {
		method += "/" + entity.Method
	}
	if _, err := p.recorder.RecordPayment(ctx, tracking, &models.ManualPaymentRequest{
		Status:    status,
		Method:    method,
		Reference: entity.ID,
	}); err != nil {
		return err
	}
	p.logger.Info("payment webhook applied",
		zap.String("tracking_number", tracking),
		zap.String("event", ev.Event),
		zap.String("payment_id", entity.ID))
	return nil
}
