package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
)

type fakeOrders struct {
	data map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.data = data
	return f.resp, f.err
}

func newPayments(env *testEnv) *PaymentService {
	env.cfg.Razorpay.KeyID = "rzp_test_key"
	env.cfg.Razorpay.WebhookSecret = "whsec"
	return NewPaymentService(env.cfg, env.shipments, env.service, zap.NewNop())
}

func sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)
	p := newPayments(env)

	_, err := p.CreateOrder(context.Background(), "EUKAB234")
	assert.ErrorIs(t, err, ErrPaymentsDisabled)

	orders := &fakeOrders{resp: map[string]interface{}{"id": "order_123"}}
	p.SetOrderCreator(orders)
	order, err := p.CreateOrder(context.Background(), "eukab234")
	require.NoError(t, err)
	assert.Equal(t, "order_123", order.OrderID)
	assert.Equal(t, "rzp_test_key", order.KeyID)
	assert.Equal(t, int64(2500000), orders.data["amount"])
	assert.Equal(t, "NGN", orders.data["currency"])

	s, _ := env.shipments.GetByTracking(context.Background(), "EUKAB234")
	assert.Equal(t, "order_123", s.PaymentReference)
	assert.Equal(t, models.PaymentPending, s.PaymentStatus)
}

func TestCreateOrderErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)
	p := newPayments(env)

	p.SetOrderCreator(&fakeOrders{err: errors.New("gateway down")})
	_, err := p.CreateOrder(context.Background(), "EUKAB234")
	assert.Error(t, err)

	env.shipments.rows["EUKAB234"].PaymentStatus = models.PaymentPaid
	_, err = p.CreateOrder(context.Background(), "EUKAB234")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestWebhookSignature(t *testing.T) {
	env := newTestEnv(t)
	p := newPayments(env)
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, p.VerifyWebhookSignature(body, sign("whsec", body)))
	assert.False(t, p.VerifyWebhookSignature(body, sign("other", body)))
	assert.False(t, p.VerifyWebhookSignature(body, ""))

	env.cfg.Razorpay.WebhookSecret = ""
	assert.False(t, p.VerifyWebhookSignature(body, sign("", body)))
}

func TestProcessWebhook(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)
	p := newPayments(env)
	ctx := context.Background()

	captured := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","method":"card","notes":{"tracking_number":"EUKAB234"}}}}}`)
	require.NoError(t, p.ProcessWebhook(ctx, captured))
	s, _ := env.shipments.GetByTracking(ctx, "EUKAB234")
	assert.Equal(t, models.PaymentPaid, s.PaymentStatus)
	assert.Equal(t, "razorpay/card", s.PaymentMethod)
	assert.Equal(t, "pay_1", s.PaymentReference)
	assert.NotNil(t, s.PaymentReceivedAt)

	require.NoError(t, p.ProcessWebhook(ctx, []byte(`{"event":"order.paid"}`)))
	assert.ErrorIs(t, p.ProcessWebhook(ctx, []byte(`{`)), models.ErrValidation)
	assert.ErrorIs(t, p.ProcessWebhook(ctx, []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_2"}}}}`)), models.ErrValidation)
}
