package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eukexpress-backend/internal/models"
)

type recordingPublisher struct {
	items []models.ActivityItem
}

func (r *recordingPublisher) Publish(item models.ActivityItem) { r.items = append(r.items, item) }

func TestCreateShipment(t *testing.T) {
	env := newTestEnv(t)
	feed := &recordingPublisher{}
	env.service.SetActivityPublisher(feed)

	s, err := env.service.Create(context.Background(), validRequest(), nil, nil, "ops")
	require.NoError(t, err)

	assert.True(t, ValidTrackingFormat(s.TrackingNumber), s.TrackingNumber)
	assert.Equal(t, "INV-20250314-"+s.TrackingNumber[3:], s.InvoiceNumber)
	assert.Equal(t, models.StatusBooked, s.CurrentStatus)
	assert.Equal(t, "Lagos", s.CurrentLocation)
	assert.Equal(t, "LOS", s.OriginCode)
	assert.Equal(t, "USD", s.DeclaredCurrency)
	assert.Equal(t, "NGN", s.PaymentCurrency)
	assert.Equal(t, models.PaymentPending, s.PaymentStatus)

	require.Len(t, env.shipments.history, 1)
	h := env.shipments.history[0]
	assert.Nil(t, h.PreviousStatus)
	assert.Equal(t, models.StatusBooked, h.NewStatus)
	assert.Equal(t, "Lagos", h.Location)
	assert.Equal(t, "Shipment created", h.Notes)

	tasks := env.shipments.tasksFor(s.TrackingNumber)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, models.EmailInvoice, task.EmailType)
		assert.Equal(t, "Invoice for Shipment "+s.TrackingNumber, task.Subject)
		assert.Equal(t, s.InvoicePDFPath, task.AttachmentKey)
		assert.Equal(t, models.TaskPending, task.Status)
		assert.Contains(t, task.HTMLBody, s.TrackingNumber)
	}
	assert.ElementsMatch(t, []string{"ben@example.com", "ada@example.com"},
		[]string{tasks[0].RecipientEmail, tasks[1].RecipientEmail})

	pdf := env.docs.docs[s.InvoicePDFPath]
	require.NotEmpty(t, pdf)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.NotEmpty(t, env.docs.docs[s.QRCodePath])

	require.Len(t, feed.items, 1)
	assert.Equal(t, "START → BOOKED", feed.items[0].Event)
}

func TestCreateShipmentSameAddressSendsOneInvoice(t *testing.T) {
	env := newTestEnv(t)
	req := validRequest()
	req.SenderEmail = " BEN@example.com"

	s, err := env.service.Create(context.Background(), req, nil, nil, "ops")
	require.NoError(t, err)
	assert.Len(t, env.shipments.tasksFor(s.TrackingNumber), 1)
}

func TestCreateShipmentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CreateShipmentRequest)
		field  string
	}{
		{"bad sender email", func(r *models.CreateShipmentRequest) { r.SenderEmail = "nope" }, "sender_email"},
		{"bad phone", func(r *models.CreateShipmentRequest) { r.RecipientPhone = "call me" }, "recipient_phone"},
		{"zero weight", func(r *models.CreateShipmentRequest) { r.WeightKg = 0 }, "weight_kg"},
		{"zero amount", func(r *models.CreateShipmentRequest) { r.ShippingAmount = 0 }, "shipping_amount"},
		{"bad dimensions", func(r *models.CreateShipmentRequest) { r.Dimensions.Height = 0 }, "dimensions"},
		{"eta before sending", func(r *models.CreateShipmentRequest) { r.EstimatedDelivery = "2025-03-01" }, "estimated_delivery_date"},
		{"bad date", func(r *models.CreateShipmentRequest) { r.SendingDate = "14/03/2025" }, "sending_date"},
		{"missing goods", func(r *models.CreateShipmentRequest) { r.GoodsDescription = " " }, "goods_description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := validRequest()
			tt.mutate(req)

			_, err := env.service.Create(context.Background(), req, nil, nil, "ops")
			require.ErrorIs(t, err, models.ErrValidation)
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, env.shipments.rows)
		})
	}
}

func TestCreateShipmentImages(t *testing.T) {
	env := newTestEnv(t)
	front := &models.ImageUpload{Filename: "front.JPG", Data: []byte("front-bytes")}
	rear := &models.ImageUpload{Filename: "rear.png", Data: []byte("rear-bytes")}

	s, err := env.service.Create(context.Background(), validRequest(), front, rear, "ops")
	require.NoError(t, err)
	assert.Equal(t, ImageHash(front.Data), s.FrontImageHash)
	assert.Equal(t, ImageHash(rear.Data), s.RearImageHash)
	assert.Equal(t, []byte("front-bytes"), env.docs.docs[s.FrontImagePath])
	assert.True(t, strings.HasSuffix(s.FrontImagePath, "front.jpg"))
}

func TestCreateShipmentRejectsBadImages(t *testing.T) {
	env := newTestEnv(t)
	same := []byte("identical")

	_, err := env.service.Create(context.Background(), validRequest(),
		&models.ImageUpload{Filename: "a.jpg", Data: same},
		&models.ImageUpload{Filename: "b.jpg", Data: same}, "ops")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.service.Create(context.Background(), validRequest(),
		&models.ImageUpload{Filename: "a.gif", Data: same}, nil, "ops")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, env.docs.docs)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)

	res, err := env.service.UpdateStatus(context.Background(), "eukab234",
		&models.StatusUpdateRequest{Status: "collected", Location: "Ikeja", Notes: "picked up"}, "ops")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, res.OldStatus)
	assert.Equal(t, models.StatusCollected, res.NewStatus)
	assert.Equal(t, 0, res.NotificationsQueued)
	assert.Equal(t, "Ikeja", res.Shipment.CurrentLocation)

	require.Len(t, env.shipments.history, 1)
	assert.Equal(t, "BOOKED → COLLECTED", env.shipments.history[0].Event())
	assert.Equal(t, "Ikeja", env.shipments.history[0].Location)
}

func TestUpdateStatusRejectedWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)

	_, err := env.service.UpdateStatus(context.Background(), "EUKAB234",
		&models.StatusUpdateRequest{Status: "DELIVERED"}, "ops")
	var terr *models.InvalidTransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, []models.ShipmentStatus{models.StatusCollected}, terr.Allowed)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	s, _ := env.shipments.GetByTracking(context.Background(), "EUKAB234")
	assert.Equal(t, models.StatusBooked, s.CurrentStatus)
	assert.Nil(t, s.ActualDeliveryDate)
	assert.Empty(t, env.shipments.history)
	assert.Empty(t, env.shipments.tasks)
}

func TestUpdateStatusUnknownShipment(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.UpdateStatus(context.Background(), "EUKZZZZZ",
		&models.StatusUpdateRequest{Status: "COLLECTED"}, "ops")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeliveredQueuesConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusWithCourier)

	res, err := env.service.UpdateStatus(context.Background(), "EUKAB234",
		&models.StatusUpdateRequest{Status: "DELIVERED"}, "ops")
	require.NoError(t, err)
	assert.Equal(t, 2, res.NotificationsQueued)
	require.NotNil(t, res.Shipment.ActualDeliveryDate)

	for _, task := range env.shipments.tasks {
		assert.Equal(t, models.EmailDeliveryConfirmation, task.EmailType)
		assert.Equal(t, "Delivery Confirmed - Shipment EUKAB234", task.Subject)
	}
}

func TestToggleCustoms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed("EUKAB234", models.StatusEnRoute)

	res, err := env.service.ToggleIntervention(ctx, "EUKAB234", models.InterventionCustoms,
		&models.InterventionRequest{Action: "activate", Location: "Heathrow", Reference: "CB-1"}, "ops")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.NewState)
	assert.False(t, res.Redundant)
	assert.True(t, res.NotificationSent)
	assert.Equal(t, models.StatusCustomsBond, res.Status)

	require.Len(t, env.shipments.tasks, 1)
	task := env.shipments.tasks[0]
	assert.Equal(t, models.EmailCustomsBond, task.EmailType)
	assert.Equal(t, models.RecipientRecipient, task.RecipientType)
	assert.Contains(t, task.HTMLBody, "Heathrow")
	require.Len(t, env.shipments.ledger, 1)
	require.Len(t, env.shipments.history, 1)
	assert.Equal(t, "Heathrow", env.shipments.history[0].Location)

	// a second activate is logged but changes nothing
	res, err = env.service.ToggleIntervention(ctx, "EUKAB234", models.InterventionCustoms,
		&models.InterventionRequest{Action: "activate"}, "ops")
	require.NoError(t, err)
	assert.True(t, res.Redundant)
	assert.False(t, res.NotificationSent)
	assert.Len(t, env.shipments.tasks, 1)
	assert.Len(t, env.shipments.history, 1)
	require.Len(t, env.shipments.ledger, 2)
	assert.True(t, env.shipments.ledger[1].Redundant)

	res, err = env.service.ToggleIntervention(ctx, "EUKAB234", models.InterventionCustoms,
		&models.InterventionRequest{Action: "release"}, "ops")
	require.NoError(t, err)
	assert.False(t, res.NewState)
	assert.Equal(t, models.StatusCustomsCleared, res.Status)
	require.NotNil(t, res.Duration)
	assert.Equal(t, "0 hours", *res.Duration)
	assert.Equal(t, models.EmailCustomsReleased, env.shipments.tasks[1].EmailType)
}

func TestToggleInvalidActionWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusEnRoute)

	_, err := env.service.ToggleIntervention(context.Background(), "EUKAB234", models.InterventionCustoms,
		&models.InterventionRequest{Action: "report"}, "ops")
	assert.ErrorIs(t, err, models.ErrInvalidAction)

	_, err = env.service.ToggleIntervention(context.Background(), "EUKAB234", "weather",
		&models.InterventionRequest{Action: "activate"}, "ops")
	assert.ErrorIs(t, err, models.ErrInvalidAction)
	assert.Empty(t, env.shipments.ledger)
}

func TestToggleDelayWithRevisedETA(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusEnRoute)

	_, err := env.service.ToggleIntervention(context.Background(), "EUKAB234", models.InterventionDelay,
		&models.InterventionRequest{Action: "report", RevisedETA: "next week"}, "ops")
	require.ErrorIs(t, err, models.ErrValidation)

	res, err := env.service.ToggleIntervention(context.Background(), "EUKAB234", models.InterventionDelay,
		&models.InterventionRequest{Action: "report", Reason: "weather", RevisedETA: "2025-03-28"}, "ops")
	require.NoError(t, err)
	assert.True(t, res.NewState)

	s, _ := env.shipments.GetByTracking(context.Background(), "EUKAB234")
	require.NotNil(t, s.RevisedETA)
	assert.Equal(t, "2025-03-28", s.RevisedETA.Format("2006-01-02"))
	require.Len(t, env.shipments.tasks, 1)
	assert.Contains(t, env.shipments.tasks[0].HTMLBody, "2025-03-28")
	assert.Contains(t, env.shipments.tasks[0].HTMLBody, "weather")
}

func TestAvailableStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusEnRoute)

	a, err := env.service.AvailableStatuses(context.Background(), "EUKAB234")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnRoute, a.Current)
	assert.Contains(t, a.Available, models.StatusCustomsBond)
	assert.True(t, a.RequiresCustoms)
}

func TestDeleteShipment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s, err := env.service.Create(ctx, validRequest(), nil, nil, "ops")
	require.NoError(t, err)
	require.NotEmpty(t, env.docs.docs)

	require.NoError(t, env.service.Delete(ctx, s.TrackingNumber, "ops"))
	assert.Empty(t, env.docs.docs)
	_, err = env.shipments.GetByTracking(ctx, s.TrackingNumber)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, env.service.Delete(ctx, s.TrackingNumber, "ops"), models.ErrNotFound)
}

func TestRecordPayment(t *testing.T) {
	env := newTestEnv(t)
	env.seed("EUKAB234", models.StatusBooked)

	s, err := env.service.RecordPayment(context.Background(), "EUKAB234",
		&models.ManualPaymentRequest{Status: "paid", Method: "bank_transfer", Reference: "TRX-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, s.PaymentStatus)
	assert.Equal(t, "bank_transfer", s.PaymentMethod)
	require.NotNil(t, s.PaymentReceivedAt)
	assert.Empty(t, env.shipments.history, "payments do not touch the timeline")

	_, err = env.service.RecordPayment(context.Background(), "EUKAB234", &models.ManualPaymentRequest{Status: "maybe"})
	assert.ErrorIs(t, err, models.ErrValidation)
}
