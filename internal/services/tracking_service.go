package services

import (
	"context"
	"encoding/json"
	"time"

	"eukexpress-backend/internal/cache"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
)

const publicTrackingTTL = 2 * time.Minute

// TrackingService answers anonymous tracking lookups
type TrackingService struct {
	shipments ShipmentStore
	history   HistoryStore
	docs      *DocumentService
}

func NewTrackingService(shipments ShipmentStore, history HistoryStore, docs *DocumentService) *TrackingService {
	return &TrackingService{shipments: shipments, history: history, docs: docs}
}

// lookup treats a malformed code exactly like an unknown one
func (t *TrackingService) lookup(ctx context.Context, tracking string) (*models.Shipment, error) {
	tracking = NormalizeTracking(tracking)
	if !ValidTrackingFormat(tracking) {
		return nil, models.ErrNotFound
	}
	return t.shipments.GetByTracking(ctx, tracking)
}

// Track returns the public projection of a shipment
func (t *TrackingService) Track(ctx context.Context, tracking string) (*models.PublicTracking, error) {
	key := cache.PublicTrackingKey(NormalizeTracking(tracking))
	if data, ok := cache.GetCached(ctx, key); ok {
		var p models.PublicTracking
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
	}

	s, err := t.lookup(ctx, tracking)
	if err != nil {
		return nil, err
	}
	history, err := t.history.ListByShipment(ctx, s.ID)
	if err != nil {
		return nil, err
	}

	sent, eta := s.SendingDate, s.EstimatedDeliveryDate
	p := &models.PublicTracking{
		Tracking: s.TrackingNumber,
		Status: models.PublicStatus{
			Current: s.CurrentStatus,
			Display: s.CurrentStatus.Label(),
			Color:   s.CurrentStatus.Color(),
		},
		Route: models.PublicRoute{Origin: s.OriginLocation, Destination: s.DestinationLocation},
		Dates: models.PublicDates{
			Sending:   timeutil.FormatDate(&sent),
			Estimated: timeutil.FormatDate(&eta),
			Actual:    timeutil.FormatDate(s.ActualDeliveryDate),
		},
		Interventions: models.PublicInterventions{
			CustomsActive:  s.CustomsBondActive,
			SecurityActive: s.SecurityHoldActive,
			DamageReported: s.DamageReported,
			DelayActive:    s.DelayActive,
			ReturnActive:   s.ReturnActive,
		},
		Timeline: make([]models.PublicTimeline, 0, len(history)),
	}
	if s.QRCodePath != "" {
		p.QRCode = t.docs.QRURL(s.TrackingNumber)
	}
	for _, h := range history {
		p.Timeline = append(p.Timeline, models.PublicTimeline{
			Timestamp: h.CreatedAt,
			Event:     h.Event(),
			Display:   h.EventDisplay(),
			Location:  h.Location,
		})
	}

	if data, err := json.Marshal(p); err == nil {
		cache.SetCached(ctx, key, data, publicTrackingTTL)
	}
	return p, nil
}

// QRCode returns the stored QR PNG, regenerating it if it was never stored
func (t *TrackingService) QRCode(ctx context.Context, tracking string) ([]byte, error) {
	s, err := t.lookup(ctx, tracking)
	if err != nil {
		return nil, err
	}
	if data, _, err := t.docs.Fetch(ctx, s.QRCodePath); err == nil {
		return data, nil
	}
	return t.docs.QRCode(s.TrackingNumber)
}

// Invoice returns the invoice PDF and its file name
func (t *TrackingService) Invoice(ctx context.Context, tracking string) ([]byte, string, error) {
	s, err := t.lookup(ctx, tracking)
	if err != nil {
		return nil, "", err
	}
	name := s.InvoiceNumber + ".pdf"
	if data, _, err := t.docs.Fetch(ctx, s.InvoicePDFPath); err == nil {
		return data, name, nil
	}
	data, err := t.docs.InvoicePDF(s)
	return data, name, err
}

// Image returns a stored shipment photo for admins, side is front or rear
func (t *TrackingService) Image(ctx context.Context, tracking, side string) ([]byte, string, error) {
	s, err := t.shipments.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return nil, "", err
	}
	switch side {
	case "front":
		return t.docs.Fetch(ctx, s.FrontImagePath)
	case "rear":
		return t.docs.Fetch(ctx, s.RearImagePath)
	}
	return nil, "", models.ErrNotFound
}
