package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/cache"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/internal/workflow"
	"eukexpress-backend/pkg/utils"
)

const (
	DefaultPageSize    = 50
	MaxPageSize        = 100
	recentActivitySize = 10
	filterLocations    = 20
	// StaleAfter is how long an active shipment may go without an update
	StaleAfter   = 3 * 24 * time.Hour
	dashboardTTL = 30 * time.Second
	filtersTTL   = 5 * time.Minute
)

// QueryService builds the read projections of the admin UI
type QueryService struct {
	shipments     ShipmentStore
	history       HistoryStore
	interventions InterventionLogStore
	emails        EmailLogStore
	dashboard     DashboardStore
	docs          *DocumentService
	logger        *zap.Logger
	now           func() time.Time
}

func NewQueryService(shipments ShipmentStore, history HistoryStore, interventions InterventionLogStore,
	emails EmailLogStore, dashboard DashboardStore, docs *DocumentService, logger *zap.Logger) *QueryService {
	return &QueryService{
		shipments:     shipments,
		history:       history,
		interventions: interventions,
		emails:        emails,
		dashboard:     dashboard,
		docs:          docs,
		logger:        logger.Named("queries"),
		now:           timeutil.Now,
	}
}

// Dashboard returns the landing page counters and the recent activity feed
func (q *QueryService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	if data, ok := cache.GetCached(ctx, cache.DashboardKey); ok {
		var d models.Dashboard
		if err := json.Unmarshal(data, &d); err == nil {
			return &d, nil
		}
	}

	now := q.now()
	stats, err := q.dashboard.Stats(ctx, timeutil.StartOfDay(now), timeutil.StartOfMonth(now), now.Add(-StaleAfter))
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	recent, err := q.history.Recent(ctx, recentActivitySize)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}

	d := &models.Dashboard{Stats: *stats, RecentActivity: make([]models.ActivityItem, 0, len(recent))}
	for _, r := range recent {
		d.RecentActivity = append(d.RecentActivity, models.ActivityItem{
			Tracking:     r.TrackingNumber,
			Event:        r.Event(),
			EventDisplay: r.EventDisplay(),
			Timestamp:    r.CreatedAt,
			Location:     r.Location,
		})
	}

	if data, err := json.Marshal(d); err == nil {
		cache.SetCached(ctx, cache.DashboardKey, data, dashboardTTL)
	}
	return d, nil
}

// QuickActions are the shortcuts shown on the dashboard
func (q *QueryService) QuickActions() []models.QuickAction {
	return []models.QuickAction{
		{Name: "New Shipment", URL: "/shipments/new", Icon: "plus", Description: "Book a new shipment"},
		{Name: "Update Status", URL: "/shipments", Icon: "refresh", Description: "Move a shipment along its route"},
		{Name: "Interventions", URL: "/shipments?filter=interventions", Icon: "alert", Description: "Customs, holds, damage and delays"},
		{Name: "Bulk Email", URL: "/bulk/email", Icon: "mail", Description: "Message a group of customers"},
	}
}

// NormalizeFilter applies paging defaults and bounds
func NormalizeFilter(f models.ListFilter) models.ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// List returns one page of the admin shipment list
func (q *QueryService) List(ctx context.Context, f models.ListFilter) (*models.ShipmentList, error) {
	f = NormalizeFilter(f)
	rows, total, err := q.shipments.List(ctx, f)
	if err != nil {
		return nil, err
	}

	now := q.now()
	out := &models.ShipmentList{
		Total:     total,
		Page:      f.Page,
		Limit:     f.Limit,
		Pages:     (total + f.Limit - 1) / f.Limit,
		Shipments: make([]models.ShipmentListItem, 0, len(rows)),
	}
	for _, s := range rows {
		out.Shipments = append(out.Shipments, models.ShipmentListItem{
			Tracking:          s.TrackingNumber,
			Status:            s.CurrentStatus,
			StatusDisplay:     s.CurrentStatus.Label(),
			StatusColor:       s.CurrentStatus.Color(),
			Origin:            s.OriginLocation,
			Destination:       s.DestinationLocation,
			SenderName:        s.SenderName,
			RecipientName:     s.RecipientName,
			LastUpdate:        s.UpdatedAt,
			LastUpdateDisplay: timeutil.Ago(s.UpdatedAt, now),
			HasInterventions:  s.HasInterventions(),
			InterventionTypes: s.ActiveInterventions(),
		})
	}
	return out, nil
}

// FilterOptions lists the values the list filters can take
func (q *QueryService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	if data, ok := cache.GetCached(ctx, cache.FilterOptionsKey); ok {
		var f models.FilterOptions
		if err := json.Unmarshal(data, &f); err == nil {
			return &f, nil
		}
	}

	statuses, err := q.shipments.DistinctStatuses(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := q.shipments.DistinctLocations(ctx, filterLocations)
	if err != nil {
		return nil, err
	}

	out := &models.FilterOptions{
		Statuses: make([]models.FilterOption, 0, len(statuses)),
		DateRanges: []models.FilterOption{
			{Value: "today", Label: "Today"},
			{Value: "week", Label: "Last 7 days"},
			{Value: "month", Label: "Last 30 days"},
			{Value: "custom", Label: "Custom range"},
		},
		Locations: locations,
	}
	for _, st := range statuses {
		out.Statuses = append(out.Statuses, models.FilterOption{Value: string(st), Label: st.Label()})
	}

	if data, err := json.Marshal(out); err == nil {
		cache.SetCached(ctx, cache.FilterOptionsKey, data, filtersTTL)
	}
	return out, nil
}

var exportHeader = []string{
	"Tracking Number", "Invoice Number", "Status", "Sender", "Sender Email", "Recipient", "Recipient Email",
	"Origin", "Destination", "International", "Weight (kg)", "Declared Value", "Currency",
	"Shipping Amount", "Payment Status", "Sending Date", "Estimated Delivery", "Actual Delivery", "Created At",
}

// Export writes the filtered shipments as CSV to w
func (q *QueryService) Export(ctx context.Context, f models.ListFilter, w io.Writer) (int, error) {
	rows, err := q.shipments.Export(ctx, f)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}
	for _, s := range rows {
		sent, eta := s.SendingDate, s.EstimatedDeliveryDate
		record := []string{
			s.TrackingNumber, s.InvoiceNumber, s.CurrentStatus.Label(),
			s.SenderName, s.SenderEmail, s.RecipientName, s.RecipientEmail,
			s.OriginLocation, s.DestinationLocation, strconv.FormatBool(s.IsInternational),
			strconv.FormatFloat(s.WeightKg, 'f', 2, 64),
			strconv.FormatFloat(s.DeclaredValue, 'f', 2, 64), s.DeclaredCurrency,
			strconv.FormatFloat(s.ShippingAmount, 'f', 2, 64), s.PaymentStatus,
			timeutil.FormatDate(&sent), timeutil.FormatDate(&eta), timeutil.FormatDate(s.ActualDeliveryDate),
			s.CreatedAt.In(timeutil.WAT).Format(timeutil.DateTimeLayout),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(rows), cw.Error()
}

// Detail returns the full admin view of one shipment
func (q *QueryService) Detail(ctx context.Context, tracking string) (*models.ShipmentDetail, error) {
	s, err := q.shipments.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return nil, err
	}
	history, err := q.history.ListByShipment(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	ledger, err := q.interventions.ListByShipment(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	emails, err := q.emails.ListByShipment(ctx, s.ID)
	if err != nil {
		return nil, err
	}

	now := q.now()
	eta := s.EstimatedDeliveryDate
	d := &models.ShipmentDetail{
		Tracking:      s.TrackingNumber,
		InvoiceNumber: s.InvoiceNumber,
		Route: models.DetailRoute{
			Origin:          s.OriginLocation,
			OriginCode:      s.OriginCode,
			Destination:     s.DestinationLocation,
			DestinationCode: s.DestinationCode,
			IsInternational: s.IsInternational,
		},
		Commodity: models.DetailCommodity{
			Description:      s.GoodsDescription,
			WeightKg:         s.WeightKg,
			Dimensions:       s.Dimensions,
			DeclaredValue:    s.DeclaredValue,
			DeclaredCurrency: s.DeclaredCurrency,
		},
		Sender:    models.Party{Name: s.SenderName, Email: s.SenderEmail, Phone: s.SenderPhone, Address: s.SenderAddress},
		Recipient: models.Party{Name: s.RecipientName, Email: s.RecipientEmail, Phone: s.RecipientPhone, Address: s.RecipientAddress},
		Payment: models.DetailPayment{
			Amount:     s.ShippingAmount,
			Display:    utils.FormatCurrency(s.ShippingAmount, s.PaymentCurrency),
			Currency:   s.PaymentCurrency,
			Method:     s.PaymentMethod,
			Status:     s.PaymentStatus,
			Reference:  s.PaymentReference,
			ReceivedAt: s.PaymentReceivedAt,
		},
		Status: models.DetailStatus{
			Current:           s.CurrentStatus,
			Display:           s.CurrentStatus.Label(),
			Color:             s.CurrentStatus.Color(),
			StartedAt:         s.StatusUpdatedAt,
			EstimatedDelivery: timeutil.FormatDate(&eta),
			ActualDelivery:    timeutil.FormatDate(s.ActualDeliveryDate),
			CurrentLocation:   s.CurrentLocation,
		},
		Interventions:   interventionBlocks(s, now),
		Timeline:        make([]models.TimelineItem, 0, len(history)),
		InterventionLog: ledger,
		EmailHistory:    emails,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.FrontImagePath != "" {
		d.Images.Front = q.docs.ImageURL(s.TrackingNumber, "front")
	}
	if s.RearImagePath != "" {
		d.Images.Rear = q.docs.ImageURL(s.TrackingNumber, "rear")
	}
	if s.QRCodePath != "" {
		d.QRCode = q.docs.QRURL(s.TrackingNumber)
	}
	if s.InvoicePDFPath != "" {
		d.InvoicePDF = q.docs.InvoiceURL(s.TrackingNumber)
	}
	for _, h := range history {
		d.Timeline = append(d.Timeline, models.TimelineItem{
			Timestamp: h.CreatedAt,
			Event:     h.Event(),
			Display:   h.EventDisplay(),
			Location:  h.Location,
			Notes:     h.Notes,
			ChangedBy: h.ChangedBy,
		})
	}
	return d, nil
}

// activeEnd is nil while an intervention is active so the duration runs to now
func activeEnd(active bool, end *time.Time) *time.Time {
	if active {
		return nil
	}
	return end
}

func interventionBlocks(s *models.Shipment, now time.Time) models.DetailInterventions {
	return models.DetailInterventions{
		Customs: models.HoldBlock{
			Active:      s.CustomsBondActive,
			ActivatedAt: s.CustomsBondActivatedAt,
			EndedAt:     s.CustomsBondReleasedAt,
			Location:    s.CustomsBondLocation,
			Reference:   s.CustomsBondReference,
			Notes:       s.CustomsBondNotes,
			Duration:    workflow.FormatDuration(s.CustomsBondActivatedAt, activeEnd(s.CustomsBondActive, s.CustomsBondReleasedAt), now),
		},
		Security: models.HoldBlock{
			Active:      s.SecurityHoldActive,
			ActivatedAt: s.SecurityHoldActivatedAt,
			EndedAt:     s.SecurityHoldClearedAt,
			Location:    s.SecurityHoldLocation,
			Reference:   s.SecurityHoldReference,
			Notes:       s.SecurityHoldNotes,
			Duration:    workflow.FormatDuration(s.SecurityHoldActivatedAt, activeEnd(s.SecurityHoldActive, s.SecurityHoldClearedAt), now),
		},
		Damage: models.DamageBlock{
			Reported:        s.DamageReported,
			ReportedAt:      s.DamageReportedAt,
			ResolvedAt:      s.DamageResolvedAt,
			Description:     s.DamageDescription,
			ResolutionNotes: s.DamageResolutionNotes,
			Duration:        workflow.FormatDuration(s.DamageReportedAt, activeEnd(s.DamageReported, s.DamageResolvedAt), now),
		},
		Return: models.ReturnBlock{
			Active:      s.ReturnActive,
			InitiatedAt: s.ReturnInitiatedAt,
			CompletedAt: s.ReturnCompletedAt,
			Reason:      s.ReturnReason,
			Duration:    workflow.FormatDuration(s.ReturnInitiatedAt, activeEnd(s.ReturnActive, s.ReturnCompletedAt), now),
		},
		Delay: models.DelayBlock{
			Active:      s.DelayActive,
			ReportedAt:  s.DelayReportedAt,
			ResolvedAt:  s.DelayResolvedAt,
			Reason:      s.DelayReason,
			Notes:       s.DelayNotes,
			OriginalETA: timeutil.FormatDate(s.OriginalETA),
			RevisedETA:  timeutil.FormatDate(s.RevisedETA),
			Duration:    workflow.FormatDuration(s.DelayReportedAt, activeEnd(s.DelayActive, s.DelayResolvedAt), now),
		},
	}
}

// EmailHistory lists every delivery attempt for a shipment, newest first
func (q *QueryService) EmailHistory(ctx context.Context, tracking string) ([]models.EmailHistoryItem, error) {
	s, err := q.shipments.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return nil, err
	}
	logs, err := q.emails.ListByShipment(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EmailHistoryItem, 0, len(logs))
	for _, e := range logs {
		out = append(out, models.EmailHistoryItem{
			Timestamp:      e.CreatedAt,
			Type:           e.EmailType,
			Recipient:      e.RecipientType,
			RecipientEmail: utils.MaskEmail(e.RecipientEmail),
			Subject:        e.Subject,
			Status:         e.Status,
			MessageID:      e.MessageID,
			Attempt:        e.Attempt,
		})
	}
	return out, nil
}
