package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eukexpress-backend/internal/cache"
	"eukexpress-backend/internal/metrics"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/internal/workflow"
)

// ShipmentService drives every shipment mutation through the workflow
// state machine and persists the outcome atomically.
type ShipmentService struct {
	store    ShipmentStore
	codes    *TrackingCodeGenerator
	planner  *NotificationPlanner
	docs     *DocumentService
	activity ActivityPublisher
	logger   *zap.Logger
	now      func() time.Time
}

func NewShipmentService(store ShipmentStore, planner *NotificationPlanner, docs *DocumentService, logger *zap.Logger) *ShipmentService {
	return &ShipmentService{
		store:    store,
		codes:    NewTrackingCodeGenerator(store.TrackingExists),
		planner:  planner,
		docs:     docs,
		activity: noopPublisher{},
		logger:   logger.Named("shipments"),
		now:      timeutil.Now,
	}
}

// SetActivityPublisher wires the live activity feed
func (s *ShipmentService) SetActivityPublisher(p ActivityPublisher) {
	if p != nil {
		s.activity = p
	}
}

// Create books a new shipment in BOOKED and queues its invoice emails
func (s *ShipmentService) Create(ctx context.Context, req *models.CreateShipmentRequest, front, rear *models.ImageUpload, actor string) (*models.Shipment, error) {
	dates, err := validateCreate(req)
	if err != nil {
		return nil, err
	}
	if err := validateImages(front, rear); err != nil {
		return nil, err
	}

	tracking, err := s.codes.Generate(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	sh := newShipment(req, tracking, dates, now)
	out := workflow.Book(sh, actor, now)

	if front != nil {
		if sh.FrontImagePath, err = s.docs.StoreImage(ctx, tracking, "front", front); err != nil {
			return nil, fmt.Errorf("failed to store front image: %w", err)
		}
		sh.FrontImageHash = ImageHash(front.Data)
	}
	if rear != nil {
		if sh.RearImagePath, err = s.docs.StoreImage(ctx, tracking, "rear", rear); err != nil {
			s.cleanup(ctx, sh)
			return nil, fmt.Errorf("failed to store rear image: %w", err)
		}
		sh.RearImageHash = ImageHash(rear.Data)
	}
	if err := s.docs.Generate(ctx, sh); err != nil {
		s.cleanup(ctx, sh)
		return nil, fmt.Errorf("failed to generate documents: %w", err)
	}

	tasks, err := s.planner.Plan(sh, out.Notices, now)
	if err != nil {
		s.cleanup(ctx, sh)
		return nil, err
	}
	if err := s.store.Insert(ctx, sh, &models.ChangeSet{History: out.History, Tasks: tasks}); err != nil {
		s.cleanup(ctx, sh)
		return nil, err
	}

	s.afterMutation(ctx, sh, out, "status")
	s.logger.Info("shipment created",
		zap.String("tracking_number", sh.TrackingNumber),
		zap.String("actor", actor),
		zap.Int("notifications", len(tasks)))
	return sh, nil
}

func newShipment(req *models.CreateShipmentRequest, tracking string, dates *shipmentDates, now time.Time) *models.Shipment {
	sh := &models.Shipment{
		ID:                    uuid.New(),
		TrackingNumber:        tracking,
		InvoiceNumber:         InvoiceNumber(tracking, now.In(timeutil.WAT)),
		SenderName:            strings.TrimSpace(req.SenderName),
		SenderEmail:           strings.TrimSpace(req.SenderEmail),
		SenderPhone:           strings.TrimSpace(req.SenderPhone),
		SenderAddress:         strings.TrimSpace(req.SenderAddress),
		RecipientName:         strings.TrimSpace(req.RecipientName),
		RecipientEmail:        strings.TrimSpace(req.RecipientEmail),
		RecipientPhone:        strings.TrimSpace(req.RecipientPhone),
		RecipientAddress:      strings.TrimSpace(req.RecipientAddress),
		OriginLocation:        strings.TrimSpace(req.OriginLocation),
		OriginCode:            strings.ToUpper(strings.TrimSpace(req.OriginCode)),
		DestinationLocation:   strings.TrimSpace(req.DestinationLocation),
		DestinationCode:       strings.ToUpper(strings.TrimSpace(req.DestinationCode)),
		IsInternational:       req.IsInternational,
		GoodsDescription:      strings.TrimSpace(req.GoodsDescription),
		WeightKg:              req.WeightKg,
		DeclaredValue:         req.DeclaredValue,
		DeclaredCurrency:      defaultString(strings.ToUpper(req.DeclaredCurrency), "USD"),
		ShippingAmount:        req.ShippingAmount,
		PaymentCurrency:       defaultString(strings.ToUpper(req.PaymentCurrency), "NGN"),
		PaymentMethod:         req.PaymentMethod,
		PaymentStatus:         defaultString(req.PaymentStatus, models.PaymentPending),
		SendingDate:           dates.sending,
		EstimatedDeliveryDate: dates.eta,
	}
	if req.Dimensions != nil {
		sh.Dimensions = *req.Dimensions
	}
	if sh.PaymentStatus == models.PaymentPaid {
		sh.PaymentReceivedAt = &now
	}
	return sh
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// UpdateStatus moves a shipment to a new status along the transition table
func (s *ShipmentService) UpdateStatus(ctx context.Context, tracking string, req *models.StatusUpdateRequest, actor string) (*models.StatusChangeResult, error) {
	target := models.ShipmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	cmd := workflow.ChangeStatus(target, strings.TrimSpace(req.Location), strings.TrimSpace(req.Notes), actor)

	sh, out, queued, err := s.apply(ctx, tracking, cmd)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, sh, out, "status")
	s.logger.Info("status updated",
		zap.String("tracking_number", sh.TrackingNumber),
		zap.String("from", string(out.Previous)),
		zap.String("to", string(out.Status)),
		zap.String("actor", actor))

	return &models.StatusChangeResult{
		Shipment:            sh,
		OldStatus:           out.Previous,
		NewStatus:           out.Status,
		Timestamp:           sh.StatusUpdatedAt,
		NotificationsQueued: queued,
	}, nil
}

// ToggleIntervention applies an intervention action such as customs/activate
func (s *ShipmentService) ToggleIntervention(ctx context.Context, tracking string, t models.InterventionType, req *models.InterventionRequest, actor string) (*models.InterventionResult, error) {
	action := models.InterventionAction(strings.ToLower(strings.TrimSpace(req.Action)))
	t = models.InterventionType(strings.ToLower(string(t)))
	if !workflow.ValidAction(t, action) {
		return nil, fmt.Errorf("%w: %q for %q", models.ErrInvalidAction, action, t)
	}

	meta := models.InterventionMeta{
		Location:        strings.TrimSpace(req.Location),
		Reference:       strings.TrimSpace(req.Reference),
		Notes:           strings.TrimSpace(req.Notes),
		Description:     strings.TrimSpace(req.Description),
		ResolutionNotes: strings.TrimSpace(req.ResolutionNotes),
		Reason:          strings.TrimSpace(req.Reason),
	}
	if req.RevisedETA != "" {
		eta, err := timeutil.ParseDate(req.RevisedETA)
		if err != nil {
			v := models.NewValidationError()
			v.Add("revised_eta", "must be YYYY-MM-DD")
			return nil, v
		}
		meta.RevisedETA = &eta
	}

	sh, out, queued, err := s.apply(ctx, tracking, workflow.ToggleIntervention(t, action, meta, actor))
	if err != nil {
		return nil, err
	}
	if !out.Redundant {
		s.afterMutation(ctx, sh, out, "intervention")
	}
	s.logger.Info("intervention toggled",
		zap.String("tracking_number", sh.TrackingNumber),
		zap.String("type", string(t)),
		zap.String("action", string(action)),
		zap.Bool("redundant", out.Redundant),
		zap.String("actor", actor))

	return &models.InterventionResult{
		Success:          true,
		InterventionType: t,
		Action:           action,
		NewState:         out.NewState,
		Redundant:        out.Redundant,
		Timestamp:        sh.UpdatedAt,
		Status:           sh.CurrentStatus,
		NotificationSent: queued > 0,
		Duration:         out.Duration,
	}, nil
}

// apply runs cmd inside the store's atomic mutate and plans its emails
func (s *ShipmentService) apply(ctx context.Context, tracking string, cmd workflow.Command) (*models.Shipment, *workflow.Outcome, int, error) {
	var out *workflow.Outcome
	var queued int
	now := s.now()

	sh, err := s.store.Mutate(ctx, NormalizeTracking(tracking), func(sh *models.Shipment) (*models.ChangeSet, error) {
		o, err := workflow.Apply(sh, cmd, now)
		if err != nil {
			return nil, err
		}
		tasks, err := s.planner.Plan(sh, o.Notices, now)
		if err != nil {
			return nil, err
		}
		out, queued = o, len(tasks)
		return &models.ChangeSet{History: o.History, Intervention: o.Intervention, Tasks: tasks}, nil
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return sh, out, queued, nil
}

func (s *ShipmentService) afterMutation(ctx context.Context, sh *models.Shipment, out *workflow.Outcome, kind string) {
	cache.InvalidateShipmentCaches(ctx, sh.TrackingNumber)
	if !out.StatusChanged && kind == "status" {
		return
	}
	metrics.ShipmentTransitions.WithLabelValues(kind, string(sh.CurrentStatus)).Inc()
	if out.History != nil {
		s.activity.Publish(models.ActivityItem{
			Tracking:     sh.TrackingNumber,
			Event:        out.History.Event(),
			EventDisplay: out.History.EventDisplay(),
			Timestamp:    out.History.CreatedAt,
			Location:     out.History.Location,
		})
	}
}

// AvailableStatuses lists the statuses the shipment may move to next
func (s *ShipmentService) AvailableStatuses(ctx context.Context, tracking string) (*models.AvailableStatuses, error) {
	sh, err := s.store.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return nil, err
	}
	return workflow.Available(sh), nil
}

// Delete removes the shipment, its timeline and ledger, and its documents
func (s *ShipmentService) Delete(ctx context.Context, tracking string, actor string) error {
	tracking = NormalizeTracking(tracking)
	sh, err := s.store.GetByTracking(ctx, tracking)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tracking); err != nil {
		return err
	}
	s.cleanup(ctx, sh)
	cache.InvalidateShipmentCaches(ctx, tracking)
	s.logger.Info("shipment deleted", zap.String("tracking_number", tracking), zap.String("actor", actor))
	return nil
}

// RecordPayment sets the payment fields, used by manual entry and webhooks
func (s *ShipmentService) RecordPayment(ctx context.Context, tracking string, req *models.ManualPaymentRequest) (*models.Shipment, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed:
	default:
		v := models.NewValidationError()
		v.Add("status", "must be PENDING, PAID or FAILED")
		return nil, v
	}
	now := s.now()

	sh, err := s.store.Mutate(ctx, NormalizeTracking(tracking), func(sh *models.Shipment) (*models.ChangeSet, error) {
		sh.PaymentStatus = status
		if req.Method != "" {
			sh.PaymentMethod = req.Method
		}
		if req.Reference != "" {
			sh.PaymentReference = req.Reference
		}
		if status == models.PaymentPaid {
			if sh.PaymentReceivedAt == nil {
				sh.PaymentReceivedAt = &now
			}
		} else {
			sh.PaymentReceivedAt = nil
		}
		sh.UpdatedAt = now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateShipmentCaches(ctx, sh.TrackingNumber)
	s.logger.Info("payment recorded",
		zap.String("tracking_number", sh.TrackingNumber),
		zap.String("status", status),
		zap.String("method", sh.PaymentMethod))
	return sh, nil
}

func (s *ShipmentService) cleanup(ctx context.Context, sh *models.Shipment) {
	if err := s.docs.Remove(ctx, sh); err != nil {
		s.logger.Warn("failed to remove shipment documents",
			zap.String("tracking_number", sh.TrackingNumber), zap.Error(err))
	}
}
