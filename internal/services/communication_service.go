package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/internal/workflow"
)

// Resend targets
const (
	ResendInvoice          = "invoice"
	ResendLastNotification = "last_notification"
)

// CommunicationService queues ad-hoc and repeated emails for a shipment
type CommunicationService struct {
	shipments ShipmentStore
	outbox    OutboxStore
	emails    EmailLogStore
	planner   *NotificationPlanner
	logger    *zap.Logger
	now       func() time.Time
}

func NewCommunicationService(shipments ShipmentStore, outbox OutboxStore, emails EmailLogStore, planner *NotificationPlanner, logger *zap.Logger) *CommunicationService {
	return &CommunicationService{
		shipments: shipments,
		outbox:    outbox,
		emails:    emails,
		planner:   planner,
		logger:    logger.Named("communication"),
		now:       timeutil.Now,
	}
}

// recipients resolves "sender", "recipient" or "both"
func recipients(s *models.Shipment, who string) ([]models.RecipientType, error) {
	switch strings.ToLower(strings.TrimSpace(who)) {
	case "", "recipient":
		return []models.RecipientType{models.RecipientRecipient}, nil
	case "sender":
		return []models.RecipientType{models.RecipientSender}, nil
	case "both":
		return workflow.Parties(s, true), nil
	}
	v := models.NewValidationError()
	v.Add("recipient", "must be sender, recipient or both")
	return nil, v
}

// SendMessage queues a custom message and returns the number of emails queued
func (c *CommunicationService) SendMessage(ctx context.Context, tracking string, req *models.DirectMessageRequest, actor string) (int, error) {
	v := models.NewValidationError()
	if strings.TrimSpace(req.Subject) == "" {
		v.Add("subject", "is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		v.Add("message", "is required")
	}
	if err := v.OrNil(); err != nil {
		return 0, err
	}

	s, err := c.shipments.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return 0, err
	}
	to, err := recipients(s, req.Recipient)
	if err != nil {
		return 0, err
	}

	now := c.now()
	for _, r := range to {
		task, err := c.planner.Message(s, models.EmailCustomMessage, r, strings.TrimSpace(req.Subject), req.Message, req.IncludeTrackingLink, now)
		if err != nil {
			return 0, err
		}
		if err := c.outbox.Enqueue(ctx, task); err != nil {
			return 0, err
		}
	}
	c.logger.Info("direct message queued",
		zap.String("tracking_number", s.TrackingNumber),
		zap.Int("recipients", len(to)),
		zap.String("actor", actor))
	return len(to), nil
}

// Resend re-queues the invoice or the last shipment notification
func (c *CommunicationService) Resend(ctx context.Context, tracking string, req *models.EmailResendRequest, actor string) (int, error) {
	s, err := c.shipments.GetByTracking(ctx, NormalizeTracking(tracking))
	if err != nil {
		return 0, err
	}
	to, err := recipients(s, req.Recipient)
	if err != nil {
		return 0, err
	}

	var emailType models.EmailType
	switch req.EmailType {
	case ResendInvoice, "":
		emailType = models.EmailInvoice
	case ResendLastNotification:
		last, err := c.emails.LastNotification(ctx, s.ID)
		if errors.Is(err, models.ErrNotFound) {
			emailType = models.EmailInvoice
		} else if err != nil {
			return 0, err
		} else {
			emailType = last.EmailType
		}
	default:
		v := models.NewValidationError()
		v.Add("email_type", "must be invoice or last_notification")
		return 0, v
	}

	now := c.now()
	tasks, err := c.planner.Plan(s, []workflow.Notice{resendNotice(s, emailType, to, now)}, now)
	if err != nil {
		return 0, err
	}
	for _, t := range tasks {
		if err := c.outbox.Enqueue(ctx, t); err != nil {
			return 0, err
		}
	}
	c.logger.Info("email resend queued",
		zap.String("tracking_number", s.TrackingNumber),
		zap.String("email_type", string(emailType)),
		zap.String("actor", actor))
	return len(tasks), nil
}

// resendNotice rebuilds the template values of a notice from the record
func resendNotice(s *models.Shipment, t models.EmailType, to []models.RecipientType, now time.Time) workflow.Notice {
	n := workflow.Notice{EmailType: t, Recipients: to}
	switch t {
	case models.EmailCustomsReleased:
		n.Duration = workflow.Processed
		if d := workflow.FormatDuration(s.CustomsBondActivatedAt, s.CustomsBondReleasedAt, now); d != nil {
			n.Duration = *d
		}
	case models.EmailDelayNotification:
		n.Reason = s.DelayReason
		n.RevisedETA = workflow.ToBeDetermined
		if s.RevisedETA != nil {
			n.RevisedETA = s.RevisedETA.Format(workflow.DateLayout)
		}
	case models.EmailReturnInitiated:
		n.Reason = s.ReturnReason
	}
	return n
}
