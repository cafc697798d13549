package services

import (
	"fmt"
	"time"

	"eukexpress-backend/internal/config"
	"eukexpress-backend/internal/email"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/internal/workflow"
	"eukexpress-backend/pkg/utils"
)

// NotificationPlanner renders decided notices into outbox tasks. Bodies are
// rendered at enqueue time so a task is self-contained once committed.
type NotificationPlanner struct {
	cfg      *config.Config
	renderer *email.Renderer
}

func NewNotificationPlanner(cfg *config.Config, renderer *email.Renderer) *NotificationPlanner {
	return &NotificationPlanner{cfg: cfg, renderer: renderer}
}

// Plan returns one task per (notice, recipient) pair
func (p *NotificationPlanner) Plan(s *models.Shipment, notices []workflow.Notice, now time.Time) ([]*models.NotificationTask, error) {
	var tasks []*models.NotificationTask
	for _, n := range notices {
		data := p.shipmentData(s)
		data.Duration = n.Duration
		data.Reason = n.Reason
		data.RevisedETA = n.RevisedETA
		if n.EmailType == models.EmailCustomsBond && s.CustomsBondLocation != "" {
			data.Location = s.CustomsBondLocation
		}
		for _, r := range n.Recipients {
			t, err := p.task(s, n.EmailType, r, workflow.Subject(n.EmailType, s.TrackingNumber), data, now)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// Message builds a custom_message or bulk task with a free-form subject
func (p *NotificationPlanner) Message(s *models.Shipment, t models.EmailType, r models.RecipientType, subject, message string, withLink bool, now time.Time) (*models.NotificationTask, error) {
	data := p.shipmentData(s)
	data.Subject = subject
	data.Message = message
	data.IncludeLink = withLink
	if !withLink {
		data.TrackingURL = ""
	}
	return p.task(s, t, r, subject, data, now)
}

func (p *NotificationPlanner) task(s *models.Shipment, t models.EmailType, r models.RecipientType, subject string, data *email.TemplateData, now time.Time) (*models.NotificationTask, error) {
	d := *data
	if r == models.RecipientSender {
		d.RecipientName = s.SenderName
	}
	body, err := p.renderer.Render(t, &d)
	if err != nil {
		return nil, err
	}

	id := s.ID
	task := &models.NotificationTask{
		ShipmentID:     &id,
		TrackingNumber: s.TrackingNumber,
		RecipientType:  r,
		RecipientEmail: workflow.AddressOf(s, r),
		EmailType:      t,
		Subject:        subject,
		HTMLBody:       body,
		Status:         models.TaskPending,
		MaxAttempts:    p.cfg.Outbox.MaxAttempts,
		NextAttemptAt:  now,
		CreatedAt:      now,
	}
	if t == models.EmailInvoice && s.InvoicePDFPath != "" {
		task.AttachmentKey = s.InvoicePDFPath
		task.AttachmentName = fmt.Sprintf("%s.pdf", s.InvoiceNumber)
	}
	return task, nil
}

func (p *NotificationPlanner) shipmentData(s *models.Shipment) *email.TemplateData {
	eta := s.EstimatedDeliveryDate
	return &email.TemplateData{
		Tracking:          s.TrackingNumber,
		InvoiceNumber:     s.InvoiceNumber,
		RecipientName:     s.RecipientName,
		SenderName:        s.SenderName,
		Origin:            s.OriginLocation,
		Destination:       s.DestinationLocation,
		Status:            s.CurrentStatus.Label(),
		Location:          s.CurrentLocation,
		EstimatedDelivery: timeutil.FormatDate(&eta),
		Amount:            utils.FormatCurrency(s.ShippingAmount, s.PaymentCurrency),
		TrackingURL:       p.cfg.TrackingURL(s.TrackingNumber),
	}
}
