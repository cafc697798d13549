package models

import (
	"time"

	"github.com/google/uuid"
)

// Outbox task states
const (
	TaskPending = "PENDING"
	TaskSent    = "SENT"
	TaskFailed  = "FAILED"
)

// NotificationTask is one (notice, recipient) pair waiting in the outbox.
// Subject and body are rendered when the task is enqueued.
type NotificationTask struct {
	ID             int64         `json:"id"`
	ShipmentID     *uuid.UUID    `json:"shipment_id,omitempty"`
	TrackingNumber string        `json:"tracking_number,omitempty"`
	RecipientType  RecipientType `json:"recipient_type"`
	RecipientEmail string        `json:"recipient_email"`
	EmailType      EmailType     `json:"email_type"`
	Subject        string        `json:"subject"`
	HTMLBody       string        `json:"-"`
	AttachmentKey  string        `json:"attachment_key,omitempty"`
	AttachmentName string        `json:"attachment_name,omitempty"`
	Status         string        `json:"status"`
	Attempts       int           `json:"attempts"`
	MaxAttempts    int           `json:"max_attempts"`
	NextAttemptAt  time.Time     `json:"next_attempt_at"`
	LastError      string        `json:"last_error,omitempty"`
	CampaignID     *uuid.UUID    `json:"campaign_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	ProcessedAt    *time.Time    `json:"processed_at,omitempty"`
}

// OutboxStats summarizes the queue for the dashboard and metrics.
type OutboxStats struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}
