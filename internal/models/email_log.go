package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType identifies the template a notification is rendered from.
type EmailType string

const (
	EmailInvoice              EmailType = "invoice"
	EmailCustomsBond          EmailType = "customs_bond"
	EmailCustomsReleased      EmailType = "customs_released"
	EmailSecurityHold         EmailType = "security_hold"
	EmailSecurityCleared      EmailType = "security_cleared"
	EmailDamageReport         EmailType = "damage_report"
	EmailDamageResolved       EmailType = "damage_resolved"
	EmailReturnInitiated      EmailType = "return_initiated"
	EmailDelayNotification    EmailType = "delay_notification"
	EmailDeliveryConfirmation EmailType = "delivery_confirmation"
	EmailCustomMessage        EmailType = "custom_message"
	EmailBulk                 EmailType = "bulk"
)

// RecipientType says which party of a shipment an email goes to.
type RecipientType string

const (
	RecipientSender    RecipientType = "sender"
	RecipientRecipient RecipientType = "recipient"
)

// Email delivery attempt results
const (
	EmailStatusSent   = "SENT"
	EmailStatusFailed = "FAILED"
)

// EmailLogEntry records a single delivery attempt.
type EmailLogEntry struct {
	ID             int64         `json:"id"`
	ShipmentID     *uuid.UUID    `json:"shipment_id,omitempty"`
	TaskID         *int64        `json:"task_id,omitempty"`
	RecipientType  RecipientType `json:"recipient_type"`
	RecipientEmail string        `json:"recipient_email"`
	EmailType      EmailType     `json:"email_type"`
	Subject        string        `json:"subject"`
	MessageID      string        `json:"message_id,omitempty"`
	Status         string        `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Attempt        int           `json:"attempt"`
	CreatedAt      time.Time     `json:"created_at"`
}
