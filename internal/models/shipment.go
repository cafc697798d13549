package models

import (
	"time"

	"github.com/google/uuid"
)

// Dimensions in centimetres, stored as JSONB
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Payment status values
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// Shipment is the single mutable record for a consignment. Intervention
// flags and current_status are only ever changed together through the
// workflow package.
type Shipment struct {
	ID             uuid.UUID `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	InvoiceNumber  string    `json:"invoice_number"`

	SenderName    string `json:"sender_name"`
	SenderEmail   string `json:"sender_email"`
	SenderPhone   string `json:"sender_phone"`
	SenderAddress string `json:"sender_address"`

	RecipientName    string `json:"recipient_name"`
	RecipientEmail   string `json:"recipient_email"`
	RecipientPhone   string `json:"recipient_phone"`
	RecipientAddress string `json:"recipient_address"`

	OriginLocation      string `json:"origin_location"`
	OriginCode          string `json:"origin_code"`
	DestinationLocation string `json:"destination_location"`
	DestinationCode     string `json:"destination_code"`
	IsInternational     bool   `json:"is_international"`

	GoodsDescription string     `json:"goods_description"`
	WeightKg         float64    `json:"weight_kg"`
	Dimensions       Dimensions `json:"dimensions"`
	DeclaredValue    float64    `json:"declared_value"`
	DeclaredCurrency string     `json:"declared_currency"`

	FrontImagePath string `json:"front_image_path,omitempty"`
	RearImagePath  string `json:"rear_image_path,omitempty"`
	FrontImageHash string `json:"front_image_hash,omitempty"`
	RearImageHash  string `json:"rear_image_hash,omitempty"`

	ShippingAmount    float64    `json:"shipping_amount"`
	PaymentCurrency   string     `json:"payment_currency"`
	PaymentMethod     string     `json:"payment_method,omitempty"`
	PaymentStatus     string     `json:"payment_status"`
	PaymentReference  string     `json:"payment_reference,omitempty"`
	PaymentReceivedAt *time.Time `json:"payment_received_at,omitempty"`

	SendingDate           time.Time  `json:"sending_date"`
	EstimatedDeliveryDate time.Time  `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date,omitempty"`

	CurrentStatus   ShipmentStatus `json:"current_status"`
	CurrentLocation string         `json:"current_location,omitempty"`
	StatusUpdatedAt time.Time      `json:"status_updated_at"`

	CustomsBondActive      bool       `json:"customs_bond_active"`
	CustomsBondActivatedAt *time.Time `json:"customs_bond_activated_at,omitempty"`
	CustomsBondReleasedAt  *time.Time `json:"customs_bond_released_at,omitempty"`
	CustomsBondLocation    string     `json:"customs_bond_location,omitempty"`
	CustomsBondReference   string     `json:"customs_bond_reference,omitempty"`
	CustomsBondNotes       string     `json:"customs_bond_notes,omitempty"`

	SecurityHoldActive      bool       `json:"security_hold_active"`
	SecurityHoldActivatedAt *time.Time `json:"security_hold_activated_at,omitempty"`
	SecurityHoldClearedAt   *time.Time `json:"security_hold_cleared_at,omitempty"`
	SecurityHoldLocation    string     `json:"security_hold_location,omitempty"`
	SecurityHoldReference   string     `json:"security_hold_reference,omitempty"`
	SecurityHoldNotes       string     `json:"security_hold_notes,omitempty"`

	DamageReported        bool       `json:"damage_reported"`
	DamageReportedAt      *time.Time `json:"damage_reported_at,omitempty"`
	DamageResolvedAt      *time.Time `json:"damage_resolved_at,omitempty"`
	DamageDescription     string     `json:"damage_description,omitempty"`
	DamageResolutionNotes string     `json:"damage_resolution_notes,omitempty"`

	ReturnActive      bool       `json:"return_active"`
	ReturnInitiatedAt *time.Time `json:"return_initiated_at,omitempty"`
	ReturnCompletedAt *time.Time `json:"return_completed_at,omitempty"`
	ReturnReason      string     `json:"return_reason,omitempty"`

	DelayActive     bool       `json:"delay_active"`
	DelayReportedAt *time.Time `json:"delay_reported_at,omitempty"`
	DelayResolvedAt *time.Time `json:"delay_resolved_at,omitempty"`
	DelayReason     string     `json:"delay_reason,omitempty"`
	DelayNotes      string     `json:"delay_notes,omitempty"`
	OriginalETA     *time.Time `json:"original_eta,omitempty"`
	RevisedETA      *time.Time `json:"revised_eta,omitempty"`

	QRCodePath     string `json:"qr_code_path,omitempty"`
	InvoicePDFPath string `json:"invoice_pdf_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasInterventions reports whether any intervention flag is currently set.
func (s *Shipment) HasInterventions() bool {
	return len(s.ActiveInterventions()) > 0
}

// ActiveInterventions returns the intervention types whose flag is set.
func (s *Shipment) ActiveInterventions() []InterventionType {
	types := make([]InterventionType, 0, 5)
	if s.CustomsBondActive {
		types = append(types, InterventionCustoms)
	}
	if s.SecurityHoldActive {
		types = append(types, InterventionSecurity)
	}
	if s.DamageReported {
		types = append(types, InterventionDamage)
	}
	if s.ReturnActive {
		types = append(types, InterventionReturn)
	}
	if s.DelayActive {
		types = append(types, InterventionDelay)
	}
	return types
}

// ChangeSet is everything a single mutation appends alongside the updated
// shipment row. It is persisted in the same transaction as the row.
type ChangeSet struct {
	History      *StatusHistoryEntry
	Intervention *InterventionLogEntry
	Tasks        []*NotificationTask
}

// Empty reports whether the change set carries no rows.
func (c *ChangeSet) Empty() bool {
	return c == nil || (c.History == nil && c.Intervention == nil && len(c.Tasks) == 0)
}
