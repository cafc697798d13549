package models

import "time"

// CreateShipmentRequest represents the request body for booking a shipment.
// Dates are plain YYYY-MM-DD strings.
type CreateShipmentRequest struct {
	SenderName          string      `json:"sender_name"`
	SenderEmail         string      `json:"sender_email"`
	SenderPhone         string      `json:"sender_phone"`
	SenderAddress       string      `json:"sender_address"`
	RecipientName       string      `json:"recipient_name"`
	RecipientEmail      string      `json:"recipient_email"`
	RecipientPhone      string      `json:"recipient_phone"`
	RecipientAddress    string      `json:"recipient_address"`
	OriginLocation      string      `json:"origin_location"`
	OriginCode          string      `json:"origin_code"`
	DestinationLocation string      `json:"destination_location"`
	DestinationCode     string      `json:"destination_code"`
	IsInternational     bool        `json:"is_international"`
	GoodsDescription    string      `json:"goods_description"`
	WeightKg            float64     `json:"weight_kg"`
	Dimensions          *Dimensions `json:"dimensions,omitempty"`
	DeclaredValue       float64     `json:"declared_value"`
	DeclaredCurrency    string      `json:"declared_currency"`
	ShippingAmount      float64     `json:"shipping_amount"`
	PaymentCurrency     string      `json:"payment_currency"`
	PaymentMethod       string      `json:"payment_method"`
	PaymentStatus       string      `json:"payment_status"`
	SendingDate         string      `json:"sending_date"`
	EstimatedDelivery   string      `json:"estimated_delivery_date"`
}

// ImageUpload is one uploaded shipment photo.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StatusUpdateRequest represents the request body for a status change
type StatusUpdateRequest struct {
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// InterventionRequest is the body of POST /shipments/{tracking}/interventions/{type}
type InterventionRequest struct {
	Action          string `json:"action"`
	Location        string `json:"location,omitempty"`
	Reference       string `json:"reference,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Description     string `json:"description,omitempty"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
	Reason          string `json:"reason,omitempty"`
	RevisedETA      string `json:"revised_eta,omitempty"` // YYYY-MM-DD
}

// DirectMessageRequest sends an ad-hoc email to one or both parties
type DirectMessageRequest struct {
	Recipient           string `json:"recipient"` // sender, recipient or both
	Subject             string `json:"subject"`
	Message             string `json:"message"`
	IncludeTrackingLink bool   `json:"include_tracking_link"`
}

// EmailResendRequest re-queues the invoice or the last notification
type EmailResendRequest struct {
	EmailType string `json:"email_type"` // invoice or last_notification
	Recipient string `json:"recipient"`  // sender or recipient
}

// ManualPaymentRequest records a payment taken outside Razorpay
type ManualPaymentRequest struct {
	Status    string `json:"status"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// ListFilter holds the query parameters of the shipment list and export.
type ListFilter struct {
	Page     int
	Limit    int
	Status   string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Offset of the first row for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
