package models

import "time"

// StatusChangeResult is returned by an accepted status update.
type StatusChangeResult struct {
	Shipment            *Shipment      `json:"shipment"`
	OldStatus           ShipmentStatus `json:"old_status"`
	NewStatus           ShipmentStatus `json:"new_status"`
	Timestamp           time.Time      `json:"timestamp"`
	NotificationsQueued int            `json:"notifications_queued"`
}

// InterventionResult is returned by an intervention toggle.
type InterventionResult struct {
	Success          bool               `json:"success"`
	InterventionType InterventionType   `json:"intervention_type"`
	Action           InterventionAction `json:"action"`
	NewState         bool               `json:"new_state"`
	Redundant        bool               `json:"redundant"`
	Timestamp        time.Time          `json:"timestamp"`
	Status           ShipmentStatus     `json:"status"`
	NotificationSent bool               `json:"notification_sent"`
	Duration         *string            `json:"duration,omitempty"`
}

// AvailableStatuses answers "what can this shipment move to next".
type AvailableStatuses struct {
	Current          ShipmentStatus   `json:"current"`
	CurrentDisplay   string           `json:"current_display"`
	Available        []ShipmentStatus `json:"available"`
	AvailableDisplay []string         `json:"available_display"`
	RequiresCustoms  bool             `json:"requires_customs"`
}

// DashboardStats are the counters on the admin landing page.
type DashboardStats struct {
	ActiveShipments     int     `json:"active_shipments"`
	TodayShipments      int     `json:"today_shipments"`
	DelayedCount        int     `json:"delayed_count"`
	CustomsBondCount    int     `json:"customs_bond_count"`
	DamageReportedCount int     `json:"damage_reported_count"`
	SecurityHoldCount   int     `json:"security_hold_count"`
	AttentionRequired   int     `json:"attention_required"`
	RevenueMonth        float64 `json:"revenue_month"`
}

type ActivityItem struct {
	Tracking     string    `json:"tracking"`
	Event        string    `json:"event"`
	EventDisplay string    `json:"event_display"`
	Timestamp    time.Time `json:"timestamp"`
	Location     string    `json:"location,omitempty"`
}

type Dashboard struct {
	Stats          DashboardStats `json:"stats"`
	RecentActivity []ActivityItem `json:"recent_activity"`
}

type QuickAction struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// ShipmentListItem is the lightweight row of the admin list.
type ShipmentListItem struct {
	Tracking          string             `json:"tracking"`
	Status            ShipmentStatus     `json:"status"`
	StatusDisplay     string             `json:"status_display"`
	StatusColor       string             `json:"status_color"`
	Origin            string             `json:"origin"`
	Destination       string             `json:"destination"`
	SenderName        string             `json:"sender_name"`
	RecipientName     string             `json:"recipient_name"`
	LastUpdate        time.Time          `json:"last_update"`
	LastUpdateDisplay string             `json:"last_update_display"`
	HasInterventions  bool               `json:"has_interventions"`
	InterventionTypes []InterventionType `json:"intervention_types"`
}

type ShipmentList struct {
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Pages     int                `json:"pages"`
	Limit     int                `json:"limit"`
	Shipments []ShipmentListItem `json:"shipments"`
}

type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type FilterOptions struct {
	Statuses   []FilterOption `json:"statuses"`
	DateRanges []FilterOption `json:"date_ranges"`
	Locations  []string       `json:"locations"`
}

// TimelineItem is one rendered status history row.
type TimelineItem struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Display   string    `json:"display"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	ChangedBy string    `json:"changed_by,omitempty"`
}

// ShipmentDetail is the full admin view of a shipment.
type ShipmentDetail struct {
	Tracking        string                  `json:"tracking"`
	InvoiceNumber   string                  `json:"invoice_number"`
	Route           DetailRoute             `json:"route"`
	Commodity       DetailCommodity         `json:"commodity"`
	Sender          Party                   `json:"sender"`
	Recipient       Party                   `json:"recipient"`
	Images          DetailImages            `json:"images"`
	Payment         DetailPayment           `json:"payment"`
	Status          DetailStatus            `json:"status"`
	Interventions   DetailInterventions     `json:"interventions"`
	Timeline        []TimelineItem          `json:"timeline"`
	InterventionLog []*InterventionLogEntry `json:"intervention_log"`
	EmailHistory    []*EmailLogEntry        `json:"email_history"`
	QRCode          string                  `json:"qr_code,omitempty"`
	InvoicePDF      string                  `json:"invoice_pdf,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

type DetailRoute struct {
	Origin          string `json:"origin"`
	OriginCode      string `json:"origin_code,omitempty"`
	Destination     string `json:"destination"`
	DestinationCode string `json:"destination_code,omitempty"`
	IsInternational bool   `json:"is_international"`
}

type DetailCommodity struct {
	Description      string     `json:"description"`
	WeightKg         float64    `json:"weight_kg"`
	Dimensions       Dimensions `json:"dimensions"`
	DeclaredValue    float64    `json:"declared_value"`
	DeclaredCurrency string     `json:"declared_currency"`
}

type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DetailImages struct {
	Front string `json:"front,omitempty"`
	Rear  string `json:"rear,omitempty"`
}

type DetailPayment struct {
	Amount     float64    `json:"amount"`
	Display    string     `json:"display"`
	Currency   string     `json:"currency"`
	Method     string     `json:"method,omitempty"`
	Status     string     `json:"status"`
	Reference  string     `json:"reference,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

type DetailStatus struct {
	Current           ShipmentStatus `json:"current"`
	Display           string         `json:"display"`
	Color             string         `json:"color"`
	StartedAt         time.Time      `json:"started_at"`
	EstimatedDelivery string         `json:"estimated_delivery"`
	ActualDelivery    string         `json:"actual_delivery,omitempty"`
	CurrentLocation   string         `json:"current_location,omitempty"`
}

type HoldBlock struct {
	Active      bool       `json:"active"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Location    string     `json:"location,omitempty"`
	Reference   string     `json:"reference,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Duration    *string    `json:"duration,omitempty"`
}

type DamageBlock struct {
	Reported        bool       `json:"reported"`
	ReportedAt      *time.Time `json:"reported_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	Description     string     `json:"description,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	Duration        *string    `json:"duration,omitempty"`
}

type ReturnBlock struct {
	Active      bool       `json:"active"`
	InitiatedAt *time.Time `json:"initiated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Duration    *string    `json:"duration,omitempty"`
}

type DelayBlock struct {
	Active      bool       `json:"active"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	OriginalETA string     `json:"original_eta,omitempty"`
	RevisedETA  string     `json:"revised_eta,omitempty"`
	Duration    *string    `json:"duration,omitempty"`
}

type DetailInterventions struct {
	Customs  HoldBlock   `json:"customs"`
	Security HoldBlock   `json:"security"`
	Damage   DamageBlock `json:"damage"`
	Return   ReturnBlock `json:"return"`
	Delay    DelayBlock  `json:"delay"`
}

// PublicTracking is what an anonymous visitor sees. It must not carry
// notes, references, email addresses or internal ids.
type PublicTracking struct {
	Tracking      string              `json:"tracking"`
	Status        PublicStatus        `json:"status"`
	Route         PublicRoute         `json:"route"`
	Dates         PublicDates         `json:"dates"`
	Interventions PublicInterventions `json:"interventions"`
	Timeline      []PublicTimeline    `json:"timeline"`
	QRCode        string              `json:"qr_code,omitempty"`
}

type PublicStatus struct {
	Current ShipmentStatus `json:"current"`
	Display string         `json:"display"`
	Color   string         `json:"color"`
}

type PublicRoute struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type PublicDates struct {
	Sending   string `json:"sending"`
	Estimated string `json:"estimated"`
	Actual    string `json:"actual,omitempty"`
}

type PublicInterventions struct {
	CustomsActive  bool `json:"customs_active"`
	SecurityActive bool `json:"security_active"`
	DamageReported bool `json:"damage_reported"`
	DelayActive    bool `json:"delay_active"`
	ReturnActive   bool `json:"return_active"`
}

type PublicTimeline struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Display   string    `json:"display"`
	Location  string    `json:"location,omitempty"`
}

// EmailHistoryItem is the communication tab row.
type EmailHistoryItem struct {
	Timestamp      time.Time     `json:"timestamp"`
	Type           EmailType     `json:"type"`
	Recipient      RecipientType `json:"recipient"`
	RecipientEmail string        `json:"recipient_email"`
	Subject        string        `json:"subject"`
	Status         string        `json:"status"`
	MessageID      string        `json:"message_id,omitempty"`
	Attempt        int           `json:"attempt"`
}

// CampaignResponse is returned when a bulk campaign is accepted.
type CampaignResponse struct {
	Success        bool   `json:"success"`
	CampaignID     string `json:"campaign_id"`
	RecipientCount int    `json:"recipient_count"`
	Status         string `json:"status"`
}

// PaymentOrder is the Razorpay order created for a shipment.
type PaymentOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key_id"`
	Tracking string  `json:"tracking"`
}
