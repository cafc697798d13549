package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one row of the append-only status timeline.
// PreviousStatus is nil for the creation entry.
type StatusHistoryEntry struct {
	ID             int64           `json:"id"`
	ShipmentID     uuid.UUID       `json:"shipment_id"`
	PreviousStatus *ShipmentStatus `json:"previous_status,omitempty"`
	NewStatus      ShipmentStatus  `json:"new_status"`
	ChangedBy      string          `json:"changed_by"`
	Location       string          `json:"location,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// EventStart stands in for a missing previous status in timeline events.
const EventStart = "START"

// Event renders the transition as "PREV → NEW".
func (h *StatusHistoryEntry) Event() string {
	prev := EventStart
	if h.PreviousStatus != nil {
		prev = string(*h.PreviousStatus)
	}
	return prev + " → " + string(h.NewStatus)
}

// EventDisplay renders the transition with display labels.
func (h *StatusHistoryEntry) EventDisplay() string {
	prev := "Start"
	if h.PreviousStatus != nil {
		prev = h.PreviousStatus.Label()
	}
	return prev + " → " + h.NewStatus.Label()
}

// RecentActivity is a status history row joined to its tracking number.
type RecentActivity struct {
	StatusHistoryEntry
	TrackingNumber string `json:"tracking_number"`
}
