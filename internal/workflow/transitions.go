// Package workflow holds the shipment state machine. Every status change
// and intervention toggle goes through Apply, which decides the new field
// values, the log rows and the notices to send.
package workflow

import "eukexpress-backend/internal/models"

var transitions = map[models.ShipmentStatus][]models.ShipmentStatus{
	models.StatusBooked:              {models.StatusCollected},
	models.StatusCollected:           {models.StatusWarehouseProcessing},
	models.StatusWarehouseProcessing: {models.StatusTerminalArrival},
	models.StatusTerminalArrival:     {models.StatusEnRoute},
	models.StatusEnRoute: {
		models.StatusCustomsBond,
		models.StatusSecurityHold,
		models.StatusTransitException,
		models.StatusDestinationHub,
	},
	models.StatusCustomsBond:      {models.StatusCustomsCleared},
	models.StatusCustomsCleared:   {models.StatusEnRoute, models.StatusDestinationHub},
	models.StatusSecurityHold:     {models.StatusSecurityCleared},
	models.StatusSecurityCleared:  {models.StatusEnRoute, models.StatusDestinationHub},
	models.StatusDamageReported:   {models.StatusDamageResolved},
	models.StatusDamageResolved:   {models.StatusEnRoute, models.StatusDestinationHub},
	models.StatusReturnToSender:   {models.StatusCollected, models.StatusWarehouseProcessing, models.StatusDelivered},
	models.StatusTransitException: {models.StatusEnRoute, models.StatusDestinationHub},
	models.StatusDestinationHub:   {models.StatusWithCourier},
	models.StatusWithCourier:      {models.StatusDelivered},
	models.StatusDelivered:        {},
}

// AvailableTransitions returns the statuses an admin may move a shipment to
// from state. The result is a fresh slice.
func AvailableTransitions(state models.ShipmentStatus, isInternational bool) []models.ShipmentStatus {
	next := transitions[state]
	out := make([]models.ShipmentStatus, len(next))
	copy(out, next)
	return out
}

// RequiresCustoms is a hint for the admin UI: international shipments about
// to leave or already in transit will pass a customs checkpoint.
func RequiresCustoms(state models.ShipmentStatus, isInternational bool) bool {
	return isInternational && (state == models.StatusEnRoute || state == models.StatusTerminalArrival)
}

// CanTransition reports whether to is allowed from from.
func CanTransition(from, to models.ShipmentStatus, isInternational bool) bool {
	for _, s := range AvailableTransitions(from, isInternational) {
		if s == to {
			return true
		}
	}
	return false
}

// Available builds the next-status projection for a shipment.
func Available(s *models.Shipment) *models.AvailableStatuses {
	next := AvailableTransitions(s.CurrentStatus, s.IsInternational)
	display := make([]string, len(next))
	for i, st := range next {
		display[i] = st.Label()
	}
	return &models.AvailableStatuses{
		Current:          s.CurrentStatus,
		CurrentDisplay:   s.CurrentStatus.Label(),
		Available:        next,
		AvailableDisplay: display,
		RequiresCustoms:  RequiresCustoms(s.CurrentStatus, s.IsInternational),
	}
}
