package models

import (
	"time"

	"github.com/google/uuid"
)

// InterventionType is an exception-handling flag family on a shipment.
type InterventionType string

const (
	InterventionCustoms  InterventionType = "customs"
	InterventionSecurity InterventionType = "security"
	InterventionDamage   InterventionType = "damage"
	InterventionReturn   InterventionType = "return"
	InterventionDelay    InterventionType = "delay"
)

// InterventionAction is the verb applied to an intervention type.
type InterventionAction string

const (
	ActionActivate InterventionAction = "activate"
	ActionRelease  InterventionAction = "release"
	ActionClear    InterventionAction = "clear"
	ActionReport   InterventionAction = "report"
	ActionResolve  InterventionAction = "resolve"
	ActionInitiate InterventionAction = "initiate"
)

// InterventionLogEntry is an append-only ledger row. Redundant toggles are
// recorded too so the audit trail shows every admin action.
type InterventionLogEntry struct {
	ID               int64              `json:"id"`
	ShipmentID       uuid.UUID          `json:"shipment_id"`
	InterventionType InterventionType   `json:"intervention_type"`
	Action           InterventionAction `json:"action"`
	PreviousState    bool               `json:"previous_state"`
	NewState         bool               `json:"new_state"`
	Redundant        bool               `json:"redundant"`
	Notes            string             `json:"notes,omitempty"`
	PerformedBy      string             `json:"performed_by"`
	CreatedAt        time.Time          `json:"created_at"`
}

// InterventionMeta carries the optional payload of a toggle request.
type InterventionMeta struct {
	Location        string     `json:"location,omitempty"`
	Reference       string     `json:"reference,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Description     string     `json:"description,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	RevisedETA      *time.Time `json:"-"`
}
