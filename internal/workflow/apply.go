package workflow

import (
	"fmt"
	"time"

	"eukexpress-backend/internal/models"
)

// CommandKind selects which half of the state machine a Command drives.
type CommandKind int

const (
	KindStatus CommandKind = iota
	KindIntervention
)

// Command is an admin action against one shipment.
type Command struct {
	Kind     CommandKind
	Target   models.ShipmentStatus
	Type     models.InterventionType
	Action   models.InterventionAction
	Location string
	Notes    string
	Meta     models.InterventionMeta
	Actor    string
}

// ChangeStatus builds a status update command.
func ChangeStatus(target models.ShipmentStatus, location, notes, actor string) Command {
	return Command{Kind: KindStatus, Target: target, Location: location, Notes: notes, Actor: actor}
}

// ToggleIntervention builds an intervention command.
func ToggleIntervention(t models.InterventionType, a models.InterventionAction, meta models.InterventionMeta, actor string) Command {
	return Command{Kind: KindIntervention, Type: t, Action: a, Meta: meta, Actor: actor}
}

// Notice is a decided email, before rendering. Recipients never lists the
// sender when the sender shares the recipient's address.
type Notice struct {
	EmailType  models.EmailType
	Recipients []models.RecipientType
	Duration   string
	Reason     string
	RevisedETA string
}

// Outcome is everything Apply decided. The shipment passed to Apply has
// already been updated in place when Outcome is returned.
type Outcome struct {
	Previous      models.ShipmentStatus
	Status        models.ShipmentStatus
	StatusChanged bool
	NewState      bool
	Redundant     bool
	Duration      *string
	History       *models.StatusHistoryEntry
	Intervention  *models.InterventionLogEntry
	Notices       []Notice
}

// NoticeCount is the number of (notice, recipient) pairs to enqueue.
func (o *Outcome) NoticeCount() int {
	n := 0
	for _, no := range o.Notices {
		n += len(no.Recipients)
	}
	return n
}

// Apply runs cmd against s at time now. On error s is left untouched.
func Apply(s *models.Shipment, cmd Command, now time.Time) (*Outcome, error) {
	switch cmd.Kind {
	case KindStatus:
		return applyStatus(s, cmd, now)
	case KindIntervention:
		return applyIntervention(s, cmd, now)
	}
	return nil, fmt.Errorf("unknown command kind %d", cmd.Kind)
}

// Book initialises a new shipment in BOOKED and returns the creation
// history entry and the invoice notice.
func Book(s *models.Shipment, actor string, now time.Time) *Outcome {
	s.CurrentStatus = models.StatusBooked
	s.StatusUpdatedAt = now
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.CurrentLocation == "" {
		s.CurrentLocation = s.OriginLocation
	}
	return &Outcome{
		Status:        models.StatusBooked,
		StatusChanged: true,
		History:       historyEntry(s, nil, models.StatusBooked, actor, s.OriginLocation, "Shipment created", now),
		Notices:       statusNotices(s, nil, models.StatusBooked, now),
	}
}

func applyStatus(s *models.Shipment, cmd Command, now time.Time) (*Outcome, error) {
	if !cmd.Target.Valid() || !CanTransition(s.CurrentStatus, cmd.Target, s.IsInternational) {
		return nil, &models.InvalidTransitionError{
			From:    s.CurrentStatus,
			To:      cmd.Target,
			Allowed: AvailableTransitions(s.CurrentStatus, s.IsInternational),
		}
	}

	prev := s.CurrentStatus
	s.CurrentStatus = cmd.Target
	s.StatusUpdatedAt = now
	s.UpdatedAt = now
	if cmd.Location != "" {
		s.CurrentLocation = cmd.Location
	}
	if cmd.Target == models.StatusDelivered && s.ActualDeliveryDate == nil {
		d := dateOf(now)
		s.ActualDeliveryDate = &d
	}

	return &Outcome{
		Previous:      prev,
		Status:        cmd.Target,
		StatusChanged: true,
		History:       historyEntry(s, &prev, cmd.Target, cmd.Actor, s.CurrentLocation, cmd.Notes, now),
		Notices:       statusNotices(s, &prev, cmd.Target, now),
	}, nil
}

func applyIntervention(s *models.Shipment, cmd Command, now time.Time) (*Outcome, error) {
	r, ok := rules[ruleKey{cmd.Type, cmd.Action}]
	if !ok {
		return nil, fmt.Errorf("%w: %q for %q", models.ErrInvalidAction, cmd.Action, cmd.Type)
	}

	flag := r.flag(s)
	prevState := *flag
	entry := &models.InterventionLogEntry{
		ShipmentID:       s.ID,
		InterventionType: cmd.Type,
		Action:           cmd.Action,
		PreviousState:    prevState,
		NewState:         prevState,
		Notes:            logNotes(cmd.Meta),
		PerformedBy:      cmd.Actor,
		CreatedAt:        now,
	}
	out := &Outcome{
		Previous:     s.CurrentStatus,
		Status:       s.CurrentStatus,
		NewState:     prevState,
		Intervention: entry,
	}

	if prevState == r.sets {
		entry.Redundant = true
		out.Redundant = true
		return out, nil
	}

	*flag = r.sets
	entry.NewState = r.sets
	out.NewState = r.sets
	notice := r.apply(s, cmd.Meta, now, out)
	s.UpdatedAt = now

	if r.status != "" && r.status != s.CurrentStatus {
		prev := s.CurrentStatus
		s.CurrentStatus = r.status
		s.StatusUpdatedAt = now
		out.Status = r.status
		out.StatusChanged = true
		loc := cmd.Meta.Location
		if loc == "" {
			loc = s.CurrentLocation
		}
		out.History = historyEntry(s, &prev, r.status, cmd.Actor, loc, r.note, now)
	}

	if notice != nil {
		out.Notices = []Notice{*notice}
	}
	return out, nil
}

func historyEntry(s *models.Shipment, prev *models.ShipmentStatus, next models.ShipmentStatus, actor, location, notes string, now time.Time) *models.StatusHistoryEntry {
	return &models.StatusHistoryEntry{
		ShipmentID:     s.ID,
		PreviousStatus: prev,
		NewStatus:      next,
		ChangedBy:      actor,
		Location:       location,
		Notes:          notes,
		CreatedAt:      now,
	}
}

func logNotes(m models.InterventionMeta) string {
	for _, n := range []string{m.Notes, m.Description, m.ResolutionNotes, m.Reason} {
		if n != "" {
			return n
		}
	}
	return ""
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
