package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eukexpress-backend/internal/models"
)

var now = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func newShipment(status models.ShipmentStatus) *models.Shipment {
	return &models.Shipment{
		ID:                    uuid.New(),
		TrackingNumber:        "EUKAB234",
		SenderEmail:           "sender@example.com",
		RecipientEmail:        "recipient@example.com",
		OriginLocation:        "Lagos",
		DestinationLocation:   "London",
		EstimatedDeliveryDate: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		CurrentStatus:         status,
		StatusUpdatedAt:       now.Add(-48 * time.Hour),
	}
}

func TestAvailableTransitions(t *testing.T) {
	tests := []struct {
		from models.ShipmentStatus
		want []models.ShipmentStatus
	}{
		{models.StatusBooked, []models.ShipmentStatus{models.StatusCollected}},
		{models.StatusEnRoute, []models.ShipmentStatus{models.StatusCustomsBond, models.StatusSecurityHold, models.StatusTransitException, models.StatusDestinationHub}},
		{models.StatusReturnToSender, []models.ShipmentStatus{models.StatusCollected, models.StatusWarehouseProcessing, models.StatusDelivered}},
		{models.StatusDelivered, []models.ShipmentStatus{}},
		{models.ShipmentStatus("BOGUS"), []models.ShipmentStatus{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, AvailableTransitions(tt.from, true))
			assert.Equal(t, tt.want, AvailableTransitions(tt.from, false))
		})
	}
}

func TestAvailableTransitionsReturnsCopy(t *testing.T) {
	got := AvailableTransitions(models.StatusBooked, false)
	got[0] = models.StatusDelivered
	assert.Equal(t, []models.ShipmentStatus{models.StatusCollected}, AvailableTransitions(models.StatusBooked, false))
}

func TestEveryStatusHasTransitionEntry(t *testing.T) {
	for _, s := range models.AllStatuses {
		_, ok := transitions[s]
		assert.True(t, ok, "missing transitions for %s", s)
		for _, next := range transitions[s] {
			assert.True(t, next.Valid(), "%s lists unknown status %s", s, next)
		}
	}
}

func TestRequiresCustoms(t *testing.T) {
	assert.True(t, RequiresCustoms(models.StatusEnRoute, true))
	assert.True(t, RequiresCustoms(models.StatusTerminalArrival, true))
	assert.False(t, RequiresCustoms(models.StatusEnRoute, false))
	assert.False(t, RequiresCustoms(models.StatusBooked, true))
}

func TestAvailable(t *testing.T) {
	s := newShipment(models.StatusTerminalArrival)
	s.IsInternational = true
	got := Available(s)
	assert.Equal(t, models.StatusTerminalArrival, got.Current)
	assert.Equal(t, "Terminal Arrival", got.CurrentDisplay)
	assert.Equal(t, []models.ShipmentStatus{models.StatusEnRoute}, got.Available)
	assert.Equal(t, []string{"En Route"}, got.AvailableDisplay)
	assert.True(t, got.RequiresCustoms)
}

func TestChangeStatusAllowed(t *testing.T) {
	s := newShipment(models.StatusBooked)
	out, err := Apply(s, ChangeStatus(models.StatusCollected, "Ikeja hub", "picked up", "admin"), now)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCollected, s.CurrentStatus)
	assert.Equal(t, "Ikeja hub", s.CurrentLocation)
	assert.Equal(t, now, s.StatusUpdatedAt)
	assert.Equal(t, models.StatusBooked, out.Previous)
	assert.True(t, out.StatusChanged)
	require.NotNil(t, out.History)
	require.NotNil(t, out.History.PreviousStatus)
	assert.Equal(t, models.StatusBooked, *out.History.PreviousStatus)
	assert.Equal(t, models.StatusCollected, out.History.NewStatus)
	assert.Equal(t, "admin", out.History.ChangedBy)
	assert.Equal(t, "picked up", out.History.Notes)
	assert.Nil(t, out.Intervention)
	assert.Empty(t, out.Notices)
}

func TestChangeStatusRejected(t *testing.T) {
	s := newShipment(models.StatusBooked)
	before := *s
	_, err := Apply(s, ChangeStatus(models.StatusCustomsBond, "", "", "admin"), now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	var ite *models.InvalidTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, models.StatusBooked, ite.From)
	assert.Equal(t, models.StatusCustomsBond, ite.To)
	assert.Equal(t, []models.ShipmentStatus{models.StatusCollected}, ite.Allowed)
	assert.Equal(t, before, *s)
}

func TestChangeStatusUnknownTarget(t *testing.T) {
	s := newShipment(models.StatusEnRoute)
	_, err := Apply(s, ChangeStatus("LOST_IN_SPACE", "", "", "admin"), now)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestDeliveredSetsActualDateOnce(t *testing.T) {
	s := newShipment(models.StatusWithCourier)
	out, err := Apply(s, ChangeStatus(models.StatusDelivered, "", "", "admin"), now)
	require.NoError(t, err)
	require.NotNil(t, s.ActualDeliveryDate)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), *s.ActualDeliveryDate)

	require.Len(t, out.Notices, 1)
	assert.Equal(t, models.EmailDeliveryConfirmation, out.Notices[0].EmailType)
	assert.Equal(t, []models.RecipientType{models.RecipientRecipient, models.RecipientSender}, out.Notices[0].Recipients)

	// second delivery after a return keeps the first date
	s.CurrentStatus = models.StatusReturnToSender
	_, err = Apply(s, ChangeStatus(models.StatusDelivered, "", "", "admin"), now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), *s.ActualDeliveryDate)
}

func TestStatusNotices(t *testing.T) {
	activated := now.Add(-50 * time.Hour)
	tests := []struct {
		name     string
		from     models.ShipmentStatus
		to       models.ShipmentStatus
		setup    func(*models.Shipment)
		wantType models.EmailType
		wantTo   []models.RecipientType
		wantDur  string
	}{
		{name: "customs bond", from: models.StatusEnRoute, to: models.StatusCustomsBond,
			wantType: models.EmailCustomsBond, wantTo: []models.RecipientType{models.RecipientRecipient}},
		{name: "customs cleared with duration", from: models.StatusCustomsBond, to: models.StatusCustomsCleared,
			setup:    func(s *models.Shipment) { s.CustomsBondActivatedAt = &activated },
			wantType: models.EmailCustomsReleased, wantTo: []models.RecipientType{models.RecipientRecipient}, wantDur: "2 days"},
		{name: "customs cleared without activation", from: models.StatusCustomsBond, to: models.StatusCustomsCleared,
			wantType: models.EmailCustomsReleased, wantTo: []models.RecipientType{models.RecipientRecipient}, wantDur: "processed"},
		{name: "delivered same address", from: models.StatusWithCourier, to: models.StatusDelivered,
			setup:    func(s *models.Shipment) { s.SenderEmail = "RECIPIENT@example.com" },
			wantType: models.EmailDeliveryConfirmation, wantTo: []models.RecipientType{models.RecipientRecipient}},
		{name: "return", from: models.StatusEnRoute, to: models.StatusReturnToSender,
			wantType: models.EmailReturnInitiated, wantTo: []models.RecipientType{models.RecipientRecipient, models.RecipientSender}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newShipment(tt.from)
			if tt.setup != nil {
				tt.setup(s)
			}
			prev := tt.from
			got := statusNotices(s, &prev, tt.to, now)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantType, got[0].EmailType)
			assert.Equal(t, tt.wantTo, got[0].Recipients)
			assert.Equal(t, tt.wantDur, got[0].Duration)
		})
	}
}

func TestStatusNoticesQuietTransitions(t *testing.T) {
	for _, to := range []models.ShipmentStatus{models.StatusCollected, models.StatusEnRoute, models.StatusDestinationHub, models.StatusSecurityHold} {
		prev := models.StatusBooked
		assert.Empty(t, statusNotices(newShipment(prev), &prev, to, now), to)
	}
	same := models.StatusCustomsBond
	assert.Empty(t, statusNotices(newShipment(same), &same, models.StatusCustomsBond, now))
}

func TestBook(t *testing.T) {
	s := newShipment("")
	out := Book(s, "admin", now)
	assert.Equal(t, models.StatusBooked, s.CurrentStatus)
	assert.Equal(t, now, s.CreatedAt)
	require.NotNil(t, out.History)
	assert.Nil(t, out.History.PreviousStatus)
	assert.Equal(t, "Lagos", out.History.Location)
	assert.Equal(t, "Shipment created", out.History.Notes)
	assert.Equal(t, "START → BOOKED", out.History.Event())
	require.Len(t, out.Notices, 1)
	assert.Equal(t, models.EmailInvoice, out.Notices[0].EmailType)
	assert.Equal(t, 2, out.NoticeCount())
}

func TestBookSameAddressSendsOneInvoice(t *testing.T) {
	s := newShipment("")
	s.SenderEmail = " recipient@example.com"
	out := Book(s, "admin", now)
	assert.Equal(t, 1, out.NoticeCount())
}

func TestCustomsActivateThenRelease(t *testing.T) {
	s := newShipment(models.StatusEnRoute)
	meta := models.InterventionMeta{Location: "Heathrow", Reference: "CB-1", Notes: "docs missing"}
	out, err := Apply(s, ToggleIntervention(models.InterventionCustoms, models.ActionActivate, meta, "admin"), now)
	require.NoError(t, err)

	assert.True(t, s.CustomsBondActive)
	assert.Equal(t, models.StatusCustomsBond, s.CurrentStatus)
	assert.Equal(t, "Heathrow", s.CustomsBondLocation)
	assert.Equal(t, "CB-1", s.CustomsBondReference)
	assert.Equal(t, now, *s.CustomsBondActivatedAt)
	assert.Nil(t, s.CustomsBondReleasedAt)
	assert.Equal(t, now, s.StatusUpdatedAt)

	require.NotNil(t, out.Intervention)
	assert.False(t, out.Intervention.PreviousState)
	assert.True(t, out.Intervention.NewState)
	assert.False(t, out.Intervention.Redundant)
	assert.Equal(t, "docs missing", out.Intervention.Notes)
	require.NotNil(t, out.History)
	assert.Equal(t, "Customs bond activated", out.History.Notes)
	assert.Equal(t, "Heathrow", out.History.Location)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, models.EmailCustomsBond, out.Notices[0].EmailType)

	later := now.Add(5 * time.Hour)
	out, err = Apply(s, ToggleIntervention(models.InterventionCustoms, models.ActionRelease, models.InterventionMeta{}, "admin"), later)
	require.NoError(t, err)
	assert.False(t, s.CustomsBondActive)
	assert.Equal(t, models.StatusCustomsCleared, s.CurrentStatus)
	assert.Equal(t, later, *s.CustomsBondReleasedAt)
	require.NotNil(t, out.Duration)
	assert.Equal(t, "5 hours", *out.Duration)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, models.EmailCustomsReleased, out.Notices[0].EmailType)
	assert.Equal(t, "5 hours", out.Notices[0].Duration)
}

func TestRedundantToggle(t *testing.T) {
	s := newShipment(models.StatusEnRoute)
	before := *s
	out, err := Apply(s, ToggleIntervention(models.InterventionCustoms, models.ActionRelease, models.InterventionMeta{}, "admin"), now)
	require.NoError(t, err)

	assert.True(t, out.Redundant)
	assert.False(t, out.NewState)
	assert.False(t, out.StatusChanged)
	assert.Nil(t, out.History)
	assert.Empty(t, out.Notices)
	require.NotNil(t, out.Intervention)
	assert.True(t, out.Intervention.Redundant)
	assert.Equal(t, before, *s)
}

func TestInvalidAction(t *testing.T) {
	s := newShipment(models.StatusEnRoute)
	tests := []struct {
		typ models.InterventionType
		act models.InterventionAction
	}{
		{models.InterventionCustoms, models.ActionClear},
		{models.InterventionReturn, models.ActionResolve},
		{"weather", models.ActionReport},
	}
	for _, tt := range tests {
		_, err := Apply(s, ToggleIntervention(tt.typ, tt.act, models.InterventionMeta{}, "admin"), now)
		assert.ErrorIs(t, err, models.ErrInvalidAction)
		assert.False(t, ValidAction(tt.typ, tt.act))
	}
}

func TestInterventionStatusTable(t *testing.T) {
	tests := []struct {
		typ        models.InterventionType
		act        models.InterventionAction
		preset     func(*models.Shipment)
		wantStatus models.ShipmentStatus
		wantEmail  models.EmailType
		wantTo     int
	}{
		{models.InterventionSecurity, models.ActionActivate, nil, models.StatusSecurityHold, models.EmailSecurityHold, 1},
		{models.InterventionSecurity, models.ActionClear, func(s *models.Shipment) { s.SecurityHoldActive = true }, models.StatusSecurityCleared, models.EmailSecurityCleared, 1},
		{models.InterventionDamage, models.ActionReport, nil, models.StatusDamageReported, models.EmailDamageReport, 2},
		{models.InterventionDamage, models.ActionResolve, func(s *models.Shipment) { s.DamageReported = true }, models.StatusDamageResolved, models.EmailDamageResolved, 1},
		{models.InterventionReturn, models.ActionInitiate, nil, models.StatusReturnToSender, models.EmailReturnInitiated, 2},
		{models.InterventionDelay, models.ActionReport, nil, models.StatusTransitException, models.EmailDelayNotification, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+string(tt.act), func(t *testing.T) {
			s := newShipment(models.StatusEnRoute)
			if tt.preset != nil {
				tt.preset(s)
			}
			out, err := Apply(s, ToggleIntervention(tt.typ, tt.act, models.InterventionMeta{}, "admin"), now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, s.CurrentStatus)
			assert.True(t, out.StatusChanged)
			require.Len(t, out.Notices, 1)
			assert.Equal(t, tt.wantEmail, out.Notices[0].EmailType)
			assert.Len(t, out.Notices[0].Recipients, tt.wantTo)
		})
	}
}

func TestToggleOnTerminalShipmentIsAllowed(t *testing.T) {
	s := newShipment(models.StatusDelivered)
	out, err := Apply(s, ToggleIntervention(models.InterventionDamage, models.ActionReport, models.InterventionMeta{Description: "crushed box"}, "admin"), now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDamageReported, s.CurrentStatus)
	assert.Equal(t, "crushed box", s.DamageDescription)
	assert.Equal(t, "crushed box", out.Intervention.Notes)
}

func TestToggleWithoutStatusChange(t *testing.T) {
	s := newShipment(models.StatusCustomsBond)
	out, err := Apply(s, ToggleIntervention(models.InterventionCustoms, models.ActionActivate, models.InterventionMeta{}, "admin"), now)
	require.NoError(t, err)
	assert.False(t, out.StatusChanged)
	assert.Nil(t, out.History)
	assert.Len(t, out.Notices, 1)
	assert.True(t, s.CustomsBondActive)
}

func TestDelayReportAndResolve(t *testing.T) {
	s := newShipment(models.StatusEnRoute)
	revised := time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC)
	out, err := Apply(s, ToggleIntervention(models.InterventionDelay, models.ActionReport,
		models.InterventionMeta{Reason: "Weather", Notes: "storm", RevisedETA: &revised}, "admin"), now)
	require.NoError(t, err)
	assert.True(t, s.DelayActive)
	assert.Equal(t, "Weather", s.DelayReason)
	assert.Equal(t, "storm", s.DelayNotes)
	assert.Equal(t, s.EstimatedDeliveryDate, *s.OriginalETA)
	assert.Equal(t, revised, *s.RevisedETA)
	assert.Equal(t, "Weather", out.Notices[0].Reason)
	assert.Equal(t, "2025-03-25", out.Notices[0].RevisedETA)

	out, err = Apply(s, ToggleIntervention(models.InterventionDelay, models.ActionResolve, models.InterventionMeta{}, "admin"), now.Add(26*time.Hour))
	require.NoError(t, err)
	assert.False(t, s.DelayActive)
	assert.Equal(t, models.StatusTransitException, s.CurrentStatus)
	assert.False(t, out.StatusChanged)
	assert.Empty(t, out.Notices)
	assert.Equal(t, "1 days", *out.Duration)
}

func TestDelayReportWithoutRevisedETA(t *testing.T) {
	s := newShipment(models.StatusEnRoute)
	out, err := Apply(s, ToggleIntervention(models.InterventionDelay, models.ActionReport, models.InterventionMeta{Reason: "Strike"}, "admin"), now)
	require.NoError(t, err)
	assert.Nil(t, s.RevisedETA)
	assert.Equal(t, ToBeDetermined, out.Notices[0].RevisedETA)
}

func TestFormatDuration(t *testing.T) {
	start := now
	tests := []struct {
		name string
		end  time.Time
		want string
	}{
		{"zero", now, "0 hours"},
		{"floored hours", now.Add(23*time.Hour + 59*time.Minute), "23 hours"},
		{"one day", now.Add(24 * time.Hour), "1 days"},
		{"floored days", now.Add(71 * time.Hour), "2 days"},
		{"negative clamps", now.Add(-3 * time.Hour), "0 hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := tt.end
			got := FormatDuration(&start, &end, now)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, FormatDuration(nil, nil, now))
	got := FormatDuration(&start, nil, now.Add(3*time.Hour))
	assert.Equal(t, "3 hours", *got)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Invoice for Shipment EUKAB234", Subject(models.EmailInvoice, "EUKAB234"))
	assert.Equal(t, "Customs Bond Held - Shipment EUKAB234", Subject(models.EmailCustomsBond, "EUKAB234"))
	assert.Equal(t, "Delivery Confirmed - Shipment EUKAB234", Subject(models.EmailDeliveryConfirmation, "EUKAB234"))
}

// Full lifecycle through the exception branch: hold, clear, deliver.
func TestLifecycle(t *testing.T) {
	s := newShipment("")
	Book(s, "admin", now)
	steps := []models.ShipmentStatus{
		models.StatusCollected,
		models.StatusWarehouseProcessing,
		models.StatusTerminalArrival,
		models.StatusEnRoute,
		models.StatusCustomsBond,
		models.StatusCustomsCleared,
		models.StatusDestinationHub,
		models.StatusWithCourier,
		models.StatusDelivered,
	}
	at := now
	for _, st := range steps {
		at = at.Add(time.Hour)
		_, err := Apply(s, ChangeStatus(st, "", "", "admin"), at)
		require.NoError(t, err, st)
	}
	assert.Equal(t, models.StatusDelivered, s.CurrentStatus)
	assert.True(t, s.CurrentStatus.IsTerminal())
	assert.Empty(t, AvailableTransitions(s.CurrentStatus, false))
}
