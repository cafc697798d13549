package workflow

import (
	"time"

	"eukexpress-backend/internal/models"
)

type ruleKey struct {
	t models.InterventionType
	a models.InterventionAction
}

// rule describes one (type, action) pair. apply runs only for a
// non-redundant toggle, after the flag has been set to sets.
type rule struct {
	flag   func(*models.Shipment) *bool
	sets   bool
	status models.ShipmentStatus
	note   string
	apply  func(s *models.Shipment, m models.InterventionMeta, now time.Time, out *Outcome) *Notice
}

func customsFlag(s *models.Shipment) *bool  { return &s.CustomsBondActive }
func securityFlag(s *models.Shipment) *bool { return &s.SecurityHoldActive }
func damageFlag(s *models.Shipment) *bool   { return &s.DamageReported }
func returnFlag(s *models.Shipment) *bool   { return &s.ReturnActive }
func delayFlag(s *models.Shipment) *bool    { return &s.DelayActive }

var rules = map[ruleKey]rule{
	{models.InterventionCustoms, models.ActionActivate}: {
		flag: customsFlag, sets: true, status: models.StatusCustomsBond,
		note: "Customs bond activated",
		apply: func(s *models.Shipment, m models.InterventionMeta, now time.Time, _ *Outcome) *Notice {
			s.CustomsBondActivatedAt = timePtr(now)
			s.CustomsBondReleasedAt = nil
			s.CustomsBondLocation = m.Location
			s.CustomsBondReference = m.Reference
			s.CustomsBondNotes = m.Notes
			return notice(s, models.EmailCustomsBond, false)
		},
	},
	{models.InterventionCustoms, models.ActionRelease}: {
		flag: customsFlag, sets: false, status: models.StatusCustomsCleared,
		note: "Customs bond released",
		apply: func(s *models.Shipment, _ models.InterventionMeta, now time.Time, out *Outcome) *Notice {
			s.CustomsBondReleasedAt = timePtr(now)
			out.Duration = FormatDuration(s.CustomsBondActivatedAt, s.CustomsBondReleasedAt, now)
			n := notice(s, models.EmailCustomsReleased, false)
			n.Duration = durationOrProcessed(out.Duration)
			return n
		},
	},
	{models.InterventionSecurity, models.ActionActivate}: {
		flag: securityFlag, sets: true, status: models.StatusSecurityHold,
		note: "Security hold activated",
		apply: func(s *models.Shipment, m models.InterventionMeta, now time.Time, _ *Outcome) *Notice {
			s.SecurityHoldActivatedAt = timePtr(now)
			s.SecurityHoldClearedAt = nil
			s.SecurityHoldLocation = m.Location
			s.SecurityHoldReference = m.Reference
			s.SecurityHoldNotes = m.Notes
			return notice(s, models.EmailSecurityHold, false)
		},
	},
	{models.InterventionSecurity, models.ActionClear}: {
		flag: securityFlag, sets: false, status: models.StatusSecurityCleared,
		note: "Security hold cleared",
		apply: func(s *models.Shipment, _ models.InterventionMeta, now time.Time, out *Outcome) *Notice {
			s.SecurityHoldClearedAt = timePtr(now)
			out.Duration = FormatDuration(s.SecurityHoldActivatedAt, s.SecurityHoldClearedAt, now)
			return notice(s, models.EmailSecurityCleared, false)
		},
	},
	{models.InterventionDamage, models.ActionReport}: {
		flag: damageFlag, sets: true, status: models.StatusDamageReported,
		note: "Damage reported",
		apply: func(s *models.Shipment, m models.InterventionMeta, now time.Time, _ *Outcome) *Notice {
			s.DamageReportedAt = timePtr(now)
			s.DamageResolvedAt = nil
			s.DamageDescription = m.Description
			return notice(s, models.EmailDamageReport, true)
		},
	},
	{models.InterventionDamage, models.ActionResolve}: {
		flag: damageFlag, sets: false, status: models.StatusDamageResolved,
		note: "Damage resolved",
		apply: func(s *models.Shipment, m models.InterventionMeta, now time.Time, _ *Outcome) *Notice {
			s.DamageResolvedAt = timePtr(now)
			s.DamageResolutionNotes = m.ResolutionNotes
			return notice(s, models.EmailDamageResolved, false)
		},
	},
	{models.InterventionReturn, models.ActionInitiate}: {
		flag: returnFlag, sets: true, status: models.StatusReturnToSender,
		note: "Return to sender initiated",
		apply: func(s *models.Shipment, m models.InterventionMeta, now time.Time, _ *Outcome) *Notice {
			s.ReturnInitiatedAt = timePtr(now)
			s.ReturnReason = m.Reason
			n := notice(s, models.EmailReturnInitiated, true)
			n.Reason = m.Reason
			return n
		},
	},
	{models.InterventionDelay, models.ActionReport}: {
		flag: delayFlag, sets: true, status: models.StatusTransitException,
		note: "Delay reported",
		apply: func(s *models.Shipment, m models.InterventionMeta, now time.Time, _ *Outcome) *Notice {
			s.DelayReportedAt = timePtr(now)
			s.DelayResolvedAt = nil
			s.DelayReason = m.Reason
			s.DelayNotes = m.Notes
			eta := s.EstimatedDeliveryDate
			s.OriginalETA = &eta
			if m.RevisedETA != nil {
				r := *m.RevisedETA
				s.RevisedETA = &r
			}
			n := notice(s, models.EmailDelayNotification, false)
			n.Reason = m.Reason
			n.RevisedETA = ToBeDetermined
			if m.RevisedETA != nil {
				n.RevisedETA = m.RevisedETA.Format(DateLayout)
			}
			return n
		},
	},
	{models.InterventionDelay, models.ActionResolve}: {
		flag: delayFlag, sets: false,
		apply: func(s *models.Shipment, _ models.InterventionMeta, now time.Time, out *Outcome) *Notice {
			s.DelayResolvedAt = timePtr(now)
			out.Duration = FormatDuration(s.DelayReportedAt, s.DelayResolvedAt, now)
			return nil
		},
	},
}

// ValidAction reports whether (t, a) is a known intervention pair.
func ValidAction(t models.InterventionType, a models.InterventionAction) bool {
	_, ok := rules[ruleKey{t, a}]
	return ok
}

func timePtr(t time.Time) *time.Time { return &t }
