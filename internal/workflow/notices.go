package workflow

import (
	"strings"
	"time"

	"eukexpress-backend/internal/models"
)

const (
	DateLayout     = "2006-01-02"
	ToBeDetermined = "To be determined"
	Processed      = "processed"
)

var emailTitles = map[models.EmailType]string{
	models.EmailCustomsBond:          "Customs Bond Held",
	models.EmailCustomsReleased:      "Customs Cleared",
	models.EmailSecurityHold:         "Security Hold",
	models.EmailSecurityCleared:      "Security Cleared",
	models.EmailDamageReport:         "Damage Reported",
	models.EmailDamageResolved:       "Damage Resolved",
	models.EmailReturnInitiated:      "Return Initiated",
	models.EmailDelayNotification:    "Delay Notification",
	models.EmailDeliveryConfirmation: "Delivery Confirmed",
}

// Subject returns the email subject line for a notice about tracking.
func Subject(t models.EmailType, tracking string) string {
	if t == models.EmailInvoice {
		return "Invoice for Shipment " + tracking
	}
	title, ok := emailTitles[t]
	if !ok {
		title = "Shipment Update"
	}
	return title + " - Shipment " + tracking
}

// statusNotices decides the emails for a status change. prev is nil at
// creation.
func statusNotices(s *models.Shipment, prev *models.ShipmentStatus, next models.ShipmentStatus, now time.Time) []Notice {
	changedFrom := func(st models.ShipmentStatus) bool { return prev == nil || *prev != st }

	switch {
	case next == models.StatusBooked && changedFrom(models.StatusBooked):
		return []Notice{*notice(s, models.EmailInvoice, true)}
	case next == models.StatusCustomsBond && changedFrom(models.StatusCustomsBond):
		return []Notice{*notice(s, models.EmailCustomsBond, false)}
	case next == models.StatusCustomsCleared:
		n := notice(s, models.EmailCustomsReleased, false)
		n.Duration = durationOrProcessed(FormatDuration(s.CustomsBondActivatedAt, nil, now))
		return []Notice{*n}
	case next == models.StatusDelivered:
		return []Notice{*notice(s, models.EmailDeliveryConfirmation, true)}
	case next == models.StatusReturnToSender && changedFrom(models.StatusReturnToSender):
		return []Notice{*notice(s, models.EmailReturnInitiated, true)}
	}
	return nil
}

func notice(s *models.Shipment, t models.EmailType, withSender bool) *Notice {
	return &Notice{EmailType: t, Recipients: Parties(s, withSender)}
}

// Parties lists who should receive a shipment email. The sender is dropped
// when it shares the recipient's address.
func Parties(s *models.Shipment, withSender bool) []models.RecipientType {
	out := []models.RecipientType{models.RecipientRecipient}
	if withSender && !SameAddress(s.SenderEmail, s.RecipientEmail) {
		out = append(out, models.RecipientSender)
	}
	return out
}

// SameAddress compares two email addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// AddressOf resolves a recipient type to the shipment's email address.
func AddressOf(s *models.Shipment, r models.RecipientType) string {
	if r == models.RecipientSender {
		return s.SenderEmail
	}
	return s.RecipientEmail
}

func durationOrProcessed(d *string) string {
	if d == nil {
		return Processed
	}
	return *d
}
