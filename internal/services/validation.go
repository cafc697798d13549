package services

import (
	"regexp"
	"strings"
	"time"

	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+\d\s\-()]{5,20}$`)
)

// ValidEmail reports whether addr is a plausible email address
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(strings.TrimSpace(addr))
}

// ValidPhone allows digits, spaces, +, - and parentheses
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

type shipmentDates struct {
	sending time.Time
	eta     time.Time
}

// validateCreate checks a booking request and returns its parsed dates
func validateCreate(req *models.CreateShipmentRequest) (*shipmentDates, error) {
	v := models.NewValidationError()
	required := map[string]string{
		"sender_name":          req.SenderName,
		"sender_address":       req.SenderAddress,
		"recipient_name":       req.RecipientName,
		"recipient_address":    req.RecipientAddress,
		"origin_location":      req.OriginLocation,
		"destination_location": req.DestinationLocation,
		"goods_description":    req.GoodsDescription,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			v.Add(field, "is required")
		}
	}

	if !ValidEmail(req.SenderEmail) {
		v.Add("sender_email", "invalid email address")
	}
	if !ValidEmail(req.RecipientEmail) {
		v.Add("recipient_email", "invalid email address")
	}
	if !ValidPhone(req.SenderPhone) {
		v.Add("sender_phone", "invalid phone number")
	}
	if !ValidPhone(req.RecipientPhone) {
		v.Add("recipient_phone", "invalid phone number")
	}

	if req.WeightKg <= 0 {
		v.Add("weight_kg", "must be positive")
	}
	if req.ShippingAmount <= 0 {
		v.Add("shipping_amount", "must be positive")
	}
	if req.DeclaredValue < 0 {
		v.Add("declared_value", "must not be negative")
	}
	if d := req.Dimensions; d != nil && (d.Length <= 0 || d.Width <= 0 || d.Height <= 0) {
		v.Add("dimensions", "length, width and height must be positive")
	}
	switch req.PaymentStatus {
	case "", models.PaymentPending, models.PaymentPaid, models.PaymentFailed:
	default:
		v.Add("payment_status", "must be PENDING, PAID or FAILED")
	}

	dates := &shipmentDates{}
	var err error
	if dates.sending, err = timeutil.ParseDate(req.SendingDate); err != nil {
		v.Add("sending_date", "must be YYYY-MM-DD")
	}
	if dates.eta, err = timeutil.ParseDate(req.EstimatedDelivery); err != nil {
		v.Add("estimated_delivery_date", "must be YYYY-MM-DD")
	} else if !dates.sending.IsZero() && dates.eta.Before(dates.sending) {
		v.Add("estimated_delivery_date", "must not be before the sending date")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return dates, nil
}

func validateImages(front, rear *models.ImageUpload) error {
	v := models.NewValidationError()
	if front != nil {
		if err := ValidateImage(front); err != nil {
			v.Add("front_image", err.Error())
		}
	}
	if rear != nil {
		if err := ValidateImage(rear); err != nil {
			v.Add("rear_image", err.Error())
		}
	}
	if front != nil && rear != nil && len(v.Fields) == 0 && ImageHash(front.Data) == ImageHash(rear.Data) {
		v.Add("rear_image", "front and rear images are identical")
	}
	return v.OrNil()
}
