package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound                   = errors.New("not found")
	ErrInvalidTransition          = errors.New("invalid status transition")
	ErrInvalidAction              = errors.New("invalid intervention action")
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")
	ErrDuplicateTrackingCode      = errors.New("could not generate a unique tracking code")
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrTOTPRequired               = errors.New("two-factor code required")
	ErrValidation                 = errors.New("validation failed")
	ErrRateLimited                = errors.New("too many attempts")
)

// InvalidTransitionError describes a rejected status change.
type InvalidTransitionError struct {
	From    ShipmentStatus
	To      ShipmentStatus
	Allowed []ShipmentStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("cannot transition from %s to %s (allowed: %s)", e.From, e.To, strings.Join(allowed, ", "))
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError collects per-field problems from a request.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a problem for field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = msg
}

// OrNil returns nil when no field problems were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		parts = append(parts, f+": "+m)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
