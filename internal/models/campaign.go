package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign recipient filters
const (
	FilterAll           = "all"
	FilterActive        = "active"
	FilterCustomsBond   = "customs_bond"
	FilterDelayed       = "delayed"
	FilterInternational = "international"
)

// Campaign states
const (
	CampaignPending    = "PENDING"
	CampaignProcessing = "PROCESSING"
	CampaignCompleted  = "COMPLETED"
	CampaignFailed     = "FAILED"
)

// ValidCampaignFilter reports whether f is a known recipient filter.
func ValidCampaignFilter(f string) bool {
	switch f {
	case FilterAll, FilterActive, FilterCustomsBond, FilterDelayed, FilterInternational:
		return true
	}
	return false
}

// BulkEmailCampaign is expanded into outbox tasks by the campaign worker.
type BulkEmailCampaign struct {
	ID                   uuid.UUID  `json:"id"`
	CampaignName         string     `json:"campaign_name"`
	RecipientFilter      string     `json:"recipient_filter"`
	Subject              string     `json:"subject"`
	Message              string     `json:"message"`
	IncludeTrackingLinks bool       `json:"include_tracking_links"`
	RecipientCount       int        `json:"recipient_count"`
	SentBy               string     `json:"sent_by"`
	Status               string     `json:"status"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// BulkEmailRequest represents a bulk email send request
type BulkEmailRequest struct {
	CampaignName         string `json:"campaign_name"`
	RecipientFilter      string `json:"recipient_filter"`
	Subject              string `json:"subject"`
	Message              string `json:"message"`
	IncludeTrackingLinks bool   `json:"include_tracking_links"`
}
