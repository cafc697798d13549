package email

import (
	"context"

	"eukexpress-backend/internal/config"
	"go.uber.org/zap"
)

// Attachment is a file sent along with an email
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a fully rendered email
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Provider delivers rendered emails. Send returns the provider's message id.
type Provider interface {
	Send(ctx context.Context, msg *Message) (string, error)
	Name() string
}

// NewProvider picks the provider named in cfg.Email.Provider
func NewProvider(cfg *config.Config, logger *zap.Logger) Provider {
	if cfg.Email.Provider == "resend" {
		return NewResendProvider(cfg.Email.ResendAPIKey, cfg.Email.APIURL, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	return NewMockProvider(logger)
}
