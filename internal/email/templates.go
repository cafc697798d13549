package email

import (
	"bytes"
	"fmt"
	"html/template"

	"eukexpress-backend/internal/models"
)

// TemplateData is everything a shipment email can refer to
type TemplateData struct {
	Tracking          string
	InvoiceNumber     string
	RecipientName     string
	SenderName        string
	Origin            string
	Destination       string
	Status            string
	Location          string
	EstimatedDelivery string
	Amount            string
	TrackingURL       string
	Duration          string
	Reason            string
	RevisedETA        string
	Subject           string
	Message           string
	IncludeLink       bool
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:600px;margin:0 auto">
<div style="background:#0b3d91;color:#fff;padding:16px 24px"><h2 style="margin:0">EukExpress</h2></div>
<div style="padding:24px">
{{template "body" .}}
{{if .TrackingURL}}<p><a href="{{.TrackingURL}}" style="background:#0b3d91;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Track shipment {{.Tracking}}</a></p>{{end}}
</div>
<div style="padding:16px 24px;font-size:12px;color:#6b7280">EukExpress Logistics. This is an automated message.</div>
</body></html>{{end}}`

var bodies = map[models.EmailType]string{
	models.EmailInvoice: `<p>Dear {{.RecipientName}},</p>
<p>A shipment from <strong>{{.SenderName}}</strong> has been booked for you.</p>
<table cellpadding="4">
<tr><td>Tracking number</td><td><strong>{{.Tracking}}</strong></td></tr>
<tr><td>Invoice</td><td>{{.InvoiceNumber}}</td></tr>
<tr><td>Route</td><td>{{.Origin}} → {{.Destination}}</td></tr>
<tr><td>Estimated delivery</td><td>{{.EstimatedDelivery}}</td></tr>
<tr><td>Amount</td><td>{{.Amount}}</td></tr>
</table>
<p>The invoice is attached to this email.</p>`,
	models.EmailCustomsBond: `<p>Dear {{.RecipientName}},</p>
<p>Shipment <strong>{{.Tracking}}</strong> is being held by customs{{if .Location}} at {{.Location}}{{end}}. We are working to clear it and will update you as soon as it is released.</p>`,
	models.EmailCustomsReleased: `<p>Dear {{.RecipientName}},</p>
<p>Shipment <strong>{{.Tracking}}</strong> has cleared customs{{if .Duration}} after {{.Duration}}{{end}} and is continuing to {{.Destination}}.</p>`,
	models.EmailSecurityHold: `<p>Dear {{.RecipientName}},</p>
<p>Shipment <strong>{{.Tracking}}</strong> has been placed on a routine security hold. No action is needed from you at this time.</p>`,
	models.EmailSecurityCleared: `<p>Dear {{.RecipientName}},</p>
<p>The security hold on shipment <strong>{{.Tracking}}</strong> has been cleared.</p>`,
	models.EmailDamageReport: `<p>Dear Customer,</p>
<p>We regret to inform you that damage has been reported on shipment <strong>{{.Tracking}}</strong>. Our team is assessing it and will contact you with next steps.</p>`,
	models.EmailDamageResolved: `<p>Dear {{.RecipientName}},</p>
<p>The damage report for shipment <strong>{{.Tracking}}</strong> has been resolved.</p>`,
	models.EmailReturnInitiated: `<p>Dear Customer,</p>
<p>Shipment <strong>{{.Tracking}}</strong> is being returned to the sender{{if .Reason}}. Reason: {{.Reason}}{{end}}.</p>`,
	models.EmailDelayNotification: `<p>Dear {{.RecipientName}},</p>
<p>Shipment <strong>{{.Tracking}}</strong> has been delayed{{if .Reason}} due to {{.Reason}}{{end}}.</p>
<p>Revised delivery estimate: <strong>{{.RevisedETA}}</strong></p>`,
	models.EmailDeliveryConfirmation: `<p>Dear Customer,</p>
<p>Shipment <strong>{{.Tracking}}</strong> has been delivered to {{.Destination}}. Thank you for shipping with EukExpress.</p>`,
	models.EmailCustomMessage: `<p>{{.Message}}</p>
{{if .Tracking}}<p>Reference: shipment <strong>{{.Tracking}}</strong></p>{{end}}`,
	models.EmailBulk: `<p>{{.Message}}</p>
{{if .Tracking}}<p>Shipment <strong>{{.Tracking}}</strong> is currently: {{.Status}}</p>{{end}}`,
}

// Renderer turns TemplateData into HTML bodies
type Renderer struct {
	templates map[models.EmailType]*template.Template
}

// NewRenderer parses every template once
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[models.EmailType]*template.Template, len(bodies))}
	for t, body := range bodies {
		tpl, err := template.New(string(t)).Parse(layout)
		if err != nil {
			return nil, err
		}
		if _, err := tpl.New("body").Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", t, err)
		}
		r.templates[t] = tpl
	}
	return r, nil
}

// Render executes the template for t
func (r *Renderer) Render(t models.EmailType, data *TemplateData) (string, error) {
	tpl, ok := r.templates[t]
	if !ok {
		return "", fmt.Errorf("no email template for %q", t)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t, err)
	}
	return buf.String(), nil
}
