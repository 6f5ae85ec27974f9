package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>")

// Subject returns the notification subject for a lead category.
func Subject(category leads.Category, name string) string {
	name = strings.Join(strings.Fields(name), " ")
	switch category {
	case leads.CategoryContact:
		return "Nouveau message de contact - " + name
	case leads.CategoryValuation:
		return "Demande d'analyse foncière - " + name
	case leads.CategoryBrochure:
		return "Demande de brochure - " + name
	default:
		return "Nouvelle demande - " + name
	}
}

// CategoryLabel returns the heading shown in the notification body.
func CategoryLabel(category leads.Category) string {
	switch category {
	case leads.CategoryContact:
		return "Message de contact"
	case leads.CategoryValuation:
		return "Demande d'analyse foncière"
	case leads.CategoryBrochure:
		return "Demande de brochure"
	default:
		return "Nouvelle demande"
	}
}

// RenderHTML builds the notification body from an already escaped request.
// Optional fields are rendered only when present.
func RenderHTML(req leads.CreateLeadRequest) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(`<div style="background-color: #1a1a1a; padding: 20px; text-align: center;">`)
	b.WriteString(`<h1 style="color: #ffffff; margin: 0; font-size: 24px;">Trois Dimensions</h1></div>`)
	b.WriteString(`<div style="background-color: #f9f9f9; padding: 30px; border: 1px solid #e0e0e0;">`)
	fmt.Fprintf(&b, `<h2 style="color: #1a1a1a; margin-top: 0;">%s</h2>`, CategoryLabel(req.Category))
	b.WriteString(`<table style="width: 100%; border-collapse: collapse;">`)
	writeRow(&b, "Nom", req.Name)
	writeRow(&b, "Email", fmt.Sprintf(`<a href="mailto:%s" style="color: #2d5a27;">%s</a>`, req.Email, req.Email))
	if req.Phone != nil {
		writeRow(&b, "Téléphone", fmt.Sprintf(`<a href="tel:%s" style="color: #2d5a27;">%s</a>`, *req.Phone, *req.Phone))
	}
	if req.ProjectType != nil {
		writeRow(&b, "Type de projet", *req.ProjectType)
	}
	if req.Address != nil {
		writeRow(&b, "Adresse du bien", *req.Address)
	}
	if req.ProjectTitle != nil {
		writeRow(&b, "Projet", *req.ProjectTitle)
	}
	b.WriteString(`</table>`)
	if req.Message != nil {
		b.WriteString(`<div style="margin-top: 20px;"><p style="font-weight: bold; margin-bottom: 10px;">Message :</p>`)
		fmt.Fprintf(&b, `<div style="background-color: #ffffff; padding: 15px; border: 1px solid #e0e0e0; border-radius: 4px;">%s</div></div>`,
			lineBreaks.Replace(*req.Message))
	}
	b.WriteString(`</div>`)
	b.WriteString(`<div style="background-color: #1a1a1a; padding: 15px; text-align: center;">`)
	b.WriteString(`<p style="color: #888888; margin: 0; font-size: 12px;">Cet email a été envoyé automatiquement depuis le site trois-dimensions.ch</p>`)
	b.WriteString(`</div></div>`)
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, `<tr><td style="padding: 10px 0; border-bottom: 1px solid #e0e0e0; font-weight: bold; width: 140px;">%s</td><td style="padding: 10px 0; border-bottom: 1px solid #e0e0e0;">%s</td></tr>`, label, value)
}

// LeadNotifier sends the internal notification for a new lead.
type LeadNotifier struct {
	sender    EmailSender
	recipient string
	logger    *logging.Logger
}

// NewLeadNotifier wires a sender to the fixed internal recipient.
func NewLeadNotifier(sender EmailSender, recipient string, logger *logging.Logger) *LeadNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadNotifier{sender: sender, recipient: recipient, logger: logger}
}

// Notify sends one notification for the validated lead and returns the
// provider message id. The escaped view feeds the HTML body; the raw email is
// used as the reply-to address.
func (n *LeadNotifier) Notify(ctx context.Context, lead *leads.Validated) (string, error) {
	if n == nil || n.sender == nil {
		return "", ErrSenderNotConfigured
	}
	if lead == nil {
		return "", fmt.Errorf("notify: nil lead")
	}
	if n.recipient == "" {
		return "", fmt.Errorf("notify: recipient not configured")
	}

	msg := EmailMessage{
		To:      n.recipient,
		ReplyTo: lead.Record.Email,
		Subject: Subject(lead.Record.Category, lead.Record.Name),
		HTML:    RenderHTML(lead.Escaped),
	}
	id, err := n.sender.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	n.logger.Debug("lead notification sent", "category", lead.Record.Category, "message_id", id)
	return id, nil
}
