package notify

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/trois-dimensions/site-backend/pkg/logging"
)

const (
	// ProviderAuto tries SendGrid first, then SES.
	ProviderAuto = "auto"
	// ProviderSendGrid forces the SendGrid sender when an API key exists.
	ProviderSendGrid = "sendgrid"
	// ProviderSES forces the SES sender when an AWS client exists.
	ProviderSES = "ses"
	// ProviderStub logs instead of sending. Local development only.
	ProviderStub = "stub"
)

// ProviderSelectionConfig captures what is needed to build an email sender.
type ProviderSelectionConfig struct {
	Preference     string
	SendGridAPIKey string
	SendGridHost   string
	SESClient      *sesv2.Client
	FromEmail      string
	FromName       string
}

// BuildEmailSender instantiates an EmailSender for the preferred provider.
// It returns the sender, the provider that was selected, and a reason when no
// provider could be initialized.
func BuildEmailSender(cfg ProviderSelectionConfig, logger *logging.Logger) (EmailSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = ProviderAuto
	}

	missing := map[string]string{}
	var sendgridSender EmailSender
	var sesSender EmailSender

	if s := NewSendGridSender(SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		Host:      cfg.SendGridHost,
	}, logger); s != nil {
		sendgridSender = s
	} else {
		missing[ProviderSendGrid] = "SENDGRID_API_KEY missing"
	}

	if s := NewSESSender(cfg.SESClient, SESConfig{FromEmail: cfg.FromEmail, FromName: cfg.FromName}, logger); s != nil {
		sesSender = s
	} else {
		missing[ProviderSES] = "AWS credentials missing"
	}

	switch preference {
	case ProviderStub:
		return NewStubEmailSender(logger), ProviderStub, ""
	case ProviderSendGrid:
		if sendgridSender != nil {
			return sendgridSender, ProviderSendGrid, ""
		}
		return nil, "", missing[ProviderSendGrid]
	case ProviderSES:
		if sesSender != nil {
			return sesSender, ProviderSES, ""
		}
		return nil, "", missing[ProviderSES]
	case ProviderAuto:
	default:
		return nil, "", fmt.Sprintf("unknown email provider %q", preference)
	}

	if sendgridSender != nil {
		return sendgridSender, ProviderSendGrid, ""
	}
	if sesSender != nil {
		return sesSender, ProviderSES, ""
	}
	return nil, "", fmt.Sprintf("%s: %s; %s: %s", ProviderSendGrid, missing[ProviderSendGrid], ProviderSES, missing[ProviderSES])
}
