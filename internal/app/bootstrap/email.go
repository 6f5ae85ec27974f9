package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/internal/notify"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// BuildLeadNotifier wires the configured email provider to the business
// recipient. When no provider can be built the returned error wraps
// notify.ErrSenderNotConfigured; the notifier is still usable but every
// Notify call fails.
func BuildLeadNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*notify.LeadNotifier, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewLeadNotifier(nil, "", logger), notify.ErrSenderNotConfigured
	}

	selection := notify.ProviderSelectionConfig{
		Preference:     cfg.EmailProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		SendGridHost:   cfg.SendGridHost,
		FromEmail:      cfg.EmailFromAddress,
		FromName:       cfg.EmailFromName,
	}
	if awsCfg != nil && sesWanted(cfg) {
		selection.SESClient = sesv2.NewFromConfig(*awsCfg)
	}

	sender, provider, reason := notify.BuildEmailSender(selection, logger)
	notifier := notify.NewLeadNotifier(sender, cfg.NotifyRecipient, logger)
	if sender == nil {
		return notifier, fmt.Errorf("%w: %s", notify.ErrSenderNotConfigured, reason)
	}
	logger.Info("email sender configured", "provider", provider, "recipient", cfg.NotifyRecipient)
	return notifier, nil
}

// sesWanted reports whether SES should be considered: when forced, or in
// auto mode when AWS credentials are present in the environment.
func sesWanted(cfg *appconfig.Config) bool {
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case notify.ProviderSES:
		return true
	case "", notify.ProviderAuto:
		return strings.TrimSpace(cfg.AWSAccessKeyID) != ""
	default:
		return false
	}
}
