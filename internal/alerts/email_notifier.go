package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Compile-time interface guard.
var _ Notifier = (*EmailNotifier)(nil)

// EmailMessage is a provider-neutral email.
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// EmailProvider is one email delivery backend.
type EmailProvider interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailNotifier renders alerts as plain-text email and hands them to the
// configured provider.
type EmailNotifier struct {
	provider EmailProvider
	from     string
	to       []string
}

// NewEmailNotifier creates an email notifier using provider.
func NewEmailNotifier(cfg EmailConfig, provider EmailProvider) *EmailNotifier {
	to := make([]string, 0, len(cfg.To))
	for _, addr := range cfg.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &EmailNotifier{provider: provider, from: cfg.From, to: to}
}

func (e *EmailNotifier) Name() string { return ChannelEmail }

func (e *EmailNotifier) Configured() bool {
	return e.provider != nil && e.provider.Configured() && e.from != "" && len(e.to) > 0
}

func (e *EmailNotifier) Send(ctx context.Context, alert *models.Alert) error {
	msg := &EmailMessage{
		From:    e.from,
		To:      e.to,
		Subject: emailSubject(alert),
		Text:    emailBody(alert),
	}
	if err := e.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("email via %s: %w", e.provider.Name(), err)
	}
	return nil
}

func emailSubject(alert *models.Alert) string {
	return fmt.Sprintf("[QualityWatch %s] %s", alert.Severity, alert.Title)
}

func emailBody(alert *models.Alert) string {
	var b strings.Builder
	b.WriteString("QualityWatch Alert\n\n")
	fmt.Fprintf(&b, "Severity: %s\n", alert.Severity)
	fmt.Fprintf(&b, "Type: %s\n", alert.Type)
	fmt.Fprintf(&b, "Time: %s\n\n", alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	b.WriteString(alert.Message)
	b.WriteString("\n")
	if len(alert.Details) > 0 {
		details, err := json.MarshalIndent(alert.Details, "", "  ")
		if err == nil {
			b.WriteString("\nDetails:\n")
			b.Write(details)
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nAlert ID: %s\n", alert.ID)
	return b.String()
}

// NewEmailProvider builds the provider named in cfg.Provider.
func NewEmailProvider(ctx context.Context, cfg EmailConfig) (EmailProvider, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPProvider(cfg.SMTP), nil
	case "ses":
		return NewSESProvider(ctx, cfg.SES)
	case "resend":
		return NewResendProvider(cfg.Resend), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
