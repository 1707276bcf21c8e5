package alerts

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// resendAPI is the slice of the Resend emails service the provider uses.
type resendAPI interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider sends mail through the Resend HTTP API.
type ResendProvider struct {
	emails resendAPI
}

// NewResendProvider creates a Resend provider. Without an API key the
// provider reports itself unconfigured.
func NewResendProvider(cfg ResendConfig) *ResendProvider {
	if cfg.APIKey == "" {
		return &ResendProvider{}
	}
	return &ResendProvider{emails: resend.NewClient(cfg.APIKey).Emails}
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) Configured() bool { return p.emails != nil }

func (p *ResendProvider) Send(ctx context.Context, msg *EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := p.emails.Send(&resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return fmt.Errorf("resend send: empty response")
	}
	return nil
}
