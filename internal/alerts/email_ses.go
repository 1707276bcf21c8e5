package alerts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the slice of the SES v2 client the provider uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProvider sends mail with AWS SES v2. Credentials come from the default
// AWS chain (environment, shared config, instance role).
type SESProvider struct {
	client sesAPI
	region string
}

// NewSESProvider loads AWS configuration for cfg.Region.
func NewSESProvider(ctx context.Context, cfg SESConfig) (*SESProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESProvider{client: sesv2.NewFromConfig(awsCfg), region: cfg.Region}, nil
}

func (p *SESProvider) Name() string { return "ses" }

func (p *SESProvider) Configured() bool { return p.client != nil }

func (p *SESProvider) Send(ctx context.Context, msg *EmailMessage) error {
	_, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(msg.Text)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send (%s): %w", p.region, err)
	}
	return nil
}
