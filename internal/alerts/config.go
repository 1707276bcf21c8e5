package alerts

import "time"

// AlertsConfig is the alerts module configuration (plugins.alerts).
type AlertsConfig struct {
	DedupWindow        time.Duration         `mapstructure:"dedup_window"`
	RetentionPeriod    time.Duration         `mapstructure:"retention_period"`
	RetentionInterval  time.Duration         `mapstructure:"retention_interval"`
	EscalationInterval time.Duration         `mapstructure:"escalation_interval"`
	DispatchTimeout    time.Duration         `mapstructure:"dispatch_timeout"`
	Rules              map[string]RuleConfig `mapstructure:"rules"`
	Routes             map[string][]string   `mapstructure:"routes"`
	Channels           ChannelsConfig        `mapstructure:"channels"`
}

// RuleConfig is the config form of AlertRule.
type RuleConfig struct {
	Cooldown    time.Duration `mapstructure:"cooldown"`
	Escalation  time.Duration `mapstructure:"escalation"`
	AutoResolve bool          `mapstructure:"auto_resolve"`
}

// ChannelsConfig configures every notification channel. A channel with no
// endpoint configured silently does nothing.
type ChannelsConfig struct {
	PagerDuty PagerDutyConfig `mapstructure:"pagerduty"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Email     EmailConfig     `mapstructure:"email"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	// RatePerMinute caps deliveries per channel. Zero disables the cap.
	RatePerMinute int `mapstructure:"rate_per_minute"`
}

// PagerDutyConfig configures the PagerDuty incidents channel.
type PagerDutyConfig struct {
	APIURL    string `mapstructure:"api_url"`
	APIKey    string `mapstructure:"api_key"` //nolint:gosec // G101: config field name, not a credential
	ServiceID string `mapstructure:"service_id"`
	FromEmail string `mapstructure:"from_email"`
}

// ChatConfig configures the Slack-compatible incoming webhook channel.
type ChatConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
	Username   string `mapstructure:"username"`
}

// EmailConfig configures the email channel and its delivery provider.
type EmailConfig struct {
	Provider string       `mapstructure:"provider"` // "smtp", "ses", "resend"
	From     string       `mapstructure:"from"`
	To       []string     `mapstructure:"to"`
	SMTP     SMTPConfig   `mapstructure:"smtp"`
	SES      SESConfig    `mapstructure:"ses"`
	Resend   ResendConfig `mapstructure:"resend"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"` //nolint:gosec // G101: config field name, not a credential
}

// SESConfig holds AWS SES settings. Credentials come from the default AWS chain.
type SESConfig struct {
	Region string `mapstructure:"region"`
}

// ResendConfig holds Resend API settings.
type ResendConfig struct {
	APIKey string `mapstructure:"api_key"` //nolint:gosec // G101: config field name, not a credential
}

// WebhookConfig configures the generic webhook channel.
type WebhookConfig struct {
	URLs    []string          `mapstructure:"urls"`
	Secret  string            `mapstructure:"secret"` //nolint:gosec // G101: config field name, not a credential
	Headers map[string]string `mapstructure:"headers"`
	// Format is "json" (default) or "alertmanager".
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the alerts configuration used when nothing is set.
func DefaultConfig() AlertsConfig {
	return AlertsConfig{
		DedupWindow:        300 * time.Second,
		RetentionPeriod:    30 * 24 * time.Hour,
		RetentionInterval:  24 * time.Hour,
		EscalationInterval: time.Minute,
		DispatchTimeout:    15 * time.Second,
		Channels: ChannelsConfig{
			PagerDuty: PagerDutyConfig{APIURL: "https://api.pagerduty.com/incidents"},
			Chat:      ChatConfig{Channel: "#qualitywatch-alerts", Username: "QualityWatch"},
			Email: EmailConfig{
				Provider: "smtp",
				SMTP:     SMTPConfig{Host: "smtp.gmail.com", Port: 587},
				SES:      SESConfig{Region: "us-east-1"},
			},
			Webhook: WebhookConfig{Format: "json"},
		},
	}
}
