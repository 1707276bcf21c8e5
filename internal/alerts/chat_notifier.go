package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Compile-time interface guard.
var _ Notifier = (*ChatNotifier)(nil)

type chatPayload struct {
	Channel     string           `json:"channel,omitempty"`
	Username    string           `json:"username,omitempty"`
	Attachments []chatAttachment `json:"attachments"`
}

type chatAttachment struct {
	Color  string      `json:"color"`
	Title  string      `json:"title"`
	Text   string      `json:"text"`
	Fields []chatField `json:"fields,omitempty"`
	Footer string      `json:"footer"`
	TS     int64       `json:"ts"`
}

type chatField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// ChatNotifier posts a color-coded attachment to a Slack-compatible
// incoming webhook.
type ChatNotifier struct {
	client *http.Client
	cfg    ChatConfig
}

// NewChatNotifier creates a chat notifier.
func NewChatNotifier(cfg ChatConfig) *ChatNotifier {
	return &ChatNotifier{client: newHTTPClient(), cfg: cfg}
}

func (c *ChatNotifier) Name() string { return ChannelChat }

func (c *ChatNotifier) Configured() bool { return c.cfg.WebhookURL != "" }

func (c *ChatNotifier) Send(ctx context.Context, alert *models.Alert) error {
	body, err := json.Marshal(buildChatPayload(c.cfg, alert))
	if err != nil {
		return fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat POST: %w", err)
	}
	return drainAndCheck(resp, "chat webhook", func(code int) bool { return code == http.StatusOK })
}

func buildChatPayload(cfg ChatConfig, alert *models.Alert) chatPayload {
	keys := make([]string, 0, len(alert.Details))
	for k := range alert.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]chatField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, chatField{Title: k, Value: fmt.Sprint(alert.Details[k]), Short: true})
	}

	return chatPayload{
		Channel:  cfg.Channel,
		Username: cfg.Username,
		Attachments: []chatAttachment{{
			Color:  severityColor(alert.Severity),
			Title:  fmt.Sprintf("%s: %s", alert.Severity, alert.Title),
			Text:   alert.Message,
			Fields: fields,
			Footer: "QualityWatch Monitoring",
			TS:     alert.CreatedAt.Unix(),
		}},
	}
}
