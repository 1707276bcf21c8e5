package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Compile-time interface guard.
var _ Notifier = (*WebhookNotifier)(nil)

// webhookPayload is the JSON body sent in the default format.
type webhookPayload struct {
	EventType string        `json:"event_type"`
	Alert     *models.Alert `json:"alert"`
	Timestamp time.Time     `json:"timestamp"`
}

// alertmanagerPayload matches the Prometheus Alertmanager webhook receiver format.
type alertmanagerPayload struct {
	Version string              `json:"version"`
	Status  string              `json:"status"`
	Alerts  []alertmanagerAlert `json:"alerts"`
}

type alertmanagerAlert struct {
	Status      string            `json:"status"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
}

// WebhookNotifier POSTs alerts to every configured URL, optionally signed
// with HMAC-SHA256 in X-Signature.
type WebhookNotifier struct {
	client *http.Client
	cfg    WebhookConfig
	now    func() time.Time
}

// NewWebhookNotifier creates a webhook notifier. Blank URLs are ignored.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	urls := cfg.URLs[:0:0]
	for _, u := range cfg.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	cfg.URLs = urls
	return &WebhookNotifier{client: newHTTPClient(), cfg: cfg, now: time.Now}
}

func (w *WebhookNotifier) Name() string { return ChannelWebhook }

func (w *WebhookNotifier) Configured() bool { return len(w.cfg.URLs) > 0 }

// Send posts the alert to each URL. Every URL is attempted; failures are
// joined into the returned error.
func (w *WebhookNotifier) Send(ctx context.Context, alert *models.Alert) error {
	body, err := w.encode(alert)
	if err != nil {
		return err
	}

	var errs []error
	for _, url := range w.cfg.URLs {
		if err := w.post(ctx, url, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *WebhookNotifier) encode(alert *models.Alert) ([]byte, error) {
	var payload any
	switch w.cfg.Format {
	case "alertmanager":
		payload = toAlertmanager(alert)
	case "", "json":
		event := "triggered"
		if alert.Resolved {
			event = "resolved"
		}
		payload = webhookPayload{EventType: event, Alert: alert, Timestamp: w.now().UTC()}
	default:
		return nil, fmt.Errorf("webhook: unknown format %q", w.cfg.Format)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}
	return body, nil
}

func toAlertmanager(alert *models.Alert) alertmanagerPayload {
	status := "firing"
	am := alertmanagerAlert{
		Labels: map[string]string{
			"alertname": alert.Title,
			"alert_id":  alert.ID,
			"type":      alert.Type,
			"severity":  strings.ToLower(alert.Severity.String()),
			"source":    "qualitywatch",
		},
		Annotations: map[string]string{"summary": alert.Message},
		StartsAt:    alert.CreatedAt,
	}
	if alert.Resolved && alert.ResolvedAt != nil {
		status = "resolved"
		am.EndsAt = *alert.ResolvedAt
	}
	am.Status = status
	return alertmanagerPayload{Version: "4", Status: status, Alerts: []alertmanagerAlert{am}}
}

func (w *WebhookNotifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if w.cfg.Secret != "" {
		mac := hmac.New(sha256.New, []byte(w.cfg.Secret))
		mac.Write(body)
		req.Header.Set("X-Signature", hex.EncodeToString(mac.Sum(nil)))
	}
	for k, v := range w.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST %s: %w", url, err)
	}
	return drainAndCheck(resp, url, is2xx)
}
