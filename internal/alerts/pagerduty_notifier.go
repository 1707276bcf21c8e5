package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Compile-time interface guard.
var _ Notifier = (*PagerDutyNotifier)(nil)

type pagerDutyIncident struct {
	Incident pagerDutyIncidentBody `json:"incident"`
}

type pagerDutyIncidentBody struct {
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Service     pagerDutyRef     `json:"service"`
	Body        pagerDutyDetails `json:"body"`
	Urgency     string           `json:"urgency"`
	IncidentKey string           `json:"incident_key,omitempty"`
}

type pagerDutyRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type pagerDutyDetails struct {
	Type    string `json:"type"`
	Details string `json:"details"`
}

// PagerDutyNotifier opens a PagerDuty incident through the REST API. Only
// CRITICAL alerts page; anything lower is dropped without error.
type PagerDutyNotifier struct {
	client *http.Client
	cfg    PagerDutyConfig
}

// NewPagerDutyNotifier creates a PagerDuty notifier.
func NewPagerDutyNotifier(cfg PagerDutyConfig) *PagerDutyNotifier {
	return &PagerDutyNotifier{client: newHTTPClient(), cfg: cfg}
}

func (p *PagerDutyNotifier) Name() string { return ChannelPagerDuty }

func (p *PagerDutyNotifier) Configured() bool {
	return p.cfg.APIKey != "" && p.cfg.ServiceID != "" && p.cfg.APIURL != ""
}

func (p *PagerDutyNotifier) Send(ctx context.Context, alert *models.Alert) error {
	if alert.Severity != models.SeverityCritical {
		return nil
	}

	body, err := json.Marshal(pagerDutyIncident{Incident: pagerDutyIncidentBody{
		Type:        "incident",
		Title:       alert.Title,
		Service:     pagerDutyRef{ID: p.cfg.ServiceID, Type: "service_reference"},
		Body:        pagerDutyDetails{Type: "incident_body", Details: alert.Message},
		Urgency:     "high",
		IncidentKey: alert.ID,
	}})
	if err != nil {
		return fmt.Errorf("marshal pagerduty payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create pagerduty request: %w", err)
	}
	req.Header.Set("Authorization", "Token token="+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.pagerduty+json;version=2")
	req.Header.Set("User-Agent", userAgent)
	if p.cfg.FromEmail != "" {
		req.Header.Set("From", p.cfg.FromEmail)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pagerduty POST: %w", err)
	}
	return drainAndCheck(resp, p.cfg.APIURL, func(code int) bool { return code == http.StatusCreated })
}
