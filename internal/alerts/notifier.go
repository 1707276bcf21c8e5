package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

const userAgent = "QualityWatch-Notifier/0.1"

// Notifier delivers an alert through one channel. Delivery is best effort:
// the caller logs a returned error and moves on.
type Notifier interface {
	// Name returns the channel name used in routing tables.
	Name() string
	// Configured reports whether the channel has the settings it needs.
	// Unconfigured channels are skipped without error.
	Configured() bool
	// Send delivers the alert.
	Send(ctx context.Context, alert *models.Alert) error
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// drainAndCheck consumes the body for connection reuse and maps an
// unexpected status to an error.
func drainAndCheck(resp *http.Response, target string, ok func(int) bool) error {
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain body for connection reuse
	if !ok(resp.StatusCode) {
		return fmt.Errorf("POST %s: status %d", target, resp.StatusCode)
	}
	return nil
}

func is2xx(code int) bool { return code >= 200 && code < 300 }

func severityColor(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "#FF0000"
	case models.SeverityHigh:
		return "#FF9900"
	case models.SeverityMedium:
		return "#FFCC00"
	case models.SeverityLow:
		return "#00FF00"
	default:
		return "#808080"
	}
}
