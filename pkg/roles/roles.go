// Package roles defines typed contracts for plugin roles.
// Plugins that fill a role (declared via PluginInfo.Roles) implement the
// corresponding interface so callers can use PluginResolver.ResolveByRole
// followed by a type assertion.
package roles

import (
	"context"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Role name constants match the strings used in PluginInfo.Roles.
const (
	RoleAlertSink       = "alert_sink"
	RoleSignalCollector = "signal_collector"
	RoleLatencyProber   = "latency_prober"
	RoleUptimeSource    = "uptime_source"
	RoleQualitySource   = "quality_source"
)

// CreateResult reports what happened to an alert request.
type CreateResult struct {
	Alert        *models.Alert
	Deduplicated bool
}

// AlertSink turns alert requests into managed alerts.
type AlertSink interface {
	CreateAlert(ctx context.Context, req models.AlertRequest) (CreateResult, error)

	// AutoResolve resolves open alerts matching (type, title) when the
	// type's rule allows it. Returns how many alerts were resolved.
	AutoResolve(ctx context.Context, alertType, title string) int
}

// SignalCollector supplies the raw data the quality engine scores. Any call
// may fail with a transport error.
type SignalCollector interface {
	Sources() []string
	FetchFromSource(ctx context.Context, source string) (map[models.SeriesKey]models.Observation, error)
	ExpectedKeys(ctx context.Context) ([]models.SeriesKey, error)
	CurrentDataPoints(ctx context.Context) ([]models.DataPoint, error)
	RecentHistory(ctx context.Context, window time.Duration) ([]models.DataPoint, error)
}

// LatencyProber injects traceable probes into the pipeline and reports when
// they have been observed downstream.
type LatencyProber interface {
	InjectProbe(ctx context.Context) (string, error)
	ProbeObserved(ctx context.Context, id string) (bool, error)
}

// UptimeSource reports the fraction of recent health checks that passed.
type UptimeSource interface {
	UptimeRatio() float64
}

// QualitySource exposes the most recent quality snapshot.
type QualitySource interface {
	LatestSnapshot() (models.QualitySnapshot, bool)
}

// AlertStatisticsSource exposes lifecycle statistics.
type AlertStatisticsSource interface {
	Statistics() models.AlertStatistics
}
