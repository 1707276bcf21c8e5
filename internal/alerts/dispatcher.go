package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/HerbHall/qualitywatch/internal/fanout"
	"github.com/HerbHall/qualitywatch/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// errRateLimited marks a delivery dropped by the per-channel limiter.
var errRateLimited = errors.New("channel rate limit exceeded")

// DeliveryResult is the outcome of one channel attempt.
type DeliveryResult struct {
	Channel   string `json:"channel"`
	Delivered bool   `json:"delivered"`
	Skipped   bool   `json:"skipped"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher fans an alert out to its routed channels concurrently. A
// failing channel never affects the others or the caller.
type Dispatcher struct {
	notifiers map[string]Notifier
	limiters  map[string]*rate.Limiter
	timeout   time.Duration
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher over notifiers. ratePerMinute caps
// deliveries per channel; zero means unlimited.
func NewDispatcher(notifiers []Notifier, ratePerMinute int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	d := &Dispatcher{
		notifiers: make(map[string]Notifier, len(notifiers)),
		limiters:  make(map[string]*rate.Limiter, len(notifiers)),
		timeout:   timeout,
		logger:    logger,
	}
	for _, n := range notifiers {
		d.notifiers[n.Name()] = n
		if ratePerMinute > 0 {
			d.limiters[n.Name()] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), ratePerMinute)
		}
	}
	return d
}

// Dispatch delivers alert to channels and waits for every attempt. Results
// are in channel order.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert, channels []string) []DeliveryResult {
	if len(channels) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := make([]DeliveryResult, len(channels))
	tasks := make([]fanout.Task[bool], len(channels))
	for i, ch := range channels {
		results[i].Channel = ch
		n, ok := d.notifiers[ch]
		if !ok || !n.Configured() {
			results[i].Skipped = true
			tasks[i] = func(context.Context) (bool, error) { return false, nil }
			continue
		}
		lim := d.limiters[ch]
		tasks[i] = func(ctx context.Context) (bool, error) {
			if lim != nil && !lim.Allow() {
				return false, errRateLimited
			}
			if err := n.Send(ctx, alert.Clone()); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	for i, res := range fanout.Join(ctx, tasks...) {
		ch := channels[i]
		switch {
		case results[i].Skipped:
			notificationsTotal.WithLabelValues(ch, "skipped").Inc()
		case res.Err != nil:
			results[i].Error = res.Err.Error()
			outcome := "failed"
			if errors.Is(res.Err, errRateLimited) {
				outcome = "rate_limited"
			}
			notificationsTotal.WithLabelValues(ch, outcome).Inc()
			d.logger.Warn("notification delivery failed",
				zap.String("channel", ch),
				zap.String("alert_id", alert.ID),
				zap.Error(res.Err),
			)
		default:
			results[i].Delivered = res.Value
			notificationsTotal.WithLabelValues(ch, "delivered").Inc()
			d.logger.Debug("notification delivered",
				zap.String("channel", ch),
				zap.String("alert_id", alert.ID),
			)
		}
	}
	return results
}

// Channels reports each known channel and whether it is configured.
func (d *Dispatcher) Channels() map[string]bool {
	out := make(map[string]bool, len(d.notifiers))
	for name, n := range d.notifiers {
		out[name] = n.Configured()
	}
	return out
}
