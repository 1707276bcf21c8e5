package alerts

import (
	"fmt"
	"sort"
	"sync"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// Channel names. The set is closed: routing tables may only name these.
const (
	ChannelPagerDuty = "pagerduty"
	ChannelChat      = "chat"
	ChannelEmail     = "email"
	ChannelWebhook   = "webhook"
)

var knownChannels = map[string]bool{
	ChannelPagerDuty: true,
	ChannelChat:      true,
	ChannelEmail:     true,
	ChannelWebhook:   true,
}

// RouteTable maps each severity to the channels that must attempt delivery.
type RouteTable map[models.Severity][]string

// DefaultRoutes returns the built-in routing table.
func DefaultRoutes() RouteTable {
	return RouteTable{
		models.SeverityCritical: {ChannelPagerDuty, ChannelChat, ChannelEmail},
		models.SeverityHigh:     {ChannelChat, ChannelEmail},
		models.SeverityMedium:   {ChannelChat},
		models.SeverityLow:      {ChannelWebhook},
	}
}

// ParseRoutes builds a table from config keyed by severity name. Severities
// missing from cfg keep their default route.
func ParseRoutes(cfg map[string][]string) (RouteTable, error) {
	table := DefaultRoutes()
	for name, channels := range cfg {
		sev, err := models.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("routes: %w", err)
		}
		seen := make(map[string]bool, len(channels))
		out := make([]string, 0, len(channels))
		for _, ch := range channels {
			if !knownChannels[ch] {
				return nil, fmt.Errorf("routes: %s: unknown channel %q", sev, ch)
			}
			if !seen[ch] {
				seen[ch] = true
				out = append(out, ch)
			}
		}
		table[sev] = out
	}
	return table, nil
}

// Router looks up the channel set for a severity. The table can be swapped
// at runtime when configuration reloads.
type Router struct {
	mu    sync.RWMutex
	table RouteTable
}

// NewRouter creates a router over table. A nil table uses DefaultRoutes.
func NewRouter(table RouteTable) *Router {
	if table == nil {
		table = DefaultRoutes()
	}
	return &Router{table: table}
}

// Route returns a copy of the channel list for sev.
func (r *Router) Route(sev models.Severity) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chs := r.table[sev]
	out := make([]string, len(chs))
	copy(out, chs)
	return out
}

// Replace swaps in a new table.
func (r *Router) Replace(table RouteTable) {
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
}

// Table returns the current table keyed by severity name.
func (r *Router) Table() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.table))
	for sev, chs := range r.table {
		c := make([]string, len(chs))
		copy(c, chs)
		sort.Strings(c)
		out[sev.String()] = c
	}
	return out
}
