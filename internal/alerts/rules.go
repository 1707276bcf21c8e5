package alerts

import (
	"encoding/json"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

// AlertRule is static per-type alert policy. Rules are loaded at startup
// and never change while the manager runs.
type AlertRule struct {
	// Cooldown is reported with the rule table only. Deduplication uses the
	// manager-wide dedup window for every type.
	Cooldown time.Duration
	// Escalation is how long an alert may stay open and unacknowledged
	// before its severity is raised. Zero disables escalation.
	Escalation time.Duration
	// AutoResolve lets producers resolve alerts once the condition clears.
	AutoResolve bool
}

// DefaultRules returns the built-in rule table.
func DefaultRules() map[string]AlertRule {
	return map[string]AlertRule{
		models.AlertTypeDataQuality:  {Cooldown: 300 * time.Second, Escalation: 1800 * time.Second, AutoResolve: true},
		models.AlertTypeYieldAnomaly: {Cooldown: 600 * time.Second, Escalation: 3600 * time.Second},
		"gas_spike":                  {Cooldown: 180 * time.Second, Escalation: 900 * time.Second, AutoResolve: true},
		"liquidity_crisis":           {Cooldown: 60 * time.Second, Escalation: 300 * time.Second},
		models.AlertTypeSystemError:  {Cooldown: 60 * time.Second, Escalation: 600 * time.Second},
	}
}

// mergeRules overlays configured rules on the defaults.
func mergeRules(cfg map[string]RuleConfig) map[string]AlertRule {
	rules := DefaultRules()
	for name, rc := range cfg {
		rules[name] = AlertRule(rc)
	}
	return rules
}

// MarshalJSON renders durations as whole seconds.
func (r AlertRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Cooldown    int64 `json:"cooldown_seconds"`
		Escalation  int64 `json:"escalation_seconds"`
		AutoResolve bool  `json:"auto_resolve"`
	}{int64(r.Cooldown.Seconds()), int64(r.Escalation.Seconds()), r.AutoResolve})
}
