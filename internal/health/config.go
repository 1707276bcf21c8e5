package health

import (
	"fmt"
	"time"
)

// Component types understood by the checker registry.
const (
	TypeHTTP = "http"
	TypeTCP  = "tcp"
	TypeICMP = "icmp"
	TypeSQL  = "sql"
)

// Component is one dependency the health loop probes.
type Component struct {
	Name    string        `mapstructure:"name"`
	Type    string        `mapstructure:"type"`
	Target  string        `mapstructure:"target"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HealthConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	// UptimeWindow is how many recent check runs the uptime ratio covers.
	UptimeWindow   int         `mapstructure:"uptime_window"`
	PingCount      int         `mapstructure:"ping_count"`
	PrivilegedICMP bool        `mapstructure:"privileged_icmp"`
	Components     []Component `mapstructure:"components"`
}

func DefaultConfig() HealthConfig {
	return HealthConfig{
		Interval:       300 * time.Second,
		DefaultTimeout: 5 * time.Second,
		UptimeWindow:   288,
		PingCount:      1,
		Components: []Component{
			{Name: "database", Type: TypeSQL},
		},
	}
}

func (c HealthConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("health: interval must be positive")
	}
	if c.UptimeWindow <= 0 {
		return fmt.Errorf("health: uptime_window must be positive")
	}
	seen := make(map[string]bool, len(c.Components))
	for i, comp := range c.Components {
		if comp.Name == "" {
			return fmt.Errorf("health: component %d has no name", i)
		}
		if seen[comp.Name] {
			return fmt.Errorf("health: duplicate component %q", comp.Name)
		}
		seen[comp.Name] = true
		switch comp.Type {
		case TypeHTTP, TypeTCP, TypeICMP:
			if comp.Target == "" {
				return fmt.Errorf("health: component %q (%s) needs a target", comp.Name, comp.Type)
			}
		case TypeSQL:
		default:
			return fmt.Errorf("health: component %q has unknown type %q", comp.Name, comp.Type)
		}
	}
	return nil
}

func (c HealthConfig) timeoutFor(comp Component) time.Duration {
	if comp.Timeout > 0 {
		return comp.Timeout
	}
	return c.DefaultTimeout
}
