package alerts

import (
	"slices"
	"testing"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

func TestDefaultRoutes(t *testing.T) {
	r := NewRouter(nil)
	tests := []struct {
		sev  models.Severity
		want []string
	}{
		{models.SeverityCritical, []string{ChannelPagerDuty, ChannelChat, ChannelEmail}},
		{models.SeverityHigh, []string{ChannelChat, ChannelEmail}},
		{models.SeverityMedium, []string{ChannelChat}},
		{models.SeverityLow, []string{ChannelWebhook}},
	}
	for _, tc := range tests {
		t.Run(tc.sev.String(), func(t *testing.T) {
			if got := r.Route(tc.sev); !slices.Equal(got, tc.want) {
				t.Errorf("Route(%s) = %v, want %v", tc.sev, got, tc.want)
			}
		})
	}
}

func TestRoutes_PagerdutyOnlyForCriticalByDefault(t *testing.T) {
	r := NewRouter(nil)
	for i := 0; i < 3; i++ {
		if !slices.Contains(r.Route(models.SeverityCritical), ChannelPagerDuty) {
			t.Fatal("CRITICAL must always include pagerduty")
		}
		if slices.Contains(r.Route(models.SeverityLow), ChannelPagerDuty) {
			t.Fatal("LOW must never include pagerduty")
		}
	}
}

func TestRoute_ReturnsCopy(t *testing.T) {
	r := NewRouter(nil)
	got := r.Route(models.SeverityHigh)
	got[0] = "mutated"
	if r.Route(models.SeverityHigh)[0] != ChannelChat {
		t.Error("caller mutation leaked into the routing table")
	}
}

func TestParseRoutes(t *testing.T) {
	t.Run("override keeps other defaults", func(t *testing.T) {
		table, err := ParseRoutes(map[string][]string{"medium": {"chat", "email", "chat"}})
		if err != nil {
			t.Fatalf("ParseRoutes: %v", err)
		}
		if got := table[models.SeverityMedium]; !slices.Equal(got, []string{ChannelChat, ChannelEmail}) {
			t.Errorf("MEDIUM = %v, want [chat email]", got)
		}
		if got := table[models.SeverityLow]; !slices.Equal(got, []string{ChannelWebhook}) {
			t.Errorf("LOW = %v, want default", got)
		}
	})
	t.Run("unknown severity", func(t *testing.T) {
		if _, err := ParseRoutes(map[string][]string{"urgent": {"chat"}}); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("unknown channel", func(t *testing.T) {
		if _, err := ParseRoutes(map[string][]string{"LOW": {"sms"}}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRouter_Replace_And_Table(t *testing.T) {
	r := NewRouter(nil)
	r.Replace(RouteTable{models.SeverityLow: {ChannelEmail, ChannelChat}})
	table := r.Table()
	if !slices.Equal(table["LOW"], []string{ChannelChat, ChannelEmail}) {
		t.Errorf("Table()[LOW] = %v", table["LOW"])
	}
	if len(r.Route(models.SeverityCritical)) != 0 {
		t.Error("replaced table has no CRITICAL route")
	}
}
