package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/components", Handler: m.handleComponents},
	}
}

type componentsResponse struct {
	Healthy    bool                     `json:"healthy"`
	Uptime     float64                  `json:"uptime" example:"0.996"`
	CheckedAt  *time.Time               `json:"checked_at,omitempty"`
	Components []models.ComponentHealth `json:"components"`
}

// handleComponents returns the latest result for every component.
//
//	@Summary		Component health
//	@Description	Latest health check per component and the uptime ratio.
//	@Tags			health
//	@Produce		json
//	@Success		200 {object} componentsResponse
//	@Router			/health/components [get]
func (m *Module) handleComponents(w http.ResponseWriter, _ *http.Request) {
	resp := componentsResponse{Healthy: true, Uptime: m.UptimeRatio(), Components: []models.ComponentHealth{}}
	if run, ok := m.LastRun(); ok {
		at := run.At
		resp.Healthy = run.Healthy
		resp.CheckedAt = &at
		resp.Components = run.Components
	}
	writeJSON(w, http.StatusOK, resp)
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
