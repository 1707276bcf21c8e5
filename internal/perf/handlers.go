package perf

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
		{Method: "GET", Path: "/latest", Handler: m.handleLatest},
		{Method: "GET", Path: "/history", Handler: m.handleHistory},
	}
}

// handleLatest returns the newest performance sample.
//
//	@Summary		Latest performance sample
//	@Tags			performance
//	@Produce		json
//	@Success		200 {object} models.PerformanceSample
//	@Failure		404 {object} models.APIProblem
//	@Router			/performance/latest [get]
func (m *Module) handleLatest(w http.ResponseWriter, _ *http.Request) {
	s, ok := m.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no performance sample yet")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handleHistory returns samples from a trailing window.
//
//	@Summary		Performance history
//	@Tags			performance
//	@Produce		json
//	@Param			window query string false "Trailing window as a Go duration (default 1h, max history_window)"
//	@Success		200 {array} models.PerformanceSample
//	@Failure		400 {object} models.APIProblem
//	@Router			/performance/history [get]
func (m *Module) handleHistory(w http.ResponseWriter, r *http.Request) {
	window := time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration such as 30m")
			return
		}
		window = d
	}
	if window > m.cfg.HistoryWindow {
		window = m.cfg.HistoryWindow
	}
	samples := m.History(m.now().Add(-window))
	if samples == nil {
		samples = []models.PerformanceSample{}
	}
	writeJSON(w, http.StatusOK, samples)
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://qualitywatch.dev/problems/" + http.StatusText(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
