package quality

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/latest", Handler: m.handleLatest},
		{Method: "GET", Path: "/history", Handler: m.handleHistory},
		{Method: "GET", Path: "/sla", Handler: m.handleSLA},
		{Method: "GET", Path: "/thresholds", Handler: m.handleThresholds},
		{Method: "GET", Path: "/anomalies", Handler: m.handleAnomalies},
		{Method: "POST", Path: "/evaluate", Handler: m.handleEvaluate},
	}
}

// handleLatest returns the newest quality snapshot.
//
//	@Summary		Latest snapshot
//	@Tags			quality
//	@Produce		json
//	@Success		200 {object} models.QualitySnapshot
//	@Failure		404 {object} models.APIProblem
//	@Router			/quality/latest [get]
func (m *Module) handleLatest(w http.ResponseWriter, _ *http.Request) {
	snap, ok := m.LatestSnapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no quality snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleHistory returns recent snapshots, oldest first.
//
//	@Summary		Snapshot history
//	@Tags			quality
//	@Produce		json
//	@Param			limit query int false "Maximum snapshots to return (default 60)"
//	@Success		200 {array} models.QualitySnapshot
//	@Failure		400 {object} models.APIProblem
//	@Router			/quality/history [get]
func (m *Module) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 60
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	engine, _ := m.current()
	if engine == nil {
		writeJSON(w, http.StatusOK, []models.QualitySnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, engine.History(limit))
}

// handleSLA reports SLA compliance.
//
//	@Summary		SLA compliance
//	@Description	Compares uptime, accuracy and latency of the latest cycle with the SLA targets.
//	@Tags			quality
//	@Produce		json
//	@Success		200 {object} models.SLAReport
//	@Failure		404 {object} models.APIProblem
//	@Router			/quality/sla [get]
func (m *Module) handleSLA(w http.ResponseWriter, _ *http.Request) {
	report, ok := m.SLA()
	if !ok {
		writeError(w, http.StatusNotFound, "no quality snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type thresholdsResponse struct {
	Tiers  Tiers             `json:"tiers"`
	Grades map[string]string `json:"grades,omitempty"`
}

// handleThresholds returns the per-metric tier table, graded against the
// latest snapshot when there is one.
//
//	@Summary		Threshold table
//	@Tags			quality
//	@Produce		json
//	@Success		200 {object} thresholdsResponse
//	@Router			/quality/thresholds [get]
func (m *Module) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	resp := thresholdsResponse{Tiers: m.cfg.Tiers}
	if snap, ok := m.LatestSnapshot(); ok {
		resp.Grades = m.cfg.Tiers.Grades(snap)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAnomalies lists the anomalies found by the last scan.
//
//	@Summary		Current anomalies
//	@Tags			quality
//	@Produce		json
//	@Success		200 {array} Anomaly
//	@Router			/quality/anomalies [get]
func (m *Module) handleAnomalies(w http.ResponseWriter, _ *http.Request) {
	engine, _ := m.current()
	if engine == nil {
		writeJSON(w, http.StatusOK, []Anomaly{})
		return
	}
	writeJSON(w, http.StatusOK, engine.LatestAnomalies())
}

// handleEvaluate runs a cycle now and returns its snapshot.
//
//	@Summary		Evaluate now
//	@Description	Runs an evaluate-and-alert cycle outside the schedule. Blocks up to the probe timeout.
//	@Tags			quality
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} models.QualitySnapshot
//	@Failure		503 {object} models.APIProblem
//	@Router			/quality/evaluate [post]
func (m *Module) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	snap, err := m.Cycle(r.Context())
	if snap.Timestamp.IsZero() {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		m.logger.Warn("on-demand cycle raised errors", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, snap)
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
