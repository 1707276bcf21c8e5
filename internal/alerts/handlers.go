package alerts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: m.handleList},
		{Method: "POST", Path: "", Handler: m.handleCreate},
		{Method: "GET", Path: "/stats", Handler: m.handleStats},
		{Method: "GET", Path: "/routes", Handler: m.handleRoutes},
		{Method: "GET", Path: "/{id}", Handler: m.handleGet},
		{Method: "POST", Path: "/{id}/acknowledge", Handler: m.handleAcknowledge},
		{Method: "POST", Path: "/{id}/resolve", Handler: m.handleResolve},
	}
}

// handleList returns open alerts, or every stored alert with ?all=true.
//
//	@Summary		List alerts
//	@Description	Returns unresolved alerts, newest first. Pass all=true to include resolved alerts.
//	@Tags			alerts
//	@Produce		json
//	@Param			all query bool false "Include resolved alerts"
//	@Success		200 {array} models.Alert
//	@Router			/alerts [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		writeJSON(w, http.StatusOK, m.manager.All())
		return
	}
	writeJSON(w, http.StatusOK, m.manager.Active())
}

// handleCreate raises an alert from an operator or external producer.
//
//	@Summary		Create alert
//	@Description	Submits an alert request. Identical (type, title) requests inside the dedup window are suppressed.
//	@Tags			alerts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body models.AlertRequest true "Alert request"
//	@Success		201 {object} Outcome
//	@Success		200 {object} Outcome "Deduplicated"
//	@Failure		400 {object} models.APIProblem
//	@Router			/alerts [post]
func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.AlertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	out, err := m.manager.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) || errors.Is(err, models.ErrInvalidSeverity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m.logger.Warn("failed to create alert", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create alert")
		return
	}
	if out.Deduplicated {
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleGet returns one alert.
//
//	@Summary		Get alert
//	@Tags			alerts
//	@Produce		json
//	@Param			id path string true "Alert ID"
//	@Success		200 {object} models.Alert
//	@Failure		404 {object} models.APIProblem
//	@Router			/alerts/{id} [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	a, ok := m.manager.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleAcknowledge marks an alert acknowledged.
//
//	@Summary		Acknowledge alert
//	@Tags			alerts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path string true "Alert ID"
//	@Success		200 {object} models.Alert
//	@Failure		404 {object} models.APIProblem
//	@Router			/alerts/{id}/acknowledge [post]
func (m *Module) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !m.manager.Acknowledge(r.Context(), id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	m.writeAlert(w, id)
}

// handleResolve marks an alert resolved.
//
//	@Summary		Resolve alert
//	@Tags			alerts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path string true "Alert ID"
//	@Success		200 {object} models.Alert
//	@Failure		404 {object} models.APIProblem
//	@Router			/alerts/{id}/resolve [post]
func (m *Module) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !m.manager.Resolve(r.Context(), id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	m.writeAlert(w, id)
}

func (m *Module) writeAlert(w http.ResponseWriter, id string) {
	a, ok := m.manager.Get(id)
	if !ok {
		// Purged between the transition and the read.
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleStats returns lifecycle statistics.
//
//	@Summary		Alert statistics
//	@Tags			alerts
//	@Produce		json
//	@Success		200 {object} models.AlertStatistics
//	@Router			/alerts/stats [get]
func (m *Module) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.manager.Statistics())
}

type routesResponse struct {
	Routes   map[string][]string  `json:"routes"`
	Channels map[string]bool      `json:"channels"`
	Rules    map[string]AlertRule `json:"rules"`
}

// handleRoutes returns the severity routing table and channel readiness.
//
//	@Summary		Routing table
//	@Description	Returns the severity-to-channel table, whether each channel is configured, and per-type rules.
//	@Tags			alerts
//	@Produce		json
//	@Success		200 {object} routesResponse
//	@Router			/alerts/routes [get]
func (m *Module) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, routesResponse{
		Routes:   m.manager.Routes(),
		Channels: m.dispatcher.Channels(),
		Rules:    m.manager.Rules(),
	})
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
