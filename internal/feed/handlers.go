package feed

import (
	"encoding/json"
	"net/http"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/HerbHall/qualitywatch/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/points", Handler: m.handleIngest},
		{Method: "GET", Path: "/points", Handler: m.handleCurrent},
		{Method: "GET", Path: "/expected", Handler: m.handleGetExpected},
		{Method: "PUT", Path: "/expected", Handler: m.handlePutExpected},
		{Method: "GET", Path: "/sources", Handler: m.handleSources},
	}
}

type ingestRequest struct {
	Points []models.DataPoint `json:"points"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
}

// handleIngest stores a batch of data points.
//
//	@Summary		Ingest points
//	@Description	Stores a batch of data points. Points carrying a probe_id mark that latency probe observed.
//	@Tags			feed
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body ingestRequest true "Points"
//	@Success		202 {object} ingestResponse
//	@Failure		400 {object} models.APIProblem
//	@Router			/feed/points [post]
func (m *Module) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n, err := m.Ingest(r.Context(), req.Points)
	if err != nil {
		m.logger.Debug("ingest rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, ingestResponse{Accepted: n})
}

// handleCurrent returns the newest point per series and source.
//
//	@Summary		Current points
//	@Tags			feed
//	@Produce		json
//	@Success		200 {array} models.DataPoint
//	@Router			/feed/points [get]
func (m *Module) handleCurrent(w http.ResponseWriter, r *http.Request) {
	points, err := m.CurrentDataPoints(r.Context())
	if err != nil {
		m.logger.Warn("failed to list current points", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list points")
		return
	}
	if points == nil {
		points = []models.DataPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

type expectedRequest struct {
	Keys []models.SeriesKey `json:"keys"`
}

// handleGetExpected returns the expected-key manifest.
//
//	@Summary		Expected keys
//	@Tags			feed
//	@Produce		json
//	@Success		200 {object} expectedRequest
//	@Router			/feed/expected [get]
func (m *Module) handleGetExpected(w http.ResponseWriter, r *http.Request) {
	keys, err := m.ExpectedKeys(r.Context())
	if err != nil {
		m.logger.Warn("failed to list expected keys", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list expected keys")
		return
	}
	if keys == nil {
		keys = []models.SeriesKey{}
	}
	writeJSON(w, http.StatusOK, expectedRequest{Keys: keys})
}

// handlePutExpected replaces the expected-key manifest.
//
//	@Summary		Replace expected keys
//	@Tags			feed
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body expectedRequest true "Manifest"
//	@Success		200 {object} expectedRequest
//	@Failure		400 {object} models.APIProblem
//	@Router			/feed/expected [put]
func (m *Module) handlePutExpected(w http.ResponseWriter, r *http.Request) {
	var req expectedRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := m.SetExpectedKeys(r.Context(), req.Keys); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.handleGetExpected(w, r)
}

// handleSources lists the configured sources.
//
//	@Summary		Sources
//	@Tags			feed
//	@Produce		json
//	@Success		200 {array} string
//	@Router			/feed/sources [get]
func (m *Module) handleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.Sources())
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
