package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rewired-gh/bettips/internal/assistant"
	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/performance"
	"github.com/rewired-gh/bettips/internal/pipeline"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	deps            Deps
	useMockFallback bool
}

// NewHandler creates a new handler
func NewHandler(deps Deps, useMockFallback bool) *Handler {
	return &Handler{deps: deps, useMockFallback: useMockFallback}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	provider, gen := h.deps.Selector.Snapshot()
	body := map[string]interface{}{
		"status":     "healthy",
		"service":    "bettips",
		"provider":   provider,
		"generation": gen,
	}

	status := http.StatusOK
	checks := []struct {
		name   string
		pinger Pinger
	}{
		{"storage", h.deps.Storage},
		{"cache", h.deps.Cache},
	}
	for _, c := range checks {
		if c.pinger == nil {
			continue
		}
		if err := c.pinger.Ping(r.Context()); err != nil {
			body["status"] = "degraded"
			body[c.name] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, status, body)
}

// GetProviders returns the active provider and the selectable ones
func (h *Handler) GetProviders(w http.ResponseWriter, r *http.Request) {
	provider, gen := h.deps.Selector.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":     provider,
		"available":  h.deps.Selector.Available(),
		"generation": gen,
	})
}

type setProviderRequest struct {
	Provider string `json:"provider"`
}

// SetActiveProvider switches the provider used by subsequent fetches
func (h *Handler) SetActiveProvider(w http.ResponseWriter, r *http.Request) {
	var req setProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.deps.Selector.Set(r.Context(), req.Provider); err != nil {
		if errors.Is(err, sportsapi.ErrUnsupportedProvider) {
			respondError(w, http.StatusBadRequest, "Unsupported provider", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to switch provider", err)
		return
	}

	h.GetProviders(w, r)
}

// GetLiveFixtures returns in-play fixtures grouped by league
func (h *Handler) GetLiveFixtures(w http.ResponseWriter, r *http.Request) {
	sport, err := models.ParseSport(r.URL.Query().Get("sport"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sport", err)
		return
	}

	if h.deps.Board != nil && !wantsRefresh(r) {
		if res, ok := h.deps.Board.Live(sport); ok && !res.Failed() {
			respondResult(w, res, nil)
			return
		}
	}

	res, err := h.deps.Pipeline.LiveFixtures(r.Context(), sport)
	respondResult(w, res, err)
}

// GetFixturesByDate returns fixtures on a date (YYYY-MM-DD, default today)
func (h *Handler) GetFixturesByDate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sport, err := models.ParseSport(query.Get("sport"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sport", err)
		return
	}
	date, err := parseDate(query.Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	res, err := h.deps.Pipeline.FixturesByDate(r.Context(), sport, date)
	respondResult(w, res, err)
}

// GetBTTSPicks returns ranked BTTS picks
func (h *Handler) GetBTTSPicks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := pipeline.PickOptions{RoundID: query.Get("round"), Refresh: wantsRefresh(r)}

	date, err := parseDate(query.Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	opts.Date = date

	if raw := query.Get("min_probability"); raw != "" {
		minProbability, err := strconv.ParseFloat(raw, 64)
		if err != nil || minProbability < 0 || minProbability > 100 {
			respondError(w, http.StatusBadRequest, "min_probability must be a number between 0 and 100", err)
			return
		}
		opts.MinProbability = &minProbability
	}

	if h.deps.Board != nil && opts == (pipeline.PickOptions{}) {
		if res, ok := h.deps.Board.Picks(); ok && !res.Failed() {
			respondResult(w, res, nil)
			return
		}
	}

	res, err := h.deps.Pipeline.BTTSPicks(r.Context(), opts)
	if err == nil && h.useMockFallback {
		res = res.WithMockFallback()
	}
	respondResult(w, res, err)
}

// GetPlayerStats returns one player's statistics
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerID"]
	if _, err := strconv.ParseUint(playerID, 10, 64); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid player ID", err)
		return
	}

	res, err := h.deps.Pipeline.PlayerStats(r.Context(), playerID)
	respondResult(w, res, err)
}

type askRequest struct {
	Message string `json:"message"`
}

// Ask answers a chat message with the betting assistant
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.deps.Assistant == nil {
		respondError(w, http.StatusNotFound, "Assistant is not enabled", nil)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"intent": assistant.DetectIntent(req.Message),
		"reply":  h.deps.Assistant.Reply(r.Context(), req.Message),
	})
}

// GetPerformance returns the tipster performance figures
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, performance.Get())
}

func wantsRefresh(r *http.Request) bool {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return refresh
}

func parseDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", err
	}
	return raw, nil
}

// respondResult writes a pipeline result. Empty data is a 200 with an empty
// body section; failures map to a status by kind unless picks were filled in.
func respondResult(w http.ResponseWriter, res pipeline.Result, err error) {
	if err != nil {
		logger.Error("Request rejected: %v", err)
		respondJSON(w, http.StatusNotImplemented, map[string]interface{}{
			"error":      err.Error(),
			"error_kind": sportsapi.KindOf(err),
			"status":     http.StatusNotImplemented,
		})
		return
	}

	status := http.StatusOK
	if res.Failed() && res.Empty() {
		status = statusForKind(res.Kind)
	}
	respondJSON(w, status, res)
}

func statusForKind(kind sportsapi.ErrorKind) int {
	switch kind {
	case sportsapi.KindNetwork, sportsapi.KindMalformedResponse:
		return http.StatusBadGateway
	case sportsapi.KindMissingCredential:
		return http.StatusServiceUnavailable
	case sportsapi.KindUnsupportedProvider:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Failed to encode response","status":500}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
