package analyzer

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/insights", Handler: m.handleInsights},
		{Method: "GET", Path: "/prediction", Handler: m.handlePrediction},
		{Method: "POST", Path: "/prediction/invalidate", Handler: m.handleInvalidate},
		{Method: "GET", Path: "/velocity", Handler: m.handleVelocity},
		{Method: "GET", Path: "/pace", Handler: m.handlePace},
		{Method: "GET", Path: "/smart-delay", Handler: m.handleSmartDelay},
	}
}

func (m *Module) handleInsights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.analyzer.Insights(r.Context()))
}

// predictionResponse carries the status alongside the prediction so
// clients can distinguish "not yet predictable" from a real forecast.
type predictionResponse struct {
	Status     hydration.Status      `json:"status"`
	Prediction *hydration.Prediction `json:"prediction,omitempty"`
}

func (m *Module) handlePrediction(w http.ResponseWriter, r *http.Request) {
	pred, status := m.analyzer.Predict(r.Context())
	resp := predictionResponse{Status: status}
	if status == hydration.StatusOK {
		resp.Prediction = &pred
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *Module) handleInvalidate(w http.ResponseWriter, _ *http.Request) {
	m.analyzer.InvalidatePrediction()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleVelocity(w http.ResponseWriter, r *http.Request) {
	rate, status := m.analyzer.Velocity(r.Context())
	resp := map[string]any{"status": status}
	if status == hydration.StatusOK {
		resp["ml_per_hour"] = rate
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *Module) handlePace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]hydration.Pace{"pace": m.analyzer.Pace(r.Context())})
}

func (m *Module) handleSmartDelay(w http.ResponseWriter, r *http.Request) {
	base := 45
	if s := r.URL.Query().Get("base"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "base must be an integer")
			return
		}
		base = n
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"delay_minutes": m.analyzer.SmartDelay(r.Context(), base),
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
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://hydra-ping.app/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
