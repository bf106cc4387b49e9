package reminder

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hydraping/hydraping/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/next", Handler: m.handleNext},
		{Method: "POST", Path: "/snooze", Handler: m.handleSnooze},
		{Method: "POST", Path: "/dismiss", Handler: m.handleDismiss},
	}
}

type nextResponse struct {
	Enabled bool       `json:"enabled"`
	NextAt  *time.Time `json:"next_at,omitempty"`
}

func (m *Module) handleNext(w http.ResponseWriter, _ *http.Request) {
	resp := nextResponse{Enabled: m.cfg.Enabled}
	if m.cfg.Enabled {
		if next := m.scheduler.Next(); !next.IsZero() {
			resp.NextAt = &next
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type snoozeRequest struct {
	Minutes int `json:"minutes"`
}

func (m *Module) handleSnooze(w http.ResponseWriter, r *http.Request) {
	if !m.cfg.Enabled {
		writeError(w, http.StatusConflict, "reminders are disabled")
		return
	}

	var req snoozeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Minutes < 0 || req.Minutes > 60 {
		writeError(w, http.StatusBadRequest, "minutes must be between 0 and 60")
		return
	}

	at := m.scheduler.Snooze(m.snoozeMinutes(r.Context(), req.Minutes))
	writeJSON(w, http.StatusOK, map[string]time.Time{"next_at": at})
}

func (m *Module) handleDismiss(w http.ResponseWriter, _ *http.Request) {
	if !m.cfg.Enabled {
		writeError(w, http.StatusConflict, "reminders are disabled")
		return
	}
	m.scheduler.Dismiss()
	w.WriteHeader(http.StatusNoContent)
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
