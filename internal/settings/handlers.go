package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hydraping/hydraping/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/", Handler: m.handleGet},
		{Method: "PUT", Path: "/", Handler: m.handlePut},
		{Method: "POST", Path: "/reset", Handler: m.handleReset},
	}
}

func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := m.Settings(r.Context())
	if err != nil {
		m.logger.Error("failed to load settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handlePut applies a partial update: absent fields keep their current
// value, present fields are validated as a whole before saving.
func (m *Module) handlePut(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		DailyGoalML         *int  `json:"daily_goal_ml"`
		ReminderIntervalMin *int  `json:"reminder_interval_minutes"`
		DefaultSipML        *int  `json:"default_sip_ml"`
		ChimeEnabled        *bool `json:"chime_enabled"`
		SleepStartHour      *int  `json:"sleep_start_hour"`
		SleepEndHour        *int  `json:"sleep_end_hour"`
		SnoozeMinutes       *int  `json:"snooze_duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := m.Settings(r.Context())
	if err != nil {
		m.logger.Error("failed to load settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	if patch.DailyGoalML != nil {
		s.DailyGoalML = *patch.DailyGoalML
	}
	if patch.ReminderIntervalMin != nil {
		s.ReminderIntervalMin = *patch.ReminderIntervalMin
	}
	if patch.DefaultSipML != nil {
		s.DefaultSipML = *patch.DefaultSipML
	}
	if patch.ChimeEnabled != nil {
		s.ChimeEnabled = *patch.ChimeEnabled
	}
	if patch.SleepStartHour != nil {
		s.SleepStartHour = *patch.SleepStartHour
	}
	if patch.SleepEndHour != nil {
		s.SleepEndHour = *patch.SleepEndHour
	}
	if patch.SnoozeMinutes != nil {
		s.SnoozeMinutes = *patch.SnoozeMinutes
	}

	if err := m.save(r.Context(), s); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		m.logger.Error("failed to save settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (m *Module) handleReset(w http.ResponseWriter, r *http.Request) {
	defaults, err := m.reset(r.Context())
	if err != nil {
		m.logger.Error("failed to reset settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to reset settings")
		return
	}
	writeJSON(w, http.StatusOK, defaults)
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
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
