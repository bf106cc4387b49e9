package tracker

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"github.com/hydraping/hydraping/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/intake", Handler: m.handleLogIntake},
		{Method: "GET", Path: "/intake", Handler: m.handleListIntake},
		{Method: "DELETE", Path: "/intake/{id}", Handler: m.handleDeleteIntake},
		{Method: "GET", Path: "/today", Handler: m.handleToday},
		{Method: "GET", Path: "/today/total", Handler: m.handleTodayTotal},
		{Method: "POST", Path: "/today/reset", Handler: m.handleResetToday},
		{Method: "GET", Path: "/stats/daily", Handler: m.handleDailyStats},
		{Method: "GET", Path: "/stats/hourly", Handler: m.handleHourlyStats},
	}
}

// logIntakeRequest is the body for POST /intake. Amount is optional;
// when omitted the configured default sip size is used.
type logIntakeRequest struct {
	AmountML *int `json:"amount_ml"`
}

func (m *Module) handleLogIntake(w http.ResponseWriter, r *http.Request) {
	var req logIntakeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	amount := m.defaultSip(r.Context())
	if req.AmountML != nil {
		amount = *req.AmountML
	}
	if amount <= 0 || amount > m.cfg.MaxAmountML {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("amount_ml must be between 1 and %d", m.cfg.MaxAmountML))
		return
	}

	ev, err := m.logIntake(r.Context(), amount, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record intake")
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (m *Module) handleListIntake(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r, 7)
	events, err := m.store.RecentIntake(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list intake")
		return
	}
	if events == nil {
		events = []hydration.IntakeEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (m *Module) handleDeleteIntake(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	err := m.store.DeleteIntake(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "intake event not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete intake")
		return
	}

	if m.bus != nil {
		m.bus.PublishAsync(m.ctx, plugin.Event{
			Topic:   TopicIntakeDeleted,
			Source:  "tracker",
			Payload: id,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// todayResponse is the payload for GET /today.
type todayResponse struct {
	TotalML int                     `json:"total_ml"`
	Drinks  int                     `json:"drinks"`
	Events  []hydration.IntakeEvent `json:"events"`
}

func (m *Module) handleToday(w http.ResponseWriter, r *http.Request) {
	events, err := m.store.IntakeToday(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read today's log")
		return
	}
	if events == nil {
		events = []hydration.IntakeEvent{}
	}

	total := 0
	for _, ev := range events {
		total += ev.AmountML
	}
	writeJSON(w, http.StatusOK, todayResponse{
		TotalML: total,
		Drinks:  len(events),
		Events:  events,
	})
}

func (m *Module) handleTodayTotal(w http.ResponseWriter, r *http.Request) {
	total, err := m.store.TodayTotal(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read today's total")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total_ml": total})
}

func (m *Module) handleResetToday(w http.ResponseWriter, r *http.Request) {
	removed, err := m.store.ResetToday(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset today's log")
		return
	}

	m.logger.Info("today's log reset", zap.Int64("removed", removed))
	if m.bus != nil {
		m.bus.PublishAsync(m.ctx, plugin.Event{
			Topic:   TopicDayReset,
			Source:  "tracker",
			Payload: removed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (m *Module) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r, 7)
	totals, err := m.store.DailyTotals(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to aggregate daily stats")
		return
	}
	if totals == nil {
		totals = []hydration.DailyTotal{}
	}
	writeJSON(w, http.StatusOK, totals)
}

func (m *Module) handleHourlyStats(w http.ResponseWriter, r *http.Request) {
	days := parseDays(r, 14)
	totals, err := m.store.HourlyTotals(r.Context(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to aggregate hourly stats")
		return
	}
	writeJSON(w, http.StatusOK, totals)
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

func parseDays(r *http.Request, defaultDays int) int {
	if s := r.URL.Query().Get("days"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 365 {
			return n
		}
	}
	return defaultDays
}
