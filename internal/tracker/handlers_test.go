package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
	"go.uber.org/zap"
)

// testModule builds a tracker module with an in-memory store, skipping
// the plugin lifecycle.
func testModule(t *testing.T) *Module {
	t.Helper()
	return &Module{
		logger: zap.NewNop(),
		cfg:    DefaultConfig(),
		store:  testStore(t, time.Now()),
		ctx:    context.Background(),
	}
}

func TestHandleLogIntake(t *testing.T) {
	t.Run("explicit amount", func(t *testing.T) {
		m := testModule(t)

		req := httptest.NewRequest(http.MethodPost, "/intake", strings.NewReader(`{"amount_ml":300}`))
		rec := httptest.NewRecorder()
		m.handleLogIntake(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var ev hydration.IntakeEvent
		if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if ev.AmountML != 300 {
			t.Errorf("expected 300 ml, got %d", ev.AmountML)
		}
		if ev.ID == "" {
			t.Error("expected generated event ID")
		}
	})

	t.Run("empty body uses default sip", func(t *testing.T) {
		m := testModule(t)

		req := httptest.NewRequest(http.MethodPost, "/intake", nil)
		rec := httptest.NewRecorder()
		m.handleLogIntake(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var ev hydration.IntakeEvent
		if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if ev.AmountML != hydration.DefaultSettings().DefaultSipML {
			t.Errorf("expected default sip %d, got %d",
				hydration.DefaultSettings().DefaultSipML, ev.AmountML)
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		m := testModule(t)

		req := httptest.NewRequest(http.MethodPost, "/intake", strings.NewReader(`{"amount_ml":0}`))
		rec := httptest.NewRecorder()
		m.handleLogIntake(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects oversized amount", func(t *testing.T) {
		m := testModule(t)

		req := httptest.NewRequest(http.MethodPost, "/intake", strings.NewReader(`{"amount_ml":9000}`))
		rec := httptest.NewRecorder()
		m.handleLogIntake(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		m := testModule(t)

		req := httptest.NewRequest(http.MethodPost, "/intake", strings.NewReader(`{bad`))
		rec := httptest.NewRecorder()
		m.handleLogIntake(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleToday(t *testing.T) {
	m := testModule(t)

	logBody := strings.NewReader(`{"amount_ml":250}`)
	m.handleLogIntake(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/intake", logBody))
	logBody2 := strings.NewReader(`{"amount_ml":150}`)
	m.handleLogIntake(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/intake", logBody2))

	rec := httptest.NewRecorder()
	m.handleToday(rec, httptest.NewRequest(http.MethodGet, "/today", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp todayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.TotalML != 400 {
		t.Errorf("expected 400 ml total, got %d", resp.TotalML)
	}
	if resp.Drinks != 2 {
		t.Errorf("expected 2 drinks, got %d", resp.Drinks)
	}
}

func TestHandleTodayEmpty(t *testing.T) {
	m := testModule(t)

	rec := httptest.NewRecorder()
	m.handleToday(rec, httptest.NewRequest(http.MethodGet, "/today", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp todayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Events == nil {
		t.Error("expected empty array, not null")
	}
}

func TestHandleDeleteIntake(t *testing.T) {
	m := testModule(t)

	rec := httptest.NewRecorder()
	m.handleLogIntake(rec, httptest.NewRequest(http.MethodPost, "/intake", strings.NewReader(`{"amount_ml":250}`)))
	var ev hydration.IntakeEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	t.Run("deletes existing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/intake/"+ev.ID, nil)
		req.SetPathValue("id", ev.ID)
		rec := httptest.NewRecorder()
		m.handleDeleteIntake(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("missing id returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/intake/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()
		m.handleDeleteIntake(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleResetToday(t *testing.T) {
	m := testModule(t)

	m.handleLogIntake(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/intake", strings.NewReader(`{"amount_ml":250}`)))

	rec := httptest.NewRecorder()
	m.handleResetToday(rec, httptest.NewRequest(http.MethodPost, "/today/reset", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["removed"] != 1 {
		t.Errorf("expected 1 removed, got %d", resp["removed"])
	}
}

func TestHandleHourlyStats(t *testing.T) {
	m := testModule(t)

	rec := httptest.NewRecorder()
	m.handleHourlyStats(rec, httptest.NewRequest(http.MethodGet, "/stats/hourly", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var buckets []hydration.HourlyTotal
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(buckets) != 24 {
		t.Errorf("expected 24 buckets, got %d", len(buckets))
	}
}
