package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestHandler_Dashboard(t *testing.T) {
	h := NewHandler(NewAggregator(newMockRepo(), 10, zerolog.Nop()))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil), rec)

	if err := h.Dashboard(c); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"total_hospitals", "total_insurance_companies", "total_policies", "total_users", "claims_by_status", "top_states_by_hospitals"} {
		if _, ok := body[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if _, ok := body["source"]; ok {
		t.Error("live dashboard must not carry a source tag")
	}
}

func TestHandler_HospitalStates_Fallback(t *testing.T) {
	repo := newMockRepo()
	repo.statesErr = errConnRefused
	h := NewHandler(NewAggregator(repo, 10, zerolog.Nop()))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/stats/hospital-states", nil), rec)

	if err := h.HospitalStates(c); err != nil {
		t.Fatalf("HospitalStates: %v", err)
	}
	var states []StateStat
	if err := json.Unmarshal(rec.Body.Bytes(), &states); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(states) != 32 || states[0].Source != SourceFallback {
		t.Errorf("expected tagged fallback listing, got %d rows", len(states))
	}
}
