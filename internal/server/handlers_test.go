package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/healthstore/memstore"
)

const testKey = "test-key"

var day1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()
	store := memstore.New(0)
	store.Grant(bridge.DefaultRequiredScopes...)
	b, err := bridge.New(store, store, nil, bridge.Options{PreferHealthConnect: true}, discardLogger())
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	t.Cleanup(b.Close)
	return New(b, testKey, discardLogger()), store
}

func call(t *testing.T, s *Server, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/methods/"+method, strings.NewReader(body))
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestHandleCallStepsAndCalories verifies the daily buckets are wrapped in a result envelope.
func TestHandleCallStepsAndCalories(t *testing.T) {
	s, store := newTestServer(t)
	store.Add(
		healthstore.Record{StartTime: day1.Add(time.Hour), EndTime: day1.Add(2 * time.Hour), Payload: healthstore.Steps{Count: 150}},
		healthstore.Record{StartTime: day1.Add(time.Hour), EndTime: day1.Add(2 * time.Hour), Payload: healthstore.TotalCaloriesBurned{Kilocalories: 100.2}},
		healthstore.Record{StartTime: day1.Add(3 * time.Hour), EndTime: day1.Add(4 * time.Hour), Payload: healthstore.TotalCaloriesBurned{Kilocalories: 50.3}},
	)

	rec := call(t, s, "getTotalStepAndCaloriesInInterval", `{"startTime":1704067200000,"endTime":1704240000000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Result []struct {
			Steps    int64 `json:"steps"`
			Calories int64 `json:"calories"`
			DateFrom int64 `json:"date_from"`
			DateTo   int64 `json:"date_to"`
		} `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Result) != 2 {
		t.Fatalf("got %d buckets, want 2", len(resp.Result))
	}
	if resp.Result[0].Steps != 150 || resp.Result[0].Calories != 151 {
		t.Errorf("day 1 = %+v, want 150 steps / 151 kcal", resp.Result[0])
	}
	if resp.Result[1].Steps != 0 || resp.Result[1].Calories != 0 || resp.Result[1].DateFrom != 1704153600000 {
		t.Errorf("day 2 = %+v", resp.Result[1])
	}
}

// TestHandleCallNullResult verifies a gated call answers 200 with a null result.
func TestHandleCallNullResult(t *testing.T) {
	s, store := newTestServer(t)
	store.SetStatus(healthstore.SDKUnavailable)

	rec := call(t, s, "getTotalStepsInInterval", `{"startTime":1704067200000,"endTime":1704153600000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"result":null}` {
		t.Errorf("body = %s, want {\"result\":null}", got)
	}
}

// TestHandleCallNoBody verifies argument-less methods accept an empty body.
func TestHandleCallNoBody(t *testing.T) {
	s, _ := newTestServer(t)

	rec := call(t, s, "hasPermissions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"result":true}` {
		t.Errorf("body = %s", got)
	}
}

// TestHandleCallErrors verifies programmer errors map to 4xx/501 codes.
func TestHandleCallErrors(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"unknown method", "getSleepData", `{}`, http.StatusNotImplemented},
		{"bad json", "getData", `{"startTime":`, http.StatusBadRequest},
		{"missing args", "getData", `{"dataTypeKey":"STEPS"}`, http.StatusBadRequest},
		{"unsupported metric", "getData", `{"dataTypeKey":"BLOOD_OXYGEN","startTime":0,"endTime":1}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, s, tc.method, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

// TestMethodsRequireAPIKey verifies the method routes are protected.
func TestMethodsRequireAPIKey(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/methods/hasPermissions", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestHandlePermissions verifies the listing reports each required scope.
func TestHandlePermissions(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/permissions", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp struct {
		Availability string `json:"availability"`
		Permissions  []struct {
			Scope string `json:"scope"`
			State string `json:"state"`
		} `json:"permissions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Availability != "available" {
		t.Errorf("availability = %q", resp.Availability)
	}
	if len(resp.Permissions) != 2 {
		t.Fatalf("got %d scopes, want 2", len(resp.Permissions))
	}
	for _, p := range resp.Permissions {
		if p.State != "granted" {
			t.Errorf("%s = %s, want granted", p.Scope, p.State)
		}
	}
}

// TestHandleMeDefault verifies /api/v1/me returns the dev identity without tailscale.
func TestHandleMeDefault(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

// TestReadiness verifies /ready follows native store availability.
func TestReadiness(t *testing.T) {
	s, store := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}

	store.SetStatus(healthstore.SDKUnavailable)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}

// TestMetricsEndpoint verifies bridge collectors are exported after a call.
func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s, "hasPermissions", "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthbridge_bridge_method_calls_total") {
		t.Error("method counter missing from /metrics")
	}
}

// TestSetMCP verifies the MCP transport is mounted behind the API key.
func TestSetMCP(t *testing.T) {
	s, _ := newTestServer(t)
	s.SetMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	req.Header.Set("X-API-Key", testKey)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Errorf("with key: status = %d, want 202", rec.Code)
	}
}
