package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/ws"
)

// --- test helpers -----------------------------------------------------------

var started = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newHandler(clients int) *Handler {
	h := New(Deps{
		Clients:  func() int { return clients },
		Schedule: func() ws.Schedule { return ws.DefaultSchedule },
		FeedIDs:  func() []string { return []string{"1", "2"} },
		Started:  started,
	})
	h.now = func() time.Time { return started.Add(90 * time.Second) }
	return h
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	rr := do(t, newHandler(3), http.MethodGet, "/api/v1/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	if resp.Clients != 3 {
		t.Errorf("clients: got %d, want 3", resp.Clients)
	}
	if resp.UptimeSeconds != 90 {
		t.Errorf("uptime_seconds: got %d, want 90", resp.UptimeSeconds)
	}
}

func TestHealth_NoDeps(t *testing.T) {
	rr := do(t, New(Deps{}), http.MethodGet, "/api/v1/health")
	var resp HealthResponse
	decode(t, rr, &resp)
	if resp.Clients != 0 {
		t.Errorf("clients: got %d, want 0", resp.Clients)
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	rr := do(t, newHandler(0), http.MethodPost, "/api/v1/health")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: got %d, want 405", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["error"] == "" {
		t.Error("error: missing")
	}
}

// --- /api/v1/status ---------------------------------------------------------

func TestStatus(t *testing.T) {
	rr := do(t, newHandler(1), http.MethodGet, "/api/v1/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp StatusResponse
	decode(t, rr, &resp)
	if resp.Clients != 1 {
		t.Errorf("clients: got %d, want 1", resp.Clients)
	}
	if len(resp.FeedIDs) != 2 {
		t.Errorf("feed_ids: got %v", resp.FeedIDs)
	}
	if resp.Schedule.MinIntervalMs != 2000 || resp.Schedule.MaxIntervalMs != 5000 || resp.Schedule.IdlePollMs != 1000 {
		t.Errorf("schedule: got %+v", resp.Schedule)
	}
	if resp.StartedAt != "2024-03-01T10:00:00Z" {
		t.Errorf("started_at: got %q", resp.StartedAt)
	}
}

func TestUnknownPath(t *testing.T) {
	rr := do(t, newHandler(0), http.MethodGet, "/api/v1/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
