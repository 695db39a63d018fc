package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/ws"
)

// Deps are the live views the API reports on.
type Deps struct {
	// Clients returns the number of connected WebSocket clients.
	Clients func() int

	// Schedule returns the broadcaster's current pacing. Optional.
	Schedule func() ws.Schedule

	// FeedIDs returns the generator's current feed set. Optional.
	FeedIDs func() []string

	// Started is when the server came up.
	Started time.Time
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	deps Deps
	now  func() time.Time
	mux  chi.Router
}

// New creates a Handler with its own router. Use Register to mount the same
// routes on a shared router instead.
func New(deps Deps) *Handler {
	if deps.Clients == nil {
		deps.Clients = func() int { return 0 }
	}
	if deps.Started.IsZero() {
		deps.Started = time.Now()
	}
	h := &Handler{deps: deps, now: time.Now}

	r := chi.NewRouter()
	r.MethodNotAllowed(MethodNotAllowed)
	r.NotFound(NotFound)
	h.Register(r)
	h.mux = r
	return h
}

// Register adds the /api/v1 routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/health", h.health)
	r.Get("/api/v1/status", h.status)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// MethodNotAllowed writes a JSON 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
}

// NotFound writes a JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonErr(w, http.StatusNotFound, "not found")
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Clients:       h.deps.Clients(),
		UptimeSeconds: int64(h.now().Sub(h.deps.Started).Seconds()),
	})
}

// status returns GET /api/v1/status.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Clients:   h.deps.Clients(),
		FeedIDs:   []string{},
		StartedAt: h.deps.Started.UTC().Format(time.RFC3339),
	}
	if h.deps.FeedIDs != nil {
		resp.FeedIDs = h.deps.FeedIDs()
	}
	if h.deps.Schedule != nil {
		s := h.deps.Schedule()
		resp.Schedule = ScheduleResponse{
			MinIntervalMs: s.MinInterval.Milliseconds(),
			MaxIntervalMs: s.MaxInterval.Milliseconds(),
			IdlePollMs:    s.IdlePoll.Milliseconds(),
		}
	}
	jsonResp(w, http.StatusOK, resp)
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
