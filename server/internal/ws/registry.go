package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
)

var (
	// ErrClientClosed is returned by Send once the client has been closed.
	ErrClientClosed = errors.New("ws: client closed")

	// ErrSlowClient is returned by Send when the client's queue is full.
	ErrSlowClient = errors.New("ws: client send queue full")
)

// Client is one registered connection.
//
// Send must not block: it either queues msg for delivery or returns an error.
// Close must be idempotent.
type Client interface {
	ID() string
	Send(msg []byte) error
	Close() error
}

// Registry is the set of live clients. It is safe for concurrent use.
type Registry struct {
	log *slog.Logger
	now func() time.Time

	mu      sync.RWMutex
	clients map[Client]struct{}
}

// NewRegistry creates an empty Registry. A nil log uses slog.Default().
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:     log,
		now:     time.Now,
		clients: make(map[Client]struct{}),
	}
}

// Register adds c to the set and sends it the welcome message. Registering a
// client that is already present does nothing.
func (r *Registry) Register(c Client) {
	welcome, err := detection.Marshal(detection.NewWelcome(r.now()))

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		return
	}
	r.clients[c] = struct{}{}

	if err != nil {
		r.log.Error("registry: encode welcome", "client_id", c.ID(), "err", err)
		return
	}
	// Sent under the write lock: no broadcast snapshot can include c yet.
	if err := c.Send(welcome); err != nil {
		r.log.Warn("registry: welcome not delivered", "client_id", c.ID(), "err", err)
	}
}

// Unregister removes c and reports whether it was present.
func (r *Registry) Unregister(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return false
	}
	delete(r.clients, c)
	return true
}

// Snapshot returns the current members. The slice is a copy and may be
// iterated while the set changes.
func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll unregisters and closes every client. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	targets := make([]Client, 0, len(r.clients))
	for c := range r.clients {
		targets = append(targets, c)
		delete(r.clients, c)
	}
	r.mu.Unlock()

	for _, c := range targets {
		c.Close() //nolint:errcheck
	}
}
