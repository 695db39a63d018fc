package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/metrics"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxInboundSize caps inbound frames; clients are not expected to send any.
	maxInboundSize = 512

	// DefaultSendBuffer is the per-client outgoing message queue depth.
	DefaultSendBuffer = 16
)

// Handler serves the WebSocket endpoint and owns each connection's lifetime.
type Handler struct {
	reg        *Registry
	log        *slog.Logger
	metrics    *metrics.Metrics
	sendBuffer int
	upgrader   websocket.Upgrader
}

// NewHandler returns a Handler registering clients in reg. sendBuffer below 1
// falls back to DefaultSendBuffer; log and m may be nil.
func NewHandler(reg *Registry, sendBuffer int, log *slog.Logger, m *metrics.Metrics) *Handler {
	if sendBuffer < 1 {
		sendBuffer = DefaultSendBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		reg:        reg,
		log:        log,
		metrics:    m,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Allow all origins; callers should apply CORS at the reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request, registers the client and blocks until the
// connection closes. The client is unregistered on every exit path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		h.log.Debug("ws: upgrade failed", "remote_addr", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(wsConn, h.sendBuffer)
	h.reg.Register(c)
	h.metrics.IncConnections()
	h.log.Info("client connected", "client_id", c.id, "remote_addr", r.RemoteAddr, "clients", h.reg.Len())

	defer func() {
		h.reg.Unregister(c)
		c.Close() //nolint:errcheck
		h.log.Info("client disconnected", "client_id", c.id, "remote_addr", r.RemoteAddr, "clients", h.reg.Len())
	}()

	go c.writePump()
	c.readPump() // blocks until the connection closes
}

// conn is a Client backed by a gorilla WebSocket connection.
type conn struct {
	id string
	ws *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newConn(ws *websocket.Conn, buf int) *conn {
	return &conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, buf),
	}
}

func (c *conn) ID() string { return c.id }

// Send queues msg for the write pump without blocking.
func (c *conn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close stops the write pump, which sends a close frame and tears down the
// connection. Safe to call more than once.
func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// writePump drains the send queue to the connection and sends periodic pings.
// Runs in its own goroutine per client.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close() //nolint:errcheck
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames and returns once the peer closes or the
// connection fails.
func (c *conn) readPump() {
	defer c.ws.Close()
	c.ws.SetReadLimit(maxInboundSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
