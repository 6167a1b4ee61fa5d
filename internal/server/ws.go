package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/pointer"
)

const (
	hubQueueSize = 256
	writeTimeout = time.Second
)

// ErrHubFull is returned by Dispatch when the broadcast queue is full and
// the event was dropped.
var ErrHubFull = errors.New("event hub queue full")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// boundsMessage is sent by a client to report the rectangle events map
// onto.
type boundsMessage struct {
	Type   string         `json:"type"`
	Bounds pointer.Bounds `json:"bounds"`
}

// Hub streams pointer events to WebSocket clients. It is the pointer
// target of the pipeline: Dispatch enqueues without blocking and a
// single goroutine started by Run writes to the clients.
type Hub struct {
	logger *slog.Logger
	queue  chan []byte

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	bounds  pointer.Bounds
}

// NewHub creates a hub mapping events onto bounds until a client reports
// its own.
func NewHub(bounds pointer.Bounds, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = log.L()
	}
	return &Hub{
		logger:  logger.With("component", "hub"),
		queue:   make(chan []byte, hubQueueSize),
		clients: make(map[*websocket.Conn]struct{}),
		bounds:  bounds,
	}
}

// Bounds implements pointer.Target.
func (h *Hub) Bounds() pointer.Bounds {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bounds
}

// SetBounds replaces the target rectangle.
func (h *Hub) SetBounds(b pointer.Bounds) {
	h.mu.Lock()
	h.bounds = b
	h.mu.Unlock()
}

// Dispatch implements pointer.Target.
func (h *Hub) Dispatch(ev pointer.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.queue <- msg:
		return nil
	default:
		return ErrHubFull
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts queued events until ctx is done, then closes every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.queue:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping client", "remote", conn.RemoteAddr().String(), "error", err)
			h.remove(conn)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	for conn := range conns {
		conn.Close()
	}
}

// ServeHTTP upgrades the request and registers the client. Clients may
// send {"type":"bounds","bounds":{...}} to resize the target.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client connected", "remote", conn.RemoteAddr().String())

	defer h.remove(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg boundsMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "bounds" {
			continue
		}
		if msg.Bounds.Width > 0 && msg.Bounds.Height > 0 {
			h.SetBounds(msg.Bounds)
		}
	}
}
