package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/signalmesh/advisor/internal/engine"
)

// Hub pushes fresh recommendations to websocket subscribers. Slow
// clients are dropped rather than allowed to stall the broadcast.
type Hub struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan *engine.Recommendation
	closed  bool

	// onChange reports the subscriber count after every join/leave.
	onChange func(int)
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     logger.With().Str("component", "stream").Logger(),
		clients: make(map[*websocket.Conn]chan *engine.Recommendation),
	}
}

// Serve upgrades the connection and streams recommendations until the
// client disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch := make(chan *engine.Recommendation, 16)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = ch
	h.notifyLocked()
	h.mu.Unlock()

	go h.writeLoop(conn, ch)
	h.readLoop(conn)
}

// Broadcast fans a recommendation out to every subscriber.
func (h *Hub) Broadcast(rec *engine.Recommendation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- rec:
		default:
			// back-pressured client, drop it
			delete(h.clients, conn)
			close(ch)
			conn.Close()
		}
	}
	h.notifyLocked()
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, ch := range h.clients {
		delete(h.clients, conn)
		close(ch)
		conn.Close()
	}
	h.notifyLocked()
}

// Subscribers returns the current client count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch <-chan *engine.Recommendation) {
	for rec := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(rec); err != nil {
			h.remove(conn)
			return
		}
	}
}

// readLoop drains client frames so pings and close frames are handled.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
		h.notifyLocked()
	}
	conn.Close()
}

func (h *Hub) notifyLocked() {
	if h.onChange != nil {
		h.onChange(len(h.clients))
	}
}
