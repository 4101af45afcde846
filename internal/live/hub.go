// Package live pushes plant events to websocket subscribers.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msalah0e/h2canvas/internal/api"
)

const (
	sendBuffer   = 64
	pingInterval = 30 * time.Second
	writeWait    = 5 * time.Second
)

type client struct {
	id   uint64
	conn *websocket.Conn
	send chan api.Event
}

// Hub fans events out to every connected subscriber. A subscriber whose
// buffer is full is disconnected instead of slowing the others down.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan api.Event
	done       chan struct{}

	nextID  atomic.Uint64
	clients atomic.Int64
}

// NewHub creates a hub. Call Run to start delivering events.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan api.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run delivers events until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	set := make(map[*client]struct{})
	defer func() {
		close(h.done)
		for c := range set {
			close(c.send)
		}
		h.clients.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			set[c] = struct{}{}
			h.clients.Store(int64(len(set)))
			h.log.Info("live client connected", "client", c.id)

		case c := <-h.unregister:
			if _, ok := set[c]; ok {
				delete(set, c)
				close(c.send)
				h.clients.Store(int64(len(set)))
				h.log.Info("live client disconnected", "client", c.id)
			}

		case ev := <-h.broadcast:
			for c := range set {
				select {
				case c.send <- ev:
				default:
					delete(set, c)
					close(c.send)
					h.log.Warn("dropping slow live client", "client", c.id)
				}
			}
			h.clients.Store(int64(len(set)))
		}
	}
}

// Publish queues ev for delivery. It never blocks; when the queue is full
// the event is dropped.
func (h *Hub) Publish(ev api.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("live queue full, event dropped", "type", ev.Type)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// ServeHTTP upgrades the request and subscribes the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   h.nextID.Add(1),
		conn: conn,
		send: make(chan api.Event, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				h.log.Debug("live write failed", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; subscribers never send events.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("live read failed", "client", c.id, "error", err)
			}
			return
		}
	}
}
