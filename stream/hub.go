// Package stream publishes engine events to WebSocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventType partitions the outbound feed.
type EventType string

const (
	EventQuote    EventType = "quote"
	EventFill     EventType = "fill"
	EventBreach   EventType = "breach"
	EventDetector EventType = "detector"
)

// Event is one published engine event.
type Event struct {
	Type      EventType       `json:"type"`
	Symbol    string          `json:"symbol,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent marshals payload into an Event. Marshal failures return a
// zero Event and false; the caller drops the publication.
func NewEvent(typ EventType, symbol string, payload any, now time.Time) (Event, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, false
	}
	return Event{Type: typ, Symbol: symbol, Timestamp: now, Payload: raw}, true
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to all connected subscribers. Slow consumers are
// dropped rather than allowed to stall the feed.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan Event

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub. log may be nil.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 1024),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.mu.RLock()
			var stalled []*client
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					stalled = append(stalled, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range stalled {
				h.log.Warn("dropping slow stream subscriber")
				h.drop(c)
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// Publish queues an event; it never blocks. A full broadcast queue drops
// the event.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("stream broadcast queue full, dropping event", zap.String("type", string(ev.Type)))
	}
}

// SubscriberCount reports the number of live connections.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan Event, 64)}
	h.register <- c
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound frames; the feed is one-way. It exists to
// notice client disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		default:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
