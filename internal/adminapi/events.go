package adminapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types published on /events.
const (
	EventTasksChanged = "tasks.changed"
	EventRepsChanged  = "representatives.changed"
)

// Event is a change notification pushed to dashboard subscribers.
type Event struct {
	Type   string `json:"type"`
	TaskID string `json:"taskId,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16
)

type subscriber struct {
	conn *websocket.Conn
	send chan Event
	done chan struct{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	})
}

// Hub fans out events to websocket subscribers.
type Hub struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logger       *slog.Logger

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates a hub. A zero pingInterval disables keepalive pings.
func NewHub(pingInterval time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingInterval: pingInterval,
		logger:       logger,
		subs:         make(map[*subscriber]struct{}),
	}
}

// Publish delivers ev to every subscriber. Subscribers whose queue is full
// are dropped rather than blocking the publisher.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- ev:
		default:
			h.logger.Warn("dropping slow event subscriber")
			delete(h.subs, sub)
			go sub.close()
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects all subscribers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.closed = true
	h.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

// ServeHTTP upgrades the request and streams events until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan Event, clientSendSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("event subscriber connected", "remote", r.RemoteAddr)

	go h.writeLoop(sub)
	h.readLoop(sub)

	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
	h.logger.Debug("event subscriber disconnected", "remote", r.RemoteAddr)
}

// readLoop discards inbound frames; it exists to process control frames and
// notice when the peer closes.
func (h *Hub) readLoop(sub *subscriber) {
	sub.conn.SetReadLimit(4096)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	var tick <-chan time.Time
	if h.pingInterval > 0 {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-sub.done:
			return
		case ev := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteJSON(ev); err != nil {
				sub.close()
				return
			}
		case <-tick:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				sub.close()
				return
			}
		}
	}
}
