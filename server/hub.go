package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/phanxgames/canopy"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 64
)

// Message is one websocket frame sent to subscribers. The first frame on a
// connection is a snapshot; every later frame is a change.
type Message struct {
	Type     string              `json:"type"`
	Snapshot *canopy.Snapshot    `json:"snapshot,omitempty"`
	Change   *canopy.ChangeEvent `json:"change,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans store changes out to websocket subscribers. It is a
// canopy.Observer and never blocks the engine: a subscriber whose buffer is
// full is disconnected.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *log.Logger
	closed   bool
}

func newHub(logger *log.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BlockChanged implements canopy.Observer.
func (h *Hub) BlockChanged(ev canopy.ChangeEvent) {
	data, err := json.Marshal(Message{Type: "change", Change: &ev})
	if err != nil {
		h.logger.Error("encode change", "err", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow subscriber", "remote", c.conn.RemoteAddr())
			h.drop(c)
		}
	}
}

// drop unregisters c. Callers hold h.mu.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// accept switches the request to a websocket. The client is not yet
// registered.
func (h *Hub) accept(w http.ResponseWriter, r *http.Request) (*client, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &client{conn: conn, send: make(chan []byte, sendBufferSize)}, nil
}

// register queues first as c's initial frame and starts delivering
// broadcasts. It reports false once the hub is closed.
func (h *Hub) register(c *client, first []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- first
	h.clients[c] = struct{}{}
	h.logger.Debug("subscriber connected", "remote", c.conn.RemoteAddr())
	return true
}

func (h *Hub) run(c *client) {
	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound frames and unregisters on disconnect.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.drop(c)
		h.mu.Unlock()
		c.conn.Close()
		h.logger.Debug("subscriber disconnected", "remote", c.conn.RemoteAddr())
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
}
