package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
)

// MessageType is the type of a message sent to /ops clients.
type MessageType string

const (
	MessageOp     MessageType = "op"
	MessageCommit MessageType = "commit"
)

// Message is sent to /ops clients as JSON.
type Message struct {
	Type MessageType `json:"type"`
	Op   *host.Op    `json:"op,omitempty"`
	Root string      `json:"root,omitempty"`
}

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

// Hub fans host operations out to WebSocket clients. Slow clients lose
// messages rather than stalling the engine.
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates a hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Read-only debugging stream
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and streams messages until the client
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("ops upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// BroadcastOp sends a host operation to every client. It has the signature
// of a host.Memory subscriber.
func (h *Hub) BroadcastOp(op host.Op) {
	h.broadcast(Message{Type: MessageOp, Op: &op})
}

// BroadcastCommit tells clients that a pass rooted at root was committed.
func (h *Hub) BroadcastCommit(root string) {
	h.broadcast(Message{Type: MessageCommit, Root: root})
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("ops client lagging, message dropped")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

// Observer returns a fiber.Observer that announces commits to clients.
func (h *Hub) Observer() fiber.Observer {
	return commitObserver{h}
}

type commitObserver struct {
	h *Hub
}

func (o commitObserver) PassStarted(*fiber.Fiber, bool) {}
func (o commitObserver) Yielded()                       {}
func (o commitObserver) Redirected(string)              {}
func (o commitObserver) Queued()                        {}
func (o commitObserver) Failed(error)                   {}
func (o commitObserver) EffectRan(bool)                 {}

func (o commitObserver) Committed(st fiber.PassStats) {
	o.h.BroadcastCommit(st.Root)
}
