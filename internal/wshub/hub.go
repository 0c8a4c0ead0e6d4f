package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"chainstats/internal/logger"

	"github.com/coder/websocket"
)

// ClientMessage is the JSON structure received from clients. A "view" message
// changes the range and filter of the snapshots pushed to that client.
type ClientMessage struct {
	Type   string `json:"t"`
	Range  string `json:"range,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type     string      `json:"t"`
	Snapshot interface{} `json:"snapshot,omitempty"`
	Error    string      `json:"error,omitempty"`
}

const (
	TypeSnapshot = "snapshot"
	TypeError    = "error"
	TypeView     = "view"
)

// View is the range and filter a client is looking at.
type View struct {
	Range  string
	Filter string
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ID       string
	Operator string
	Conn     *websocket.Conn
	Send     chan []byte

	mu   sync.Mutex
	view View
}

func (c *Client) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

func (c *Client) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks the operators watching the live dashboard.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		log:     log.Component("hub"),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.Send)
		delete(h.clients, id)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Clients returns the registered clients at the time of the call.
func (h *Hub) Clients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// SendTo queues msg for one client. Non-blocking: drops if channel full.
func (h *Hub) SendTo(id string, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal failed", "type", msg.Type, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		h.log.Warn("dropped message for slow client", "client", id, "type", msg.Type)
		return false
	}
}

// Broadcast sends msg to every client. Non-blocking: drops if channel full.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal failed", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}
