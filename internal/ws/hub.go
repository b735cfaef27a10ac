package ws

import (
	"encoding/json"
	"sync"
)

// Client is a single WebSocket connection bound to an authenticated user.
type Client struct {
	UserID uint
	Role   string
	WardID *uint
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool
}

func NewClient(userID uint, role string, wardID *uint) *Client {
	return &Client{UserID: userID, Role: role, WardID: wardID, Send: make(chan []byte, 64)}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
	close(c.Send)
}

// Message is the envelope pushed to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks connected clients by user and by role.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// one user can have several tabs open
	byUser map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// SendToUser delivers msg to every connection of the user. Slow clients
// whose buffer is full miss the message.
func (h *Hub) SendToUser(userID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	deliver(targets, data)
}

// SendToWardStaff delivers msg to administrators and to officers of the ward.
func (h *Hub) SendToWardStaff(wardID uint, msg Message, roles ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	want := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		want[r] = struct{}{}
	}
	h.mu.RLock()
	var targets []*Client
	for c := range h.clients {
		if _, ok := want[c.Role]; !ok {
			continue
		}
		if c.WardID != nil && *c.WardID != wardID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	deliver(targets, data)
}

func deliver(targets []*Client, data []byte) {
	for _, c := range targets {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
			default:
			}
		}
		c.mu.Unlock()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
