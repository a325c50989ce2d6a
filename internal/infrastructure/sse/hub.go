package sse

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dataspace-connector/connector/internal/domain/event"
)

const clientBuffer = 64

var _ event.Publisher = (*Hub)(nil)

// Client is one open event stream. An empty NegotiationID subscribes to
// every negotiation.
type Client struct {
	ClientID      string
	NegotiationID string
	ConnectedAt   time.Time
	Events        chan *event.Event
	dropped       atomic.Int64
}

func NewClient(clientID, negotiationID string) *Client {
	return &Client{
		ClientID:      clientID,
		NegotiationID: negotiationID,
		ConnectedAt:   time.Now().UTC(),
		Events:        make(chan *event.Event, clientBuffer),
	}
}

// Dropped returns how many events were discarded because the client fell
// behind.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Client) wants(evt *event.Event) bool {
	return c.NegotiationID == "" || c.NegotiationID == evt.NegotiationID
}

// Hub fans lifecycle events out to SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	stopped bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client, replacing any client with the same id. After
// Stop, the client's stream is closed at once.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		close(client.Events)
		return
	}
	if old, ok := h.clients[client.ClientID]; ok {
		close(old.Events)
	}
	h.clients[client.ClientID] = client
}

// Unregister removes client if it is still the registered one for its id.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[client.ClientID]; ok && c == client {
		close(c.Events)
		delete(h.clients, client.ClientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers evt to every interested client without blocking.
func (h *Hub) Publish(evt *event.Event) {
	if evt == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.wants(evt) {
			trySend(c, evt)
		}
	}
}

// Stop closes every client stream and refuses later registrations.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for id, c := range h.clients {
		close(c.Events)
		delete(h.clients, id)
	}
}

func trySend(c *Client, evt *event.Event) bool {
	select {
	case c.Events <- evt:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}
