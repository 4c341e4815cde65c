package sse

import (
	"path"
	"sync"

	"github.com/kbukum/taskflow/logger"
)

// clientBuffer is how many frames a client may lag behind before frames
// are dropped for it.
const clientBuffer = 256

// Client is one connected event stream. It receives every frame whose topic
// matches its filter.
type Client struct {
	id     string
	filter string
	events chan []byte
}

// NewClient creates a client. filter is a path.Match pattern over topics,
// e.g. TopicAll or RunTopic(id).
func NewClient(id, filter string) *Client {
	return &Client{
		id:     id,
		filter: filter,
		events: make(chan []byte, clientBuffer),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Filter returns the client's topic pattern.
func (c *Client) Filter() string { return c.filter }

// Events returns the channel of frames to write.
func (c *Client) Events() <-chan []byte { return c.events }

// Send queues a frame. It returns false and drops the frame if the client
// is too slow.
func (c *Client) Send(frame []byte) bool {
	select {
	case c.events <- frame:
		return true
	default:
		logger.Warn("event client too slow, dropping frame", logger.Fields("client_id", c.id))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() {
	close(c.events)
}

func (c *Client) matches(topic string) bool {
	ok, err := path.Match(c.filter, topic)
	if err != nil {
		logger.Error("bad event filter", logger.Fields(
			"client_id", c.id,
			"filter", c.filter,
			logger.FieldError, err.Error(),
		))
		return false
	}
	return ok
}

// Message is a frame addressed to a topic.
type Message struct {
	Topic string
	Data  []byte
}

// Hub owns the connected clients and fans frames out to them. All client
// bookkeeping happens on the goroutine running Run.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
}

// NewHub creates a hub. Start it with go hub.Run().
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, clientBuffer),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns after Stop, having closed every
// client.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("event client registered", logger.Fields("client_id", client.id, "clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("event client unregistered", logger.Fields("client_id", client.id, "clients", total))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Stop shuts the hub down. Safe to call more than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client and closes it.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends frame to every client whose filter matches topic.
func (h *Hub) Broadcast(topic string, frame []byte) {
	select {
	case h.broadcast <- &Message{Topic: topic, Data: frame}:
	case <-h.done:
	}
}

func (h *Hub) deliver(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.matches(msg.Topic) {
			client.Send(msg.Data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
