// Package hub fans dashboard messages out to websocket clients through a single
// broadcast goroutine. Every message is a JSON text frame.
package hub

import (
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-arcade/internal/log"
	"github.com/teslashibe/go-arcade/pkg/protocol"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	// Registered clients
	clients map[*Client]bool

	// Encoded frames to broadcast
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed by Stop
	quit     chan struct{}
	stopOnce sync.Once

	// Greeting builds the first message a new client receives; nil sends nothing
	Greeting func() ([]byte, bool)

	// OnReceive is called from client read pumps with every text frame a client sends
	OnReceive func(data []byte)

	mu      sync.RWMutex
	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			if h.Greeting != nil {
				if msg, ok := h.Greeting(); ok {
					client.send <- msg
				}
			}
			log.Debug("websocket client connected", "hub", h.name, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("websocket client disconnected", "hub", h.name, "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full, drop it
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow websocket client", "hub", h.name)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends Run and closes every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Broadcast queues an encoded frame for all connected clients. It never blocks.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		if h.dropped.Add(1) == 1 {
			log.Warn("broadcast channel full, dropping messages", "hub", h.name)
		}
	}
}

// BroadcastProtocol encodes and broadcasts a protocol envelope
func (h *Hub) BroadcastProtocol(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were discarded because the queue was full
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
