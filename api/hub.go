package api

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockrec/internal/store"
)

// Message types pushed to WebSocket clients.
const (
	MsgSnapshot = "snapshot"
	MsgPong     = "pong"
	MsgError    = "error"
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

type directMessage struct {
	client *WSClient
	msg    WSMessage
}

// WSHub manages WebSocket connections and message broadcasting.
// Only the Serve loop writes to or closes a client's send channel.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool

	broadcast  chan WSMessage
	direct     chan directMessage
	register   chan *WSClient
	unregister chan *WSClient

	done     chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub(logger zerolog.Logger) *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		direct:     make(chan directMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "ws-hub").Logger(),
	}
}

// Serve runs the hub event loop until ctx is cancelled. All connected
// clients are closed on return.
func (h *WSHub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.stopOnce.Do(func() { close(h.done) })
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case d := <-h.direct:
			h.mu.Lock()
			if h.clients[d.client] {
				h.deliver(d.client, d.msg)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.deliver(client, msg)
			}
			h.mu.Unlock()
		}
	}
}

func (h *WSHub) String() string { return "ws-hub" }

// must be called with mu held
func (h *WSHub) deliver(client *WSClient, msg WSMessage) {
	select {
	case client.send <- msg:
	default:
		h.logger.Warn().Str("type", msg.Type).Msg("dropping slow WebSocket client")
		h.remove(client)
	}
}

// must be called with mu held
func (h *WSHub) remove(client *WSClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// Send queues a message for a single client.
func (h *WSHub) Send(client *WSClient, msg WSMessage) {
	select {
	case h.direct <- directMessage{client: client, msg: msg}:
	default:
	}
}

// PublishSnapshot broadcasts the statistics of a newly swapped snapshot.
// It has the signature of a store.Holder subscriber.
func (h *WSHub) PublishSnapshot(s *store.Snapshot) {
	if s == nil {
		return
	}
	h.Broadcast(WSMessage{Type: MsgSnapshot, Data: s.Stats()})
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. It returns false once the hub has stopped.
func (h *WSHub) Register(client *WSClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
