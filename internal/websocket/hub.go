package websocket

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/bloghub/posts-service/internal/types"
)

// Hub maintains the set of active clients and broadcasts post events to them
type Hub struct {
	// Registered clients mapped by user ID
	clients map[int64]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *types.Event, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// If user already has a connection, close the old one
			if existingClient, exists := h.clients[client.userID]; exists {
				close(existingClient.send)
				slog.Info("Replaced existing WebSocket connection", slog.Int64("user_id", client.userID))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.Int64("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			// Only drop the exact client that asked; a stale unregister
			// from a replaced connection must not tear down its successor.
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.Int64("user_id", client.userID))
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.broadcastToAll(event)
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastAll sends an event to every connected client. Post events are
// public, so there is no per-user routing.
func (h *Hub) BroadcastAll(event *types.Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("Broadcast channel is full, dropping message")
	}
}

// broadcastToAll is the internal method that actually sends messages
func (h *Hub) broadcastToAll(event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, client := range h.clients {
		err := client.SendEvent(event)
		if err != nil {
			slog.Error("Failed to send event to client",
				slog.String("user_id", strconv.FormatInt(userID, 10)),
				slog.String("error", err.Error()))
			// Remove the client if sending fails
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
