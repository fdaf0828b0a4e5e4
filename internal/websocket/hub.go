package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients and routes messages to them
type Hub struct {
	// Registered clients by user ID
	clients map[uint]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// Message is an outbound WebSocket frame
type Message struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client registered: user=%d", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("WebSocket client unregistered: user=%d", client.UserID)
		}
	}
}

// BroadcastToUser sends a payload to every connection of one user.
// Slow clients are dropped rather than blocking the hub.
func (h *Hub) BroadcastToUser(userID uint, payload map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- &Message{Type: "notification", Payload: payload}:
		default:
			close(client.send)
			delete(h.clients[userID], client)
		}
	}
}
