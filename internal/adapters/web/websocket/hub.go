// Package websocket pushes freshly computed risk assessments to connected
// operator clients.
package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/threatwatch-io/threatwatch/internal/adapters/web/middleware"
	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow same-origin (no Origin header)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

// Message is the envelope for everything sent over the socket.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub manages connected clients and fans assessment updates out to them.
type Hub struct {
	clients   map[*websocket.Conn]*domain.User
	broadcast chan Message
	mu        sync.Mutex
}

// NewHub creates a hub. Start must be called before broadcasting.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]*domain.User),
		broadcast: make(chan Message, 64),
	}
}

// Start runs the broadcast loop until the context is cancelled.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				h.closeAll()
				return
			case msg := <-h.broadcast:
				h.send(msg)
			}
		}
	}()
}

// BroadcastAssessment queues an assessment update for all clients.
// Implements the orchestrator's Broadcaster contract; drops the update when
// the queue is full rather than blocking the analysis pipeline.
func (h *Hub) BroadcastAssessment(assessment domain.RiskAssessment) {
	select {
	case h.broadcast <- Message{Type: "assessment", Payload: assessment}:
	default:
		log.Println("WebSocket: broadcast queue full, dropping assessment update")
	}
}

// HandleWebSocket upgrades an authenticated request to a socket connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = user
	h.mu.Unlock()

	log.Printf("WebSocket connected: user=%s, role=%s", user.Username, user.Role)

	// Reader loop only detects disconnects; clients never send commands.
	go func() {
		defer func() {
			conn.Close()
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			log.Printf("WebSocket disconnected: user=%s", user.Username)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) send(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("WebSocket write failed, dropping client: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
