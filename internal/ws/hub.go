// Package ws pushes live application events (call ticks, nudge state
// changes, reminder mutations) to connected frontends.
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message is the envelope sent to every connected client
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub tracks connected WebSocket clients and broadcasts events to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser frontend runs on a different origin in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Broadcast sends a message to all connected clients. Clients that fail to
// write are dropped.
func (h *Hub) Broadcast(messageType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	msg := Message{Type: messageType, Payload: payload}
	for client := range h.clients {
		if err := client.WriteJSON(msg); err != nil {
			h.logger.Debug("ws_client_write_failed", zap.Error(err))
			if closeErr := client.Close(); closeErr != nil {
				_ = closeErr
			}
			delete(h.clients, client)
		}
	}
}

// HandleConnection upgrades an HTTP request and registers the client until
// it disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws_client_connected", zap.Int("client_count", count))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		h.logger.Info("ws_client_disconnected")
	}()

	// Read loop; clients only listen, so this just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client (shutdown).
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if err := client.Close(); err != nil {
			_ = err
		}
		delete(h.clients, client)
	}
}
