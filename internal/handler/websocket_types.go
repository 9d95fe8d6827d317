// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"printer-service/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	subMutex      sync.RWMutex
	subscriptions map[model.EventType]bool
}

// Subscribe limits delivery to the given event type. A client with no
// subscriptions receives every event.
func (c *Client) Subscribe(eventType model.EventType) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()

	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	c.subscriptions[eventType] = true
}

// Unsubscribe removes an event type filter
func (c *Client) Unsubscribe(eventType model.EventType) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, eventType)
}

// Wants reports whether the client should receive events of this type
func (c *Client) Wants(eventType model.EventType) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return len(c.subscriptions) == 0 || c.subscriptions[eventType]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager manages WebSocket connections.
// A client's Send channel is closed only under the write lock, and every
// send to it happens under the read lock.
type ConnectionManager struct {
	clients map[string]*Client
	closed  bool
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client. It returns false after Close.
func (cm *ConnectionManager) Register(client *Client) bool {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.closed {
		return false
	}
	cm.clients[client.ID] = client
	return true
}

// Unregister removes a client and closes its Send channel
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Close unregisters every client and rejects new ones
func (cm *ConnectionManager) Close() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.closed = true
	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.Send)
	}
}

// Send queues a message for a registered client without blocking.
// It reports whether the message was queued.
func (cm *ConnectionManager) Send(client *Client, message []byte) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if _, ok := cm.clients[client.ID]; !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}

// GetClients returns all connected clients
func (cm *ConnectionManager) GetClients() []*Client {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	clients := make([]*Client, 0, len(cm.clients))
	for _, client := range cm.clients {
		clients = append(clients, client)
	}
	return clients
}

// ForEach calls fn for every client under the read lock
func (cm *ConnectionManager) ForEach(fn func(client *Client)) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, client := range cm.clients {
		fn(client)
	}
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	clients := cm.GetClients()
	return &ConnectionStats{
		TotalConnections: len(clients),
		Clients:          clients,
	}
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int       `json:"total_connections"`
	Clients          []*Client `json:"clients"`
}
