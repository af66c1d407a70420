// Package statusapi exposes the cluster's live status over HTTP for
// operators and dashboards: a JSON snapshot endpoint plus a websocket
// stream of role-transition events, adapted from the teacher's
// monitoring websocket hub and HA HTTP handler.
package statusapi

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one role-transition or liveness event pushed to connected
// websocket clients.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Device    string    `json:"device"`
	Detail    string    `json:"detail"`
}

// Hub fans a stream of Events out to every connected websocket client.
// Registration and broadcast both go through channels and are handled
// by the single goroutine running Run; that goroutine still takes mu
// around every access to the client map.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan Event
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewHub returns a Hub with no clients registered. Call Run in its own
// goroutine before registering any client.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run is the hub's event loop. It returns once stopCh is closed, after
// closing every connected client.
func (h *Hub) Run(stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
			}
			h.clients = nil
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteJSON(event); err != nil {
					log.Printf("statusapi: websocket write error: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.register <- conn
}

// Unregister removes a client connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.unregister <- conn
}

// Publish broadcasts an event to every connected client without
// blocking; a full channel drops the event rather than stall the
// caller (the supervisor loop).
func (h *Hub) Publish(eventType, device, detail string) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Device:    device,
		Detail:    detail,
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("statusapi: broadcast channel full, dropping %s event for %s", eventType, device)
	}
}
