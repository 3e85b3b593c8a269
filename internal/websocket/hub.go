package websocket

import (
	"sync"
)

// Hub tracks the websocket connections of this process instance so they can
// be closed together on shutdown. Message fan-out does not go through the
// hub; each connection carries its own room subscription.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Connection]bool
	closed     bool
	done       chan struct{}
	Register   chan *Connection
	Unregister chan *Connection
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Connection]bool),
		done:       make(chan struct{}),
		Register:   make(chan *Connection),
		Unregister: make(chan *Connection),
	}
}

// Run handles connection churn until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.addClient(conn)
		case conn := <-h.Unregister:
			h.removeClient(conn)
		case <-h.done:
			return
		}
	}
}

// Close shuts down the Hub: the Run loop stops, all tracked connections are
// closed, and any later registration attempt is closed immediately instead of
// being tracked. Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.done)

	for conn := range h.clients {
		close(conn.Send)
		if conn.Ws != nil {
			conn.Ws.Close()
		}
		delete(h.clients, conn)
	}
}

func (h *Hub) addClient(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(conn.Send)
		if conn.Ws != nil {
			conn.Ws.Close()
		}
		return
	}
	h.clients[conn] = true
}

func (h *Hub) removeClient(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[conn]; exists {
		delete(h.clients, conn)
		close(conn.Send)
	}
}
