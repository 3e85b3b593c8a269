package websocket

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/VoidGod00/simple-chat/internal/domain"
	"github.com/VoidGod00/simple-chat/pkg/logger"
	"github.com/VoidGod00/simple-chat/service"
)

// Connection represents a single WebSocket client attached to one room.
type Connection struct {
	Ws          *websocket.Conn
	Send        chan domain.ChatMessage // outgoing broadcast events
	Hub         *Hub
	Username    string
	ListenerID  string // identifies this socket's room subscription
	Room        string
	ChatService service.ChatService
	Logger      logger.Logger
}

// ReadPump forwards every inbound frame through SendMessage, which stamps,
// persists, and broadcasts it. On exit the connection is detached from the
// hub and from the room's broadcast channel.
func (c *Connection) ReadPump() {
	defer func() {
		// Unsubscribe first. It blocks until the subscription's delivery
		// goroutine has exited, so nothing can land in Send after the hub
		// closes it below.
		if err := c.ChatService.UnsubscribeRoom(c.Room, c.ListenerID); err != nil {
			c.Logger.Errorf("failed to unsubscribe %s from room %s: %v", c.Username, c.Room, err)
		}
		c.Hub.Unregister <- c
		c.Ws.Close()
	}()

	for {
		var msg domain.ChatMessage
		if err := c.Ws.ReadJSON(&msg); err != nil {
			c.Logger.Debugf("connection for %s closed: %v", c.Username, err)
			break
		}

		participant := msg.Participant
		if participant == "" {
			participant = c.Username
		}

		// Timestamp and ordering are the server's; whatever the client put in
		// msg.Timestamp is dropped here.
		if _, err := c.ChatService.SendMessage(context.Background(), c.Room, participant, msg.Message); err != nil {
			c.Logger.Errorf("failed to send message from %s to room %s: %v", participant, c.Room, err)
		}
	}
}

// WritePump drains the send channel to the WebSocket until either side closes.
func (c *Connection) WritePump() {
	defer c.Ws.Close()

	for msg := range c.Send {
		if err := c.Ws.WriteJSON(msg); err != nil {
			c.Logger.Errorf("error sending message to %s: %v", c.Username, err)
			break
		}
	}
}
