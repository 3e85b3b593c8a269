package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	gws "github.com/gorilla/websocket"

	"github.com/VoidGod00/simple-chat/internal/domain"
	"github.com/VoidGod00/simple-chat/internal/websocket"
	"github.com/VoidGod00/simple-chat/pkg/logger"
	"github.com/VoidGod00/simple-chat/service"
)

var upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for testing; restrict in production.
	},
}

// connSeq disambiguates listener IDs so the same user connected twice gets
// two independent room subscriptions.
var connSeq atomic.Uint64

// HandleWebSocket joins the caller to the requested room and streams its live
// broadcast events over the socket. Validation happens before the upgrade so
// failures still map to HTTP status codes.
func HandleWebSocket(
	hub *websocket.Hub,
	chatService service.ChatService,
	logg logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("room")
		username := r.URL.Query().Get("username")
		if room == "" || username == "" {
			http.Error(w, "room and username query params are required", http.StatusBadRequest)
			return
		}

		// The subscription must outlive this handler, not the request.
		ctx := context.Background()

		if err := chatService.JoinRoom(ctx, room, username); err != nil {
			if errors.Is(err, domain.ErrRoomNotFound) {
				http.Error(w, "room does not exist", http.StatusNotFound)
				return
			}
			logg.Errorf("[WS HANDLER] join failed for %s/%s: %v", room, username, err)
			http.Error(w, "failed to join room", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("[WS HANDLER] Upgrade error: %v", err)
			return
		}

		// Each socket owns its own subscription; a second tab with the same
		// username must not share or tear down the first one's delivery.
		listenerID := fmt.Sprintf("%s#%d", username, connSeq.Add(1))

		client := &websocket.Connection{
			Ws:          conn,
			Send:        make(chan domain.ChatMessage, 256),
			Hub:         hub,
			Username:    username,
			ListenerID:  listenerID,
			Room:        room,
			ChatService: chatService,
			Logger:      logg,
		}

		err = chatService.SubscribeRoom(ctx, room, listenerID, func(msg domain.ChatMessage) {
			select {
			case client.Send <- msg:
			default:
				// Slow consumer: live delivery is fire-and-forget, drop.
			}
		})
		if err != nil {
			logg.Errorf("[WS HANDLER] subscribe failed for %s/%s: %v", room, username, err)
			conn.Close()
			return
		}

		hub.Register <- client
		logg.Infof("[WS HANDLER] New connection from %s (user=%s room=%s)", conn.RemoteAddr(), username, room)

		go client.ReadPump()
		go client.WritePump()
	}
}
