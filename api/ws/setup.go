package ws

import (
	"context"
	"net/http"

	"github.com/VoidGod00/simple-chat/internal/websocket"
	"github.com/VoidGod00/simple-chat/pkg/logger"
	"github.com/VoidGod00/simple-chat/service"
)

type WSConfig struct {
	Hub         *websocket.Hub
	ChatService service.ChatService
	RootCtx     context.Context
}

func SetupWebSocketRoutes(cfg WSConfig) http.Handler {
	mux := http.NewServeMux()
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")
	mux.HandleFunc("/ws", HandleWebSocket(cfg.Hub, cfg.ChatService, log))
	return mux
}
