package rest

import (
	"context"
	"net/http"

	"github.com/VoidGod00/simple-chat/pkg/logger"
	"github.com/VoidGod00/simple-chat/service"
)

type RESTConfig struct {
	ChatService  service.ChatService
	RootCtx      context.Context
	HistoryLimit int // default window for GET messages without ?limit
}

func SetupRESTRoutes(cfg RESTConfig) http.Handler {
	h := &Handler{
		chatService:  cfg.ChatService,
		logger:       logger.FromContext(cfg.RootCtx).WithModule("rest"),
		historyLimit: cfg.HistoryLimit,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chatapp/chatrooms", h.createRoom)
	mux.HandleFunc("GET /api/chatapp/chatrooms", h.listRooms)
	mux.HandleFunc("POST /api/chatapp/chatrooms/{room}/join", h.joinRoom)
	mux.HandleFunc("GET /api/chatapp/chatrooms/{room}/members", h.listMembers)
	mux.HandleFunc("POST /api/chatapp/chatrooms/{room}/messages", h.sendMessage)
	mux.HandleFunc("GET /api/chatapp/chatrooms/{room}/messages", h.getHistory)
	return mux
}
