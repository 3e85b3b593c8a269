package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/VoidGod00/simple-chat/internal/domain"
	"github.com/VoidGod00/simple-chat/pkg/logger"
	"github.com/VoidGod00/simple-chat/service"
)

// Handler is the thin HTTP adapter over the chat core: request decoding,
// error-to-status translation, nothing else.
type Handler struct {
	chatService  service.ChatService
	logger       logger.Logger
	historyLimit int
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoomName string `json:"roomName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chatService.CreateRoom(r.Context(), body.RoomName); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Room created successfully."})
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.chatService.ListRooms(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

func (h *Handler) joinRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Participant string `json:"participant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.chatService.JoinRoom(r.Context(), r.PathValue("room"), body.Participant); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Joined successfully."})
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.chatService.ListRoomMembers(r.Context(), r.PathValue("room"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if members == nil {
		members = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	// Decoded as a ChatMessage so existing clients can keep posting their full
	// message shape; any timestamp in the body is discarded by the core.
	var body domain.ChatMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.chatService.SendMessage(r.Context(), r.PathValue("room"), body.Participant, body.Message); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "success", Message: "Message sent."})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.historyLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.GetHistory(r.Context(), r.PathValue("room"), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// writeServiceError maps the core's error kinds onto status classes.
// Validation failures carry their message; anything else is a store or
// unexpected failure and gets an opaque body so internals never leak.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyArgument):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateRoom):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Errorf("request failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, message string) {
	h.writeJSON(w, code, statusResponse{Status: "error", Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Errorf("failed to encode response: %v", err)
	}
}
