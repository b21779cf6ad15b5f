package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/memberhub/apiserver/internal/logging"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/types"
)

type ChatHandler struct {
	chat *services.ChatService
	log  logging.Logger
}

func NewChatHandler(chat *services.ChatService, log logging.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

func ChatRouter(r chi.Router, chat *services.ChatService, authMiddleware func(http.Handler) http.Handler, log logging.Logger) {
	handler := NewChatHandler(chat, log)

	r.With(authMiddleware).Get("/chat", handler.List)
	r.With(authMiddleware).Post("/chat", handler.Post)
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chat.ListVisible(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatListResponse{Messages: messages})
}

func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req PostChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request")
		return
	}

	msg, err := h.chat.Post(r.Context(), principal(r), req.Message)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type PostChatRequest struct {
	Message string `json:"message"`
}

type ChatListResponse struct {
	Messages []types.ChatMessage `json:"messages"`
}
