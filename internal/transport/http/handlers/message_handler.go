package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
	searchService  *service.SearchService
}

func NewMessageHandler(messageService *service.MessageService, searchService *service.SearchService) *MessageHandler {
	return &MessageHandler{messageService: messageService, searchService: searchService}
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	msgs, err := h.messageService.List(r.Context(), channelID)
	if err != nil {
		writeFailure(w, r, "list messages", err)
		return
	}

	writeJSON(w, r, http.StatusOK, msgs)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	var input service.SendMessageInput
	if !decodeJSON(w, r, &input) {
		return
	}

	id, err := h.messageService.Send(r.Context(), channelID, input)
	if err != nil {
		writeFailure(w, r, "send message", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, idResponse{ID: id})
}

func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	var channelID *uuid.UUID
	if raw := r.URL.Query().Get("channel_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
			return
		}
		channelID = &id
	}

	results, err := h.searchService.Search(r.Context(), r.URL.Query().Get("q"), channelID)
	if err != nil {
		writeFailure(w, r, "search messages", err)
		return
	}

	writeJSON(w, r, http.StatusOK, results)
}
