package handlers

import (
	"errors"
	"net/http"

	"github.com/vedran77/parley/internal/service"
)

type ChannelHandler struct {
	channelService *service.ChannelService
}

func NewChannelHandler(channelService *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channelService.List(r.Context())
	if err != nil {
		writeFailure(w, r, "list channels", err)
		return
	}

	writeJSON(w, r, http.StatusOK, channels)
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateChannelInput
	if !decodeJSON(w, r, &input) {
		return
	}

	id, err := h.channelService.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrChannelNameTaken) {
			writeError(w, r, http.StatusConflict, "NAME_TAKEN", "A channel with this name already exists")
			return
		}
		writeFailure(w, r, "create channel", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, idResponse{ID: id})
}

// Get answers null when the channel does not exist.
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	ch, err := h.channelService.Get(r.Context(), channelID)
	if err != nil {
		writeFailure(w, r, "get channel", err)
		return
	}

	writeJSON(w, r, http.StatusOK, ch)
}
