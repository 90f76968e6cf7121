package http

import (
	"net/http"

	"github.com/google/uuid"

	"signal-backend/internal/usecase"
)

type ChannelHandler struct {
	svc *usecase.ChannelService
}

func NewChannelHandler(svc *usecase.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

type reassignRequest struct {
	AccountID *uuid.UUID `json:"account_id"`
}

// Create handles POST /api/channels. The caller owns the channel unless account_id says otherwise.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req usecase.ChannelInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AccountID == nil {
		id := principalFrom(r.Context()).AccountID
		req.AccountID = &id
	}
	ch, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, ch)
}

// ListMine handles GET /api/accounts/channels?status=
func (h *ChannelHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	channels, err := h.svc.ListForAccount(r.Context(), principalFrom(r.Context()).AccountID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, channels)
}

func (h *ChannelHandler) ListOrphaned(w http.ResponseWriter, r *http.Request) {
	channels, err := h.svc.ListOrphaned(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, channels)
}

func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ch, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ch)
}

func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req usecase.ChannelUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	ch, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ch)
}

// Reassign handles POST /api/channels/{id}/reassign. An empty body assigns the channel to the caller.
func (h *ChannelHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reassignRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	target := principalFrom(r.Context()).AccountID
	if req.AccountID != nil {
		target = *req.AccountID
	}
	ch, err := h.svc.Reassign(r.Context(), id, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, ch)
}

func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "Channel deleted successfully")
}
