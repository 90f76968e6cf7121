package http

import (
	"net/http"

	"signal-backend/internal/domain"
	"signal-backend/internal/usecase"
)

type SignalHandler struct {
	svc *usecase.SignalService
}

func NewSignalHandler(svc *usecase.SignalService) *SignalHandler {
	return &SignalHandler{svc: svc}
}

// Create handles POST /api/signals. The message is run through the channel's active templates.
func (h *SignalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateSignalInput
	if !decodeJSON(w, r, &req) {
		return
	}
	sig, err := h.svc.Create(r.Context(), principalFrom(r.Context()).AccountID.String(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, sig)
}

func (h *SignalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sig, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sig)
}

// ListByChannel handles GET /api/channels/{id}/signals
func (h *SignalHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.SignalFilter{
		Symbol:             q.Get("symbol"),
		SignalType:         q.Get("signal_type"),
		PerformanceOutcome: q.Get("performance_outcome"),
	}
	if filter.Limit, ok = queryInt(w, r, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, r, "offset"); !ok {
		return
	}
	signals, err := h.svc.ListByChannel(r.Context(), id, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, signals)
}

// ListMine handles GET /api/signals/user/me
func (h *SignalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}
	signals, err := h.svc.ListForUser(r.Context(), principalFrom(r.Context()).AccountID.String(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, signals)
}

func (h *SignalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req usecase.SignalUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	sig, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, sig)
}

func (h *SignalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "Signal deleted successfully")
}
