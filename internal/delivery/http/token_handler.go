package http

import (
	"net/http"

	"signal-backend/internal/usecase"
)

// TokenHandler manages push notification device registrations.
type TokenHandler struct {
	svc *usecase.NotificationService
}

func NewTokenHandler(svc *usecase.NotificationService) *TokenHandler {
	return &TokenHandler{svc: svc}
}

type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// HandleRegisterToken handles POST /api/devices/register
func (h *TokenHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, err := h.svc.RegisterDevice(r.Context(), principalFrom(r.Context()).AccountID, req.Token, req.Platform)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Token registered successfully", Count: &count})
}

// HandleUnregisterToken handles POST /api/devices/unregister
func (h *TokenHandler) HandleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	var req RegisterTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, err := h.svc.UnregisterDevice(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Token unregistered successfully", Count: &count})
}

// HandleGetTokenCount handles GET /api/devices/count
func (h *TokenHandler) HandleGetTokenCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.DeviceCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Token count retrieved", Count: &count})
}
