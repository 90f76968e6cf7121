package http

import (
	"errors"
	"net/http"

	"signal-backend/internal/usecase"
)

type TestHandler struct {
	svc *usecase.NotificationService
}

func NewTestHandler(svc *usecase.NotificationService) *TestHandler {
	return &TestHandler{svc: svc}
}

// SendTestNotification handles POST /api/notifications/test for the caller's devices.
func (h *TestHandler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.SendTest(r.Context(), principalFrom(r.Context()).AccountID)
	switch {
	case errors.Is(err, usecase.ErrPushDisabled):
		writeJSON(w, http.StatusOK, Response{Success: false, Message: "FCM not configured"})
	case errors.Is(err, usecase.ErrNoDevices):
		zero := 0
		writeJSON(w, http.StatusOK, Response{Success: false, Message: "No registered devices", Count: &zero})
	case err != nil:
		writeJSON(w, http.StatusOK, Response{Success: false, Message: "Failed to send notification: " + err.Error(), Count: &count})
	default:
		writeJSON(w, http.StatusOK, Response{Success: true, Message: "Test notification sent successfully", Count: &count})
	}
}
