package http

import (
	"net/http"

	"signal-backend/internal/domain"
	"signal-backend/internal/usecase"
)

type TemplateHandler struct {
	svc *usecase.TemplateService
}

func NewTemplateHandler(svc *usecase.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

type testTemplateRequest struct {
	Message string `json:"message"`
}

type testConfigRequest struct {
	Config  domain.ExtractionConfig `json:"extraction_config"`
	Message string                  `json:"message"`
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req usecase.TemplateInput
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), principalFrom(r.Context()).AccountID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

// ListByChannel handles GET /api/channels/{id}/templates?active_only=true
func (h *TemplateHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active_only") == "true"
	templates, err := h.svc.ListByChannel(r.Context(), id, activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, templates)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req usecase.TemplateUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (h *TemplateHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.ToggleActive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, t)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "Template deleted successfully")
}

// Test handles POST /api/templates/{id}/test
func (h *TemplateHandler) Test(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req testTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Test(r.Context(), id, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// TestConfig handles POST /api/templates/test with an unsaved rule set.
func (h *TemplateHandler) TestConfig(w http.ResponseWriter, r *http.Request) {
	var req testConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.TestConfig(req.Config, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// History handles GET /api/templates/{id}/history?limit=
func (h *TemplateHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	if limit <= 0 {
		limit = 50
	}
	history, err := h.svc.History(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, history)
}
