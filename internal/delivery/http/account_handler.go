package http

import (
	"net/http"

	"signal-backend/internal/domain"
	"signal-backend/internal/usecase"
)

// AccountHandler serves registration, login, profile, password and risk endpoints.
type AccountHandler struct {
	svc *usecase.AccountService
}

func NewAccountHandler(svc *usecase.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles POST /api/accounts
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req usecase.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

// Login handles POST /api/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	acct, err := h.svc.Get(r.Context(), principalFrom(r.Context()).AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, acct)
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, accounts)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	acct, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, acct)
}

// Update handles PUT /api/accounts/{id}. Callers may only change their own account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if id != principalFrom(r.Context()).AccountID {
		writeError(w, domain.ErrForbidden)
		return
	}
	var req usecase.AccountUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	acct, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, acct)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if id != principalFrom(r.Context()).AccountID {
		writeError(w, domain.ErrForbidden)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "Account deleted successfully")
}

// ForgotPassword handles POST /api/password/forgot
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "If the email exists, a password reset link has been sent")
}

// ResetPassword handles POST /api/password/reset
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "Password has been reset successfully")
}

// ChangePassword handles PUT /api/password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.svc.ChangePassword(r.Context(), principalFrom(r.Context()).AccountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, "Password changed successfully")
}

func (h *AccountHandler) GetRiskSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.RiskSettings(r.Context(), principalFrom(r.Context()).AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (h *AccountHandler) UpdateRiskSettings(w http.ResponseWriter, r *http.Request) {
	var req usecase.RiskUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.svc.UpdateRiskSettings(r.Context(), principalFrom(r.Context()).AccountID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}
