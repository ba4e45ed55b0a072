// Package handler contains the HTTP layer: request decoding, calling the
// services, and translating results and domain errors into JSON responses.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/flinger-site/internal/service"
)

// FormHandler serves the public intake forms and their admin listings.
type FormHandler struct {
	signups *service.SignupService
	logger  *slog.Logger
}

func NewFormHandler(signups *service.SignupService, logger *slog.Logger) *FormHandler {
	return &FormHandler{signups: signups, logger: logger}
}

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateEmailSignup handles POST /api/email-signup.
func (h *FormHandler) CreateEmailSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	signup, err := h.signups.CreateEmailSignup(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, signup)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreateContact handles POST /api/contact.
func (h *FormHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.signups.CreateContactMessage(r.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccount handles POST /api/users.
func (h *FormHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.signups.CreateAccount(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// ListEmailSignups handles GET /api/email-signups (admin).
func (h *FormHandler) ListEmailSignups(w http.ResponseWriter, r *http.Request) {
	signups, err := h.signups.ListEmailSignups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signups)
}

// ListContactMessages handles GET /api/contact-messages (admin).
func (h *FormHandler) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.signups.ListContactMessages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
