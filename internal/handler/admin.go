package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/auth"
)

// AdminHandler serves the admin login/logout pair. Sessions ride in an
// HttpOnly cookie; nothing is stored server-side.
type AdminHandler struct {
	sessions    *auth.SessionService
	credentials *auth.AdminCredentials
	logger      *slog.Logger
}

func NewAdminHandler(sessions *auth.SessionService, credentials *auth.AdminCredentials, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sessions: sessions, credentials: credentials, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		h.logger.Warn("admin login rejected", slog.String("username", req.Username))
		writeError(w, apperror.Unauthorized("invalid username or password"))
		return
	}

	token, err := h.sessions.Issue(req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(12 * time.Hour / time.Second),
	})

	h.logger.Info("admin logged in", slog.String("username", req.Username))
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// Logout handles POST /api/admin/logout by expiring the session cookie.
// The token itself stays valid until expiry; logout is client-side.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}
