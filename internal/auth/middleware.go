package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so only this package can read or write the
// admin identity in a request context.
type contextKey string

const adminKey contextKey = "admin"

// RequireAdmin enforces an admin session on protected routes.
//
// It reads the session JWT from the HttpOnly cookie, validates it, and
// stores the admin username in the request context. Missing or invalid
// sessions get a 401 and the chain stops.
func RequireAdmin(sessions *SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractAdmin(r, sessions)
			if err != nil {
				// http.Error would relabel the body text/plain; write the
				// JSON response by hand instead.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"admin session required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext retrieves the authenticated admin username.
// Returns ("", false) on requests that did not pass RequireAdmin.
func AdminFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(adminKey).(string)
	return username, ok && username != ""
}

func extractAdmin(r *http.Request, sessions *SessionService) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return sessions.Validate(cookie.Value)
}
