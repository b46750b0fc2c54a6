package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"parkhub/internal/db"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFromContext returns the session stored by the middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// RequireUser redirects unauthenticated requests to the login page.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.FromRequest(r)
		if err != nil {
			setFlash(w, "Please log in to continue")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// RequireAdmin sends non-admin users back to the park page.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFromContext(r.Context())
		if session.Role != db.RoleAdmin {
			setFlash(w, "Admin access required")
			http.Redirect(w, r, "/park", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireUserJSON is the API variant; it answers 401 instead of redirecting.
func (m *Manager) RequireUserJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.FromRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
	})
}

// RequireAdminJSON answers 403 for authenticated non-admin users.
func (m *Manager) RequireAdminJSON(next http.Handler) http.Handler {
	return m.RequireUserJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFromContext(r.Context())
		if session.Role != db.RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// setFlash mirrors the api package's flash cookie; the renderer consumes it on
// the next page load.
func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "parkhub_flash",
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
