package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type Middleware struct {
	store  SessionStore
	logger *slog.Logger
}

func NewMiddleware(store SessionStore, logger *slog.Logger) *Middleware {
	return &Middleware{
		store:  store,
		logger: logger,
	}
}

// WithIdentity attaches the caller's identity when a valid bearer token
// is present and lets guests through untouched.
func (m *Middleware) WithIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next(w, r)
			return
		}

		id, err := m.store.Get(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				m.logger.Error("session lookup failed", "error", err)
			}
			next(w, r)
			return
		}

		next(w, r.WithContext(WithContext(r.Context(), id)))
	}
}

// RequireUser rejects guests with 401.
func (m *Middleware) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		id, err := m.store.Get(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			m.logger.Error("session lookup failed", "error", err)
			writeAuthError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		next(w, r.WithContext(WithContext(r.Context(), id)))
	}
}

// RequireAdmin rejects guests with 401 and non-admin users with 403.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		if !id.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
