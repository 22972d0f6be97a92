package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/benvon/quizmify/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionContextKey returns the context key used for the session. Exposed for tests that inject non-session values.
func SessionContextKey() contextKey { return sessionContextKey }

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithSession returns a context with the session attached.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext returns the session from the request context, or nil if missing or wrong type.
func SessionFromContext(r *http.Request) *models.Session {
	s, _ := r.Context().Value(sessionContextKey).(*models.Session)
	return s
}

// UserFromContext returns the session user, or nil when the request is unauthenticated.
func UserFromContext(r *http.Request) *models.SessionUser {
	s := SessionFromContext(r)
	if !s.HasUser() {
		return nil
	}
	return s.User
}
