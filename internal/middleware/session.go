package middleware

import (
	"net/http"

	logpkg "github.com/benvon/quizmify/internal/logger"
	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/request"
	"go.uber.org/zap"
)

// SessionLoader resolves (and when due, refreshes) the session for a request
type SessionLoader interface {
	LoadSession(w http.ResponseWriter, r *http.Request) (*models.Session, error)
}

// Session attaches the request's session to the context.
// When the session cannot be resolved the request continues unauthenticated.
func Session(loader SessionLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := loader.LoadSession(w, r)
			if err != nil {
				logger.Warn("session_resolution_failed_treating_as_anonymous",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession redirects requests without a session user to redirectTo
func RequireSession(redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if request.UserFromContext(r) == nil {
				http.Redirect(w, r, redirectTo, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
