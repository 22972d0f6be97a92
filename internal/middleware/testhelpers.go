package middleware

import (
	"context"

	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/request"
)

// SetSessionInContext is a helper function for testing - sets the session in context
// This is exported so other test packages can use it
func SetSessionInContext(ctx context.Context, sess *models.Session) context.Context {
	return request.WithSession(ctx, sess)
}
