package session

import (
	"context"
	"fmt"

	"github.com/benvon/quizmify/internal/database"
	"github.com/benvon/quizmify/internal/metrics"
	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Callbacks are the two steps that turn a provider-issued token into a request session
type Callbacks interface {
	// EnrichToken attaches the stored user ID to the token when a user with the token's email exists
	EnrichToken(ctx context.Context, token *models.Token) (*models.Token, error)
	// MaterializeSession projects the token into the session; a nil token leaves the session as is
	MaterializeSession(session *models.Session, token *models.Token) *models.Session
}

// Reconciler implements Callbacks against the user store
type Reconciler struct {
	users database.UserFinderInterface
}

// NewReconciler creates a reconciler reading users from the given store
func NewReconciler(users database.UserFinderInterface) *Reconciler {
	return &Reconciler{users: users}
}

var _ Callbacks = (*Reconciler)(nil)

// EnrichToken looks up the first user whose email equals token.Email and sets token.ID to its ID.
// Without a match the token is returned unchanged. Lookup errors are returned with the
// unchanged token so callers can decide how to fail.
func (rc *Reconciler) EnrichToken(ctx context.Context, token *models.Token) (*models.Token, error) {
	if token == nil || token.Email == "" {
		return token, nil
	}

	ctx, span := telemetry.Tracer("session").Start(ctx, "session.enrich_token")
	defer span.End()

	user, err := rc.users.FindFirstByEmail(ctx, token.Email)
	if err != nil {
		metrics.TokenEnrichments.WithLabelValues(metrics.OutcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return token, fmt.Errorf("failed to reconcile token: %w", err)
	}
	if user == nil {
		metrics.TokenEnrichments.WithLabelValues(metrics.OutcomeUnmatched).Inc()
		span.SetAttributes(attribute.String("quizmify.enrich.outcome", metrics.OutcomeUnmatched))
		return token, nil
	}

	id := user.ID.String()
	token.ID = &id
	metrics.TokenEnrichments.WithLabelValues(metrics.OutcomeMatched).Inc()
	span.SetAttributes(attribute.String("quizmify.enrich.outcome", metrics.OutcomeMatched))
	return token, nil
}

// MaterializeSession copies id, name, email and picture (as image) from the token into session.user
func (rc *Reconciler) MaterializeSession(session *models.Session, token *models.Token) *models.Session {
	if token == nil {
		return session
	}
	if session == nil {
		session = &models.Session{}
	}
	if session.User == nil {
		session.User = &models.SessionUser{}
	}

	session.User.ID = nil
	if token.ID != nil {
		id := *token.ID
		session.User.ID = &id
	}
	session.User.Name = token.Name
	session.User.Email = token.Email
	session.User.Image = token.Picture

	return session
}
