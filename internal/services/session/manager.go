package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	logpkg "github.com/benvon/quizmify/internal/logger"
	"github.com/benvon/quizmify/internal/metrics"
	"github.com/benvon/quizmify/internal/models"
	"go.uber.org/zap"
)

const (
	cookieName       = "quizmify.session-token"
	securePrefix     = "__Secure-"
	defaultMaxAge    = 30 * 24 * time.Hour
	defaultUpdateAge = 24 * time.Hour
)

// Options configures a Manager
type Options struct {
	Secret    string
	MaxAge    time.Duration
	UpdateAge time.Duration
	Secure    bool
	Logger    *zap.Logger
}

// Manager reads, refreshes and issues the signed session cookie
type Manager struct {
	codec     *TokenCodec
	callbacks Callbacks
	maxAge    time.Duration
	updateAge time.Duration
	secure    bool
	log       *zap.Logger
	now       func() time.Time
}

// NewManager creates a session manager driving the given callbacks
func NewManager(callbacks Callbacks, opts Options) (*Manager, error) {
	codec, err := NewTokenCodec(opts.Secret)
	if err != nil {
		return nil, err
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.UpdateAge < 0 || opts.UpdateAge >= opts.MaxAge {
		opts.UpdateAge = defaultUpdateAge
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		codec:     codec,
		callbacks: callbacks,
		maxAge:    opts.MaxAge,
		updateAge: opts.UpdateAge,
		secure:    opts.Secure,
		log:       opts.Logger,
		now:       time.Now,
	}, nil
}

// CookieName returns the name of the session cookie
func (m *Manager) CookieName() string {
	if m.secure {
		return securePrefix + cookieName
	}
	return cookieName
}

// GetSession resolves the session for a request.
// A request without a valid session token yields (nil, nil). A non-nil error means the
// token was valid but could not be reconciled with the user store.
func (m *Manager) GetSession(r *http.Request) (*models.Session, error) {
	sess, _, err := m.resolve(r)
	return sess, err
}

// LoadSession resolves the session like GetSession and re-issues the cookie once the
// token is older than the update age
func (m *Manager) LoadSession(w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	sess, token, err := m.resolve(r)
	if err != nil || token == nil {
		return sess, err
	}

	now := m.now()
	if now.Sub(token.IssuedAt) < m.updateAge {
		return sess, nil
	}

	token.IssuedAt = now
	token.ExpiresAt = now.Add(m.maxAge)
	if err := m.writeCookie(w, token); err != nil {
		// The existing cookie is still valid until it expires
		m.log.Warn("session_refresh_failed", zap.Error(err))
		return sess, nil
	}
	sess.Expires = token.ExpiresAt
	m.log.Debug("session_refreshed", zap.Time("expires", token.ExpiresAt))
	return sess, nil
}

func (m *Manager) resolve(r *http.Request) (*models.Session, *models.Token, error) {
	cookie, err := r.Cookie(m.CookieName())
	if err != nil || cookie.Value == "" {
		metrics.SessionReads.WithLabelValues(metrics.OutcomeAnonymous).Inc()
		return nil, nil, nil
	}

	token, err := m.codec.Decode(cookie.Value)
	if err != nil {
		metrics.SessionReads.WithLabelValues(metrics.OutcomeInvalid).Inc()
		m.log.Debug("session_token_rejected", zap.String("error", logpkg.SanitizeError(err)))
		return nil, nil, nil
	}

	token, err = m.callbacks.EnrichToken(r.Context(), token)
	if err != nil {
		metrics.SessionReads.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, nil, err
	}

	sess := m.callbacks.MaterializeSession(&models.Session{Expires: token.ExpiresAt}, token)
	metrics.SessionReads.WithLabelValues(metrics.OutcomeAuthenticated).Inc()
	return sess, token, nil
}

// ErrMissingEmail is returned when a provider profile has no email to reconcile on
var ErrMissingEmail = errors.New("provider profile has no email")

// SignIn issues a session for a provider profile: build the token, enrich it, set the cookie
func (m *Manager) SignIn(ctx context.Context, w http.ResponseWriter, profile *models.ProviderProfile) (*models.Session, error) {
	if profile == nil || profile.Email == "" {
		return nil, ErrMissingEmail
	}

	now := m.now()
	token := &models.Token{
		Sub:       profile.Sub,
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   profile.Picture,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.maxAge),
	}

	token, err := m.callbacks.EnrichToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := m.writeCookie(w, token); err != nil {
		return nil, err
	}

	m.log.Info("session_issued",
		zap.String("email", logpkg.MaskEmail(token.Email)),
		zap.Bool("reconciled", token.ID != nil),
	)
	return m.callbacks.MaterializeSession(&models.Session{Expires: token.ExpiresAt}, token), nil
}

// SignOut expires the session cookie
func (m *Manager) SignOut(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) writeCookie(w http.ResponseWriter, token *models.Token) error {
	value, err := m.codec.Encode(token)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(),
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
