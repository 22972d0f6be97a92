package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	logpkg "github.com/benvon/quizmify/internal/logger"
	"github.com/benvon/quizmify/internal/metrics"
	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/request"
	"github.com/benvon/quizmify/internal/services/oidc"
	"github.com/benvon/quizmify/internal/services/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateCookieName       = "quizmify.state"
	verifierCookieName    = "quizmify.pkce.code_verifier"
	callbackURLCookieName = "quizmify.callback-url"
	secureCookiePrefix    = "__Secure-"
	authCookiePath        = "/api/auth"
	// flowCookieMaxAge bounds how long a user may take on the consent screen
	flowCookieMaxAge = 15 * time.Minute
)

// SessionIssuer issues and clears session cookies
type SessionIssuer interface {
	SignIn(ctx context.Context, w http.ResponseWriter, profile *models.ProviderProfile) (*models.Session, error)
	SignOut(w http.ResponseWriter)
}

// AccountLinker resolves the stored user for a provider sign-in
type AccountLinker interface {
	Link(ctx context.Context, profile *models.ProviderProfile, account *models.Account) (*models.User, bool, error)
}

// AuthOptions configures an AuthHandler
type AuthOptions struct {
	// BaseURL is the public origin of this service
	BaseURL string
	// AllowedOrigins may submit sign-out forms in addition to BaseURL
	AllowedOrigins []string
	Secure         bool
	Logger         *zap.Logger
}

// AuthHandler implements the OAuth sign-in flow and the session endpoints
type AuthHandler struct {
	providers      map[string]oidc.Provider
	linker         AccountLinker
	sessions       SessionIssuer
	baseURL        *url.URL
	allowedOrigins map[string]struct{}
	secure         bool
	log            *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions SessionIssuer, linker AccountLinker, opts AuthOptions, providers ...oidc.Provider) (*AuthHandler, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := &AuthHandler{
		providers:      make(map[string]oidc.Provider, len(providers)),
		linker:         linker,
		sessions:       sessions,
		baseURL:        base,
		allowedOrigins: map[string]struct{}{origin(base): {}},
		secure:         opts.Secure,
		log:            opts.Logger,
	}
	for _, o := range opts.AllowedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			h.allowedOrigins[origin(u)] = struct{}{}
		}
	}
	for _, p := range providers {
		h.providers[p.Name()] = p
	}
	return h, nil
}

// RegisterRoutes registers auth routes on the given router.
// The router should already have the /api/auth prefix; limit wraps the routes that reach the provider.
func (h *AuthHandler) RegisterRoutes(r *mux.Router, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	r.Handle("/signin/{provider}", limit(http.HandlerFunc(h.SignIn))).Methods("GET")
	r.Handle("/callback/{provider}", limit(http.HandlerFunc(h.Callback))).Methods("GET")
	r.HandleFunc("/session", h.Session).Methods("GET")
	r.HandleFunc("/signout", h.SignOut).Methods("POST")
}

// SignIn starts the authorization-code flow: it stores state, PKCE verifier and the
// post-login destination in short-lived cookies and redirects to the provider
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.provider(w, r)
	if !ok {
		return
	}

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()
	callbackURL := h.safeCallbackURL(r.URL.Query().Get("callbackUrl"))

	h.setFlowCookie(w, stateCookieName, state)
	h.setFlowCookie(w, verifierCookieName, verifier)
	h.setFlowCookie(w, callbackURLCookieName, callbackURL)

	h.log.Debug("oauth_sign_in_started",
		zap.String("provider", provider.Name()),
		zap.String("callback_url", logpkg.SanitizePath(callbackURL)),
	)
	http.Redirect(w, r, provider.AuthCodeURL(state, verifier), http.StatusFound)
}

// Callback completes the flow: verify state, exchange the code, link the account and issue the session
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.provider(w, r)
	if !ok {
		return
	}
	name := provider.Name()
	ctx := r.Context()
	query := r.URL.Query()

	expectedState := h.readCookie(r, stateCookieName)
	verifier := h.readCookie(r, verifierCookieName)
	callbackURL := h.safeCallbackURL(h.readCookie(r, callbackURLCookieName))
	h.clearFlowCookies(w)

	if providerErr := query.Get("error"); providerErr != "" {
		h.log.Info("oauth_provider_error",
			zap.String("provider", name),
			zap.String("error", logpkg.SanitizeString(providerErr, logpkg.MaxGeneralStringLength)),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeDenied).Inc()
		if providerErr == "access_denied" {
			h.failSignIn(w, r, ErrorAccessDenied)
			return
		}
		h.failSignIn(w, r, ErrorOAuthCallback)
		return
	}

	state := query.Get("state")
	if expectedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expectedState)) != 1 {
		h.log.Warn("oauth_state_mismatch",
			zap.String("provider", name),
			zap.Bool("state_cookie_present", expectedState != ""),
			zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeDenied).Inc()
		h.failSignIn(w, r, ErrorOAuthCallback)
		return
	}

	code := query.Get("code")
	if code == "" || verifier == "" {
		h.log.Warn("oauth_callback_incomplete",
			zap.String("provider", name),
			zap.Bool("code_present", code != ""),
			zap.Bool("verifier_present", verifier != ""),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeDenied).Inc()
		h.failSignIn(w, r, ErrorOAuthCallback)
		return
	}

	identity, err := provider.Exchange(ctx, code, verifier)
	if err != nil {
		h.log.Error("oauth_exchange_failed",
			zap.String("provider", name),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeError).Inc()
		h.failSignIn(w, r, ErrorOAuthCallback)
		return
	}

	user, created, err := h.linker.Link(ctx, identity.Profile, identity.Account(name))
	if errors.Is(err, session.ErrAccountNotLinked) {
		h.log.Warn("oauth_account_not_linked",
			zap.String("provider", name),
			zap.String("email", logpkg.MaskEmail(identity.Profile.Email)),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeDenied).Inc()
		h.failSignIn(w, r, ErrorOAuthAccountNotLinked)
		return
	}
	if err != nil {
		h.log.Error("account_link_failed",
			zap.String("provider", name),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeError).Inc()
		h.failSignIn(w, r, ErrorCallback)
		return
	}

	if _, err := h.sessions.SignIn(ctx, w, identity.Profile); err != nil {
		h.log.Error("session_issue_failed",
			zap.String("provider", name),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		metrics.SignIns.WithLabelValues(name, metrics.OutcomeError).Inc()
		h.failSignIn(w, r, ErrorCallback)
		return
	}

	metrics.SignIns.WithLabelValues(name, metrics.OutcomeSuccess).Inc()
	h.log.Info("sign_in_succeeded",
		zap.String("provider", name),
		zap.String("user_id", user.ID.String()),
		zap.Bool("new_user", created),
	)
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// Session returns the current session as JSON, or an empty object when unauthenticated
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	var body any = struct{}{}
	if sess := request.SessionFromContext(r); sess.HasUser() {
		body = sess
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("failed_to_encode_session", zap.Error(err))
	}
}

// SignOut clears the session cookie and sends the browser home
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if o := r.Header.Get("Origin"); o != "" && !h.originAllowed(o) {
		respondJSONError(w, http.StatusForbidden, "Forbidden", "Cross-origin sign out is not allowed")
		return
	}

	h.sessions.SignOut(w)
	if user := request.UserFromContext(r); user != nil && user.ID != nil {
		h.log.Info("session_signed_out", zap.String("user_id", logpkg.SanitizeUserID(*user.ID)))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) provider(w http.ResponseWriter, r *http.Request) (oidc.Provider, bool) {
	p, ok := h.providers[mux.Vars(r)["provider"]]
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Unknown sign-in provider")
		return nil, false
	}
	return p, true
}

// failSignIn sends the browser back to the landing page with an error code
func (h *AuthHandler) failSignIn(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?"+url.Values{"error": {code}}.Encode(), http.StatusFound)
}

// safeCallbackURL returns raw as a local path when it is relative or same-origin, else the dashboard
func (h *AuthHandler) safeCallbackURL(raw string) string {
	if raw == "" || strings.Contains(raw, `\`) {
		return DashboardPath
	}
	u, err := url.Parse(raw)
	if err != nil {
		return DashboardPath
	}
	if u.Scheme != "" || u.Host != "" {
		if u.Scheme != h.baseURL.Scheme || u.Host != h.baseURL.Host {
			return DashboardPath
		}
	} else if !strings.HasPrefix(u.Path, "/") {
		return DashboardPath
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

func (h *AuthHandler) originAllowed(o string) bool {
	u, err := url.Parse(o)
	if err != nil {
		return false
	}
	_, ok := h.allowedOrigins[origin(u)]
	return ok
}

func origin(u *url.URL) string {
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

func (h *AuthHandler) cookieName(name string) string {
	if h.secure {
		return secureCookiePrefix + name
	}
	return name
}

func (h *AuthHandler) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(name),
		Value:    value,
		Path:     authCookiePath,
		MaxAge:   int(flowCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) readCookie(r *http.Request, name string) string {
	c, err := r.Cookie(h.cookieName(name))
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *AuthHandler) clearFlowCookies(w http.ResponseWriter) {
	for _, name := range []string{stateCookieName, verifierCookieName, callbackURLCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName(name),
			Value:    "",
			Path:     authCookiePath,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
