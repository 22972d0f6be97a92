package handlers

import (
	"net/http"
	"net/url"

	"github.com/benvon/quizmify/internal/request"
	"go.uber.org/zap"
)

const (
	// DashboardPath is where signed-in users land
	DashboardPath = "/dashboard"
	signInPath    = "/api/auth/signin/google"
)

// Sign-in error codes carried in the landing page's ?error= query
const (
	ErrorOAuthSignin           = "OAuthSignin"
	ErrorOAuthCallback         = "OAuthCallback"
	ErrorOAuthAccountNotLinked = "OAuthAccountNotLinked"
	ErrorAccessDenied          = "AccessDenied"
	ErrorCallback              = "Callback"
)

var signInErrorMessages = map[string]string{
	ErrorOAuthSignin:           "Try signing in with a different account.",
	ErrorOAuthCallback:         "Try signing in with a different account.",
	ErrorOAuthAccountNotLinked: "To confirm your identity, sign in with the same account you used originally.",
	ErrorAccessDenied:          "You do not have permission to sign in.",
}

const defaultSignInErrorMessage = "Unable to sign in."

// signInErrorMessage maps an error code to the text shown on the sign-in card
func signInErrorMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := signInErrorMessages[code]; ok {
		return msg
	}
	return defaultSignInErrorMessage
}

// LandingHandler serves the homepage
type LandingHandler struct {
	log *zap.Logger
}

// NewLandingHandler creates a new landing handler
func NewLandingHandler(logger *zap.Logger) *LandingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LandingHandler{log: logger}
}

type landingView struct {
	Title     string
	SignInURL string
	Error     string
}

// Render redirects signed-in users to the dashboard and shows everyone else the sign-in card.
// It relies on the session middleware having resolved the session; a failed resolution arrives
// here as an anonymous request.
func (h *LandingHandler) Render(w http.ResponseWriter, r *http.Request) {
	if sess := request.SessionFromContext(r); sess.HasUser() {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}

	renderPage(w, h.log, "landing", landingView{
		Title:     "Quizmify",
		SignInURL: signInPath + "?" + url.Values{"callbackUrl": {DashboardPath}}.Encode(),
		Error:     signInErrorMessage(r.URL.Query().Get("error")),
	})
}
