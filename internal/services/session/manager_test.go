package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/quizmify/internal/models"
)

func newTestManager(t *testing.T, finder *fakeUserFinder, secure bool) *Manager {
	t.Helper()

	m, err := NewManager(NewReconciler(finder), Options{
		Secret:    "test-secret",
		MaxAge:    30 * 24 * time.Hour,
		UpdateAge: 24 * time.Hour,
		Secure:    secure,
	})
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	return m
}

func (m *Manager) setClock(now time.Time) {
	m.now = func() time.Time { return now }
	m.codec.now = m.now
}

func signedInRequest(t *testing.T, m *Manager, profile *models.ProviderProfile) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	if _, err := m.SignIn(context.Background(), rec, profile); err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

var adaProfile = &models.ProviderProfile{
	Sub:     "google-sub",
	Email:   "a@example.com",
	Name:    "A",
	Picture: "p.png",
}

func TestNewManager_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(NewReconciler(newFakeUserFinder()), Options{}); err == nil {
		t.Error("Expected error when secret is empty")
	}
}

func TestManager_CookieName(t *testing.T) {
	t.Parallel()

	if got := newTestManager(t, newFakeUserFinder(), false).CookieName(); got != "quizmify.session-token" {
		t.Errorf("Unexpected cookie name %q", got)
	}
	if got := newTestManager(t, newFakeUserFinder(), true).CookieName(); got != "__Secure-quizmify.session-token" {
		t.Errorf("Unexpected secure cookie name %q", got)
	}
}

func TestManager_GetSession(t *testing.T) {
	t.Parallel()

	t.Run("no cookie is anonymous", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t, newFakeUserFinder(userOne), false)
		sess, err := m.GetSession(httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil || sess != nil {
			t.Errorf("Expected (nil, nil), got (%+v, %v)", sess, err)
		}
	})

	t.Run("invalid cookie is anonymous", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t, newFakeUserFinder(userOne), false)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: "forged"})

		sess, err := m.GetSession(req)
		if err != nil || sess != nil {
			t.Errorf("Expected (nil, nil), got (%+v, %v)", sess, err)
		}
	})

	t.Run("signed in user is reconciled", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t, newFakeUserFinder(userOne), false)
		sess, err := m.GetSession(signedInRequest(t, m, adaProfile))
		if err != nil {
			t.Fatalf("GetSession() error: %v", err)
		}
		if !sess.HasUser() {
			t.Fatal("Expected session with user")
		}
		if deref(sess.User.ID) != userOneID.String() {
			t.Errorf("Expected user ID %s, got %s", userOneID, deref(sess.User.ID))
		}
		if sess.User.Image != "p.png" || sess.User.Name != "A" || sess.User.Email != "a@example.com" {
			t.Errorf("Unexpected session user %+v", sess.User)
		}
	})

	t.Run("user created after sign-in is picked up on next read", func(t *testing.T) {
		t.Parallel()

		finder := newFakeUserFinder()
		m := newTestManager(t, finder, false)
		req := signedInRequest(t, m, adaProfile)

		sess, err := m.GetSession(req)
		if err != nil || sess.User.ID != nil {
			t.Fatalf("Expected unreconciled session, got (%+v, %v)", sess, err)
		}

		finder.mu.Lock()
		finder.users[userOne.Email] = userOne
		finder.mu.Unlock()

		sess, err = m.GetSession(req)
		if err != nil {
			t.Fatalf("GetSession() error: %v", err)
		}
		if deref(sess.User.ID) != userOneID.String() {
			t.Errorf("Expected user ID %s after store update, got %s", userOneID, deref(sess.User.ID))
		}
	})

	t.Run("store failure is reported", func(t *testing.T) {
		t.Parallel()

		finder := newFakeUserFinder(userOne)
		m := newTestManager(t, finder, false)
		req := signedInRequest(t, m, adaProfile)

		finder.mu.Lock()
		finder.err = errors.New("connection refused")
		finder.mu.Unlock()

		sess, err := m.GetSession(req)
		if err == nil {
			t.Fatal("Expected error when the user store fails")
		}
		if sess != nil {
			t.Errorf("Expected no session on store failure, got %+v", sess)
		}
	})
}

func TestManager_SignIn(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, newFakeUserFinder(userOne), true)
	rec := httptest.NewRecorder()

	sess, err := m.SignIn(context.Background(), rec, adaProfile)
	if err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	if deref(sess.User.ID) != userOneID.String() {
		t.Errorf("Expected reconciled user ID, got %s", deref(sess.User.ID))
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("Expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "__Secure-quizmify.session-token" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("Unexpected cookie attributes %+v", c)
	}
	if c.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
		t.Errorf("Unexpected MaxAge %d", c.MaxAge)
	}

	if _, err := m.SignIn(context.Background(), httptest.NewRecorder(), &models.ProviderProfile{Sub: "x"}); !errors.Is(err, ErrMissingEmail) {
		t.Errorf("Expected ErrMissingEmail, got %v", err)
	}
}

func TestManager_LoadSession_Refresh(t *testing.T) {
	t.Parallel()

	start := time.Now().Truncate(time.Second)

	tests := []struct {
		name          string
		elapsed       time.Duration
		expectRefresh bool
	}{
		{"fresh token is not reissued", time.Hour, false},
		{"token past update age is reissued", 25 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestManager(t, newFakeUserFinder(userOne), false)
			m.setClock(start)
			req := signedInRequest(t, m, adaProfile)

			m.setClock(start.Add(tt.elapsed))
			rec := httptest.NewRecorder()
			sess, err := m.LoadSession(rec, req)
			if err != nil {
				t.Fatalf("LoadSession() error: %v", err)
			}
			if !sess.HasUser() {
				t.Fatal("Expected session with user")
			}

			refreshed := len(rec.Result().Cookies()) > 0
			if refreshed != tt.expectRefresh {
				t.Errorf("Expected refresh=%v, got %v", tt.expectRefresh, refreshed)
			}
			if tt.expectRefresh {
				want := start.Add(tt.elapsed).Add(30 * 24 * time.Hour)
				if !sess.Expires.Equal(want) {
					t.Errorf("Expected expiry to slide to %v, got %v", want, sess.Expires)
				}
			}
		})
	}
}

func TestManager_SignOut(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, newFakeUserFinder(), false)
	rec := httptest.NewRecorder()
	m.SignOut(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Errorf("Expected an expiring empty cookie, got %+v", cookies)
	}
}
