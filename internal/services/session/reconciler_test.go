package session

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/benvon/quizmify/internal/models"
	"github.com/google/uuid"
)

type fakeUserFinder struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
	calls int
}

func newFakeUserFinder(users ...*models.User) *fakeUserFinder {
	f := &fakeUserFinder{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.Email] = u
	}
	return f
}

func (f *fakeUserFinder) FindFirstByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.users[email], nil
}

func strPtr(s string) *string {
	return &s
}

var (
	userOneID = uuid.MustParse("6f1c1d4e-8a5b-4c39-9d0e-2b7a2f4c9e01")
	userOne   = &models.User{ID: userOneID, Email: "a@example.com"}
)

func TestReconciler_EnrichToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		finder      *fakeUserFinder
		token       *models.Token
		expectID    *string
		expectError bool
		expectCalls int
	}{
		{
			name:        "matching user sets id",
			finder:      newFakeUserFinder(userOne),
			token:       &models.Token{Email: "a@example.com"},
			expectID:    strPtr(userOneID.String()),
			expectCalls: 1,
		},
		{
			name:        "no match leaves id undefined",
			finder:      newFakeUserFinder(userOne),
			token:       &models.Token{Email: "nobody@example.com"},
			expectID:    nil,
			expectCalls: 1,
		},
		{
			name:        "no match leaves existing id unchanged",
			finder:      newFakeUserFinder(userOne),
			token:       &models.Token{Email: "nobody@example.com", ID: strPtr("previous")},
			expectID:    strPtr("previous"),
			expectCalls: 1,
		},
		{
			name:        "match overrides stale id",
			finder:      newFakeUserFinder(userOne),
			token:       &models.Token{Email: "a@example.com", ID: strPtr("stale")},
			expectID:    strPtr(userOneID.String()),
			expectCalls: 1,
		},
		{
			name:        "empty email skips lookup",
			finder:      newFakeUserFinder(userOne),
			token:       &models.Token{},
			expectID:    nil,
			expectCalls: 0,
		},
		{
			name:        "lookup error returned with unchanged token",
			finder:      &fakeUserFinder{err: errors.New("connection refused")},
			token:       &models.Token{Email: "a@example.com"},
			expectID:    nil,
			expectError: true,
			expectCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rc := NewReconciler(tt.finder)
			got, err := rc.EnrichToken(context.Background(), tt.token)

			if (err != nil) != tt.expectError {
				t.Fatalf("EnrichToken() error = %v, expectError %v", err, tt.expectError)
			}
			if got != tt.token {
				t.Error("Expected the same token instance to be returned")
			}
			if !reflect.DeepEqual(got.ID, tt.expectID) {
				t.Errorf("Expected token.ID %v, got %v", deref(tt.expectID), deref(got.ID))
			}
			if tt.finder.calls != tt.expectCalls {
				t.Errorf("Expected %d lookups, got %d", tt.expectCalls, tt.finder.calls)
			}
		})
	}
}

func TestReconciler_EnrichToken_Nil(t *testing.T) {
	t.Parallel()

	got, err := NewReconciler(newFakeUserFinder()).EnrichToken(context.Background(), nil)
	if err != nil || got != nil {
		t.Errorf("Expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestReconciler_EnrichToken_Idempotent(t *testing.T) {
	t.Parallel()

	rc := NewReconciler(newFakeUserFinder(userOne))
	token := &models.Token{Email: "a@example.com"}

	first, err := rc.EnrichToken(context.Background(), token)
	if err != nil {
		t.Fatalf("first EnrichToken() error: %v", err)
	}
	firstID := *first.ID

	second, err := rc.EnrichToken(context.Background(), first)
	if err != nil {
		t.Fatalf("second EnrichToken() error: %v", err)
	}
	if second.ID == nil || *second.ID != firstID {
		t.Errorf("Expected token.ID %q after second enrichment, got %v", firstID, deref(second.ID))
	}
}

func TestReconciler_MaterializeSession(t *testing.T) {
	t.Parallel()

	rc := NewReconciler(newFakeUserFinder())

	t.Run("enriched token", func(t *testing.T) {
		t.Parallel()

		token := &models.Token{ID: strPtr("u1"), Name: "A", Email: "a@example.com", Picture: "p.png"}
		got := rc.MaterializeSession(&models.Session{}, token)

		want := &models.SessionUser{ID: strPtr("u1"), Name: "A", Email: "a@example.com", Image: "p.png"}
		if !reflect.DeepEqual(got.User, want) {
			t.Errorf("Expected session user %+v, got %+v", want, got.User)
		}
	})

	t.Run("nil token returns session unmodified", func(t *testing.T) {
		t.Parallel()

		prior := &models.Session{User: &models.SessionUser{Name: "framework default"}}
		snapshot := *prior.User

		got := rc.MaterializeSession(prior, nil)
		if got != prior {
			t.Error("Expected the prior session instance to be returned")
		}
		if *got.User != snapshot {
			t.Errorf("Expected session user to be unchanged, got %+v", got.User)
		}

		if rc.MaterializeSession(nil, nil) != nil {
			t.Error("Expected nil session to pass through as nil")
		}
	})

	t.Run("unenriched token leaves id unset", func(t *testing.T) {
		t.Parallel()

		got := rc.MaterializeSession(nil, &models.Token{Email: "b@example.com"})
		if got == nil || got.User == nil {
			t.Fatal("Expected a session with a user")
		}
		if got.User.ID != nil {
			t.Errorf("Expected nil user ID, got %q", *got.User.ID)
		}
		if got.User.Email != "b@example.com" {
			t.Errorf("Expected email 'b@example.com', got '%s'", got.User.Email)
		}
	})

	t.Run("copies values verbatim without aliasing", func(t *testing.T) {
		t.Parallel()

		token := &models.Token{ID: strPtr("u1")}
		got := rc.MaterializeSession(&models.Session{}, token)
		*token.ID = "changed"
		if *got.User.ID != "u1" {
			t.Errorf("Expected session ID to be a copy, got %q", *got.User.ID)
		}
	})
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
