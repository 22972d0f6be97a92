package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/quizmify/internal/database"
	"github.com/benvon/quizmify/internal/models"
)

// ErrAccountNotLinked is returned when the provider email belongs to a user who signed in
// through a different account
var ErrAccountNotLinked = errors.New("email is registered through another account")

// Linker resolves the stored user behind a provider sign-in, creating it on first sign-in
type Linker struct {
	users    database.UserFinderInterface
	accounts database.AccountRepositoryInterface
	now      func() time.Time
}

// NewLinker creates an account linker
func NewLinker(users database.UserFinderInterface, accounts database.AccountRepositoryInterface) *Linker {
	return &Linker{users: users, accounts: accounts, now: time.Now}
}

// Link returns the user owning account. An unknown account whose email is free creates a new
// user together with the account; created reports whether that happened.
func (l *Linker) Link(ctx context.Context, profile *models.ProviderProfile, account *models.Account) (*models.User, bool, error) {
	if profile == nil || account == nil {
		return nil, false, errors.New("profile and account are required")
	}

	user, err := l.accounts.GetUserByAccount(ctx, account.Provider, account.ProviderAccountID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up account: %w", err)
	}
	if user != nil {
		return user, false, nil
	}

	existing, err := l.users.FindFirstByEmail(ctx, profile.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if existing != nil {
		return nil, false, ErrAccountNotLinked
	}

	user = &models.User{Email: profile.Email}
	if profile.Name != "" {
		name := profile.Name
		user.Name = &name
	}
	if profile.Picture != "" {
		image := profile.Picture
		user.Image = &image
	}
	if profile.EmailVerified {
		verified := l.now().UTC()
		user.EmailVerified = &verified
	}

	if err := l.accounts.CreateUserWithAccount(ctx, user, account); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}
