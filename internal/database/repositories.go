package database

import (
	"context"

	"github.com/benvon/quizmify/internal/models"
)

// UserFinderInterface is the read path used to reconcile session tokens with stored users
type UserFinderInterface interface {
	FindFirstByEmail(ctx context.Context, email string) (*models.User, error)
}

// AccountRepositoryInterface defines the account-linking operations used during sign-in
type AccountRepositoryInterface interface {
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error)
	CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserFinderInterface        = (*UserRepository)(nil)
	_ AccountRepositoryInterface = (*AccountRepository)(nil)
)
