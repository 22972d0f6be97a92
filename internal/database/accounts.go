package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/quizmify/internal/models"
	"github.com/google/uuid"
)

// AccountRepository persists provider account linkage for users
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, type, provider, provider_account_id, access_token, refresh_token, id_token, token_type, scope, expires_at, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Type,
		&account.Provider,
		&account.ProviderAccountID,
		&account.AccessToken,
		&account.RefreshToken,
		&account.IDToken,
		&account.TokenType,
		&account.Scope,
		&account.ExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetUserByAccount returns the user linked to the provider account, or (nil, nil) when the
// account has not been linked yet
func (r *AccountRepository) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*models.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.image, u.email_verified, u.created_at, u.updated_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.provider = $1 AND a.provider_account_id = $2
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, provider, providerAccountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by account: %w", err)
	}

	return user, nil
}

// ListByUserID returns every provider account linked to a user
func (r *AccountRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY provider`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// CreateUserWithAccount creates a user and links the provider account in one transaction
func (r *AccountRepository) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit
		_ = tx.Rollback()
	}()

	if err := createUser(ctx, tx, user); err != nil {
		return err
	}

	account.UserID = user.ID
	if err := linkAccount(ctx, tx, account); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Link links a provider account to an existing user
func (r *AccountRepository) Link(ctx context.Context, account *models.Account) error {
	return linkAccount(ctx, r.db, account)
}

func linkAccount(ctx context.Context, q queryRower, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, type, provider, provider_account_id, access_token, refresh_token, id_token, token_type, scope, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.Type == "" {
		account.Type = models.AccountTypeOAuth
	}

	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		account.ID,
		account.UserID,
		account.Type,
		account.Provider,
		account.ProviderAccountID,
		account.AccessToken,
		account.RefreshToken,
		account.IDToken,
		account.TokenType,
		account.Scope,
		account.ExpiresAt,
		now,
		now,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}

	return nil
}
