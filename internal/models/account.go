package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountTypeOAuth is the account type recorded for OAuth provider links
const AccountTypeOAuth = "oauth"

// Account links a user to an identity at an external provider
type Account struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Type              string     `json:"type"`
	Provider          string     `json:"provider"`
	ProviderAccountID string     `json:"provider_account_id"`
	AccessToken       *string    `json:"-"`
	RefreshToken      *string    `json:"-"`
	IDToken           *string    `json:"-"`
	TokenType         *string    `json:"token_type,omitempty"`
	Scope             *string    `json:"scope,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
