package models

import "time"

// Token is the claim set carried in the session cookie.
// ID is nil until the token has been reconciled against a stored user.
type Token struct {
	Sub       string    `json:"sub"`               // Subject (user ID at the provider)
	Email     string    `json:"email"`             // Provider-asserted email
	Name      string    `json:"name,omitempty"`    // Display name
	Picture   string    `json:"picture,omitempty"` // Avatar URL
	ID        *string   `json:"id,omitempty"`      // Stored user ID
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// ProviderProfile represents the identity claims asserted by the OAuth provider's ID token
type ProviderProfile struct {
	Sub           string `json:"sub" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
}
