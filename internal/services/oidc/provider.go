package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/quizmify/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// ProviderGoogle is the provider identifier used in routes and account rows
	ProviderGoogle = "google"
	// GoogleJWKSURL serves the keys Google signs ID tokens with
	GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleIssuers are the iss values Google puts in ID tokens
var GoogleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// ErrMissingIDToken is returned when the token response carries no id_token
var ErrMissingIDToken = errors.New("token response did not include an id_token")

// Provider is an OAuth2 identity provider that can start and complete a sign-in
type Provider interface {
	Name() string
	AuthCodeURL(state, codeVerifier string) string
	Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error)
}

// Identity is the outcome of a completed provider sign-in
type Identity struct {
	Profile *models.ProviderProfile
	Token   *oauth2.Token
	IDToken string
}

// OAuthProvider implements Provider with an authorization-code + PKCE flow and ID token verification
type OAuthProvider struct {
	name     string
	config   *oauth2.Config
	verifier *Verifier
}

type providerOptions struct {
	endpoint oauth2.Endpoint
	jwksURL  string
	issuers  []string
}

// ProviderOption customizes the provider endpoints (used by tests and alternative deployments)
type ProviderOption func(*providerOptions)

// WithEndpoint overrides the authorization and token endpoints
func WithEndpoint(endpoint oauth2.Endpoint) ProviderOption {
	return func(o *providerOptions) { o.endpoint = endpoint }
}

// WithJWKSURL overrides where ID token signing keys are fetched from
func WithJWKSURL(jwksURL string) ProviderOption {
	return func(o *providerOptions) { o.jwksURL = jwksURL }
}

// WithIssuers overrides the accepted ID token issuers
func WithIssuers(issuers ...string) ProviderOption {
	return func(o *providerOptions) { o.issuers = issuers }
}

// NewGoogleProvider creates the Google sign-in provider
func NewGoogleProvider(clientID, clientSecret, redirectURL string, jwksManager *JWKSManager, opts ...ProviderOption) *OAuthProvider {
	o := &providerOptions{
		endpoint: google.Endpoint,
		jwksURL:  GoogleJWKSURL,
		issuers:  GoogleIssuers,
	}
	for _, opt := range opts {
		opt(o)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     o.endpoint,
	}

	return &OAuthProvider{
		name:     ProviderGoogle,
		config:   config,
		verifier: NewVerifier(jwksManager, o.jwksURL, clientID, o.issuers...),
	}
}

// Name returns the provider identifier
func (p *OAuthProvider) Name() string {
	return p.name
}

// AuthCodeURL returns the consent URL carrying state and the S256 PKCE challenge
func (p *OAuthProvider) AuthCodeURL(state, codeVerifier string) string {
	return p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier))
}

// Exchange trades an authorization code for tokens and verifies the returned ID token
func (p *OAuthProvider) Exchange(ctx context.Context, code, codeVerifier string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	profile, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	return &Identity{
		Profile: profile,
		Token:   token,
		IDToken: rawIDToken,
	}, nil
}

// Account builds the provider account row for this identity
func (i *Identity) Account(provider string) *models.Account {
	account := &models.Account{
		Type:              models.AccountTypeOAuth,
		Provider:          provider,
		ProviderAccountID: i.Profile.Sub,
	}
	if i.IDToken != "" {
		account.IDToken = &i.IDToken
	}
	if i.Token == nil {
		return account
	}
	if i.Token.AccessToken != "" {
		account.AccessToken = &i.Token.AccessToken
	}
	if i.Token.RefreshToken != "" {
		account.RefreshToken = &i.Token.RefreshToken
	}
	if i.Token.TokenType != "" {
		account.TokenType = &i.Token.TokenType
	}
	if scope, ok := i.Token.Extra("scope").(string); ok && scope != "" {
		account.Scope = &scope
	}
	if !i.Token.Expiry.IsZero() {
		expiry := i.Token.Expiry
		account.ExpiresAt = &expiry
	}
	return account
}
