package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/benvon/quizmify/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimEmail   = "email"
	claimName    = "name"
	claimPicture = "picture"
	claimID      = "id"
)

// TokenCodec signs and verifies session tokens with the shared secret (HS256)
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec creates a codec for the given signing secret
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("session signing secret is empty")
	}
	return &TokenCodec{secret: []byte(secret), now: time.Now}, nil
}

// Encode signs the token's claims into a compact JWT
func (c *TokenCodec) Encode(token *models.Token) (string, error) {
	builder := jwt.NewBuilder().
		Subject(token.Sub).
		IssuedAt(token.IssuedAt).
		Expiration(token.ExpiresAt).
		Claim(claimEmail, token.Email)

	if token.Name != "" {
		builder = builder.Claim(claimName, token.Name)
	}
	if token.Picture != "" {
		builder = builder.Claim(claimPicture, token.Picture)
	}
	if token.ID != nil {
		builder = builder.Claim(claimID, *token.ID)
	}

	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return string(signed), nil
}

// Decode verifies the signature and expiry of a session token and returns its claims
func (c *TokenCodec) Decode(raw string) (*models.Token, error) {
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(c.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify session token: %w", err)
	}

	token := &models.Token{
		Sub:       tok.Subject(),
		IssuedAt:  tok.IssuedAt(),
		ExpiresAt: tok.Expiration(),
		Email:     stringClaim(tok, claimEmail),
		Name:      stringClaim(tok, claimName),
		Picture:   stringClaim(tok, claimPicture),
	}
	if id := stringClaim(tok, claimID); id != "" {
		token.ID = &id
	}

	return token, nil
}

func stringClaim(tok jwt.Token, key string) string {
	v, ok := tok.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
