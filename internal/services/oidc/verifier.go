package oidc

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/validation"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Verifier verifies provider ID tokens
type Verifier struct {
	jwksManager *JWKSManager
	jwksURL     string
	issuers     []string
	audience    string
	now         func() time.Time
}

// NewVerifier creates a new ID token verifier. Any of issuers is accepted as the iss claim.
func NewVerifier(jwksManager *JWKSManager, jwksURL, audience string, issuers ...string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		jwksURL:     jwksURL,
		issuers:     issuers,
		audience:    audience,
		now:         time.Now,
	}
}

// Verify verifies an ID token and extracts the provider profile
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*models.ProviderProfile, error) {
	token, err := v.parse(ctx, rawIDToken)
	if err != nil {
		// The provider may have rotated its keys since they were cached
		v.jwksManager.Invalidate(v.jwksURL)
		token, err = v.parse(ctx, rawIDToken)
		if err != nil {
			return nil, err
		}
	}

	if !v.issuerAllowed(token.Issuer()) {
		return nil, fmt.Errorf("token issuer mismatch: got %q", token.Issuer())
	}

	profile := &models.ProviderProfile{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Aud: v.audience,
	}

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			profile.Email = emailStr
		}
	}

	if verified, ok := token.Get("email_verified"); ok {
		switch val := verified.(type) {
		case bool:
			profile.EmailVerified = val
		case string:
			profile.EmailVerified = val == "true"
		}
	}

	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			profile.Name = nameStr
		}
	}

	if picture, ok := token.Get("picture"); ok {
		if pictureStr, ok := picture.(string); ok {
			profile.Picture = pictureStr
		}
	}

	if err := validation.Describe(validation.Validate.Struct(profile)); err != nil {
		return nil, fmt.Errorf("invalid provider profile: %w", err)
	}

	return profile, nil
}

func (v *Verifier) parse(ctx context.Context, rawIDToken string) (jwt.Token, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(rawIDToken),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithAudience(v.audience),
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}
	return token, nil
}

func (v *Verifier) issuerAllowed(iss string) bool {
	for _, allowed := range v.issuers {
		if iss == allowed {
			return true
		}
	}
	return false
}
