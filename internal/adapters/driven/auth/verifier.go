package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// Ensure Verifier implements IdentityVerifier
var _ driven.IdentityVerifier = (*Verifier)(nil)

// identityClaims are the claims the identity provider puts in its tokens.
// The subject is the user id.
type identityClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 bearer tokens issued by the external identity provider.
// With an empty secret it is disabled and callers are identified by header.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

// VerifierConfig holds verifier settings.
type VerifierConfig struct {
	Secret   string
	Issuer   string // Optional: required "iss" claim
	Audience string // Optional: required "aud" claim
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg VerifierConfig) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Enabled returns false when no secret is configured (development mode)
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify validates a JWT and returns the caller identity
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*domain.Identity, error) {
	if !v.Enabled() {
		return nil, fmt.Errorf("token verification disabled: %w", domain.ErrUnauthorized)
	}
	if tokenString == "" {
		return nil, domain.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &identityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Token:  tokenString,
	}, nil
}
