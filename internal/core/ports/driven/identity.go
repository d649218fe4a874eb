package driven

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// IdentityVerifier resolves the caller of a request from its credentials.
// Token issuance belongs to the external identity provider.
type IdentityVerifier interface {
	// Verify validates a bearer token and returns the caller identity.
	// Returns ErrTokenInvalid, ErrTokenExpired or ErrUnauthorized.
	Verify(ctx context.Context, token string) (*domain.Identity, error)

	// Enabled returns false in development mode, where the caller is taken
	// from the X-User-ID header instead of a token.
	Enabled() bool
}
