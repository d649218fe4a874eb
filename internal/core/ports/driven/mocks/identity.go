package mocks

import (
	"context"
	"sync"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// MockIdentityVerifier is a mock implementation of IdentityVerifier for testing
type MockIdentityVerifier struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Identity

	// Disabled switches the verifier into development mode
	Disabled bool
}

// NewMockIdentityVerifier creates a new MockIdentityVerifier
func NewMockIdentityVerifier() *MockIdentityVerifier {
	return &MockIdentityVerifier{
		tokens: make(map[string]*domain.Identity),
	}
}

// AddToken registers a token for a user
func (m *MockIdentityVerifier) AddToken(token, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &domain.Identity{UserID: userID}
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	c := *id
	c.Token = token
	return &c, nil
}

func (m *MockIdentityVerifier) Enabled() bool {
	return !m.Disabled
}
