package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// MockStatsCache is a mock implementation of StatsCache for testing
type MockStatsCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.QueryStatsSummary

	Hits          int
	Misses        int
	Invalidations int
}

// NewMockStatsCache creates a new MockStatsCache
func NewMockStatsCache() *MockStatsCache {
	return &MockStatsCache{
		entries: make(map[string]*domain.QueryStatsSummary),
	}
}

func statsKey(userID string, days int) string {
	return fmt.Sprintf("%s/%d", userID, days)
}

func (m *MockStatsCache) Get(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.entries[statsKey(userID, days)]
	if !ok {
		m.Misses++
		return nil, nil
	}
	m.Hits++
	return stats, nil
}

func (m *MockStatsCache) Set(ctx context.Context, userID string, days int, stats *domain.QueryStatsSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[statsKey(userID, days)] = stats
	return nil
}

func (m *MockStatsCache) Invalidate(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := userID + "/"
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	m.Invalidations++
	return nil
}
