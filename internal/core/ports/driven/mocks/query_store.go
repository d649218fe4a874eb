package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// MockQueryMetricsStore is a mock implementation of QueryMetricsStore for testing
type MockQueryMetricsStore struct {
	mu      sync.RWMutex
	records map[string][]*domain.QueryMetrics

	// Err is returned by every method when set
	Err error
}

// NewMockQueryMetricsStore creates a new MockQueryMetricsStore
func NewMockQueryMetricsStore() *MockQueryMetricsStore {
	return &MockQueryMetricsStore{
		records: make(map[string][]*domain.QueryMetrics),
	}
}

func (m *MockQueryMetricsStore) Save(ctx context.Context, rec *domain.QueryMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.records[rec.UserID] = append(m.records[rec.UserID], rec)
	return nil
}

func (m *MockQueryMetricsStore) List(ctx context.Context, userID string, offset, limit int) ([]*domain.QueryMetrics, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}

	all := make([]*domain.QueryMetrics, len(m.records[userID]))
	copy(all, m.records[userID])
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp.Time)
	})

	total := len(all)
	if offset >= total {
		return []*domain.QueryMetrics{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MockQueryMetricsStore) Since(ctx context.Context, userID string, since time.Time) ([]*domain.QueryMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []*domain.QueryMetrics
	for _, rec := range m.records[userID] {
		if since.IsZero() || rec.Timestamp.After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Helper methods for testing

// Count returns the number of stored records for a user
func (m *MockQueryMetricsStore) Count(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[userID])
}

// Reset removes all records
func (m *MockQueryMetricsStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string][]*domain.QueryMetrics)
	m.Err = nil
}
