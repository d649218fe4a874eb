package driven

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// StatsCache caches computed stats windows per user (Redis)
type StatsCache interface {
	// Get returns the cached stats for the window, or nil, nil on a miss
	Get(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error)

	// Set caches the stats for the window
	Set(ctx context.Context, userID string, days int, stats *domain.QueryStatsSummary) error

	// Invalidate drops every cached window of the user
	Invalidate(ctx context.Context, userID string) error
}
