package driven

import (
	"context"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// QueryMetricsStore handles QueryMetrics persistence (PostgreSQL)
type QueryMetricsStore interface {
	// Save stores a new record. Records are immutable once saved.
	Save(ctx context.Context, m *domain.QueryMetrics) error

	// List returns a page of the user's records, newest first, and the
	// total number of records the user has.
	List(ctx context.Context, userID string, offset, limit int) ([]*domain.QueryMetrics, int, error)

	// Since returns every record of the user with a timestamp after the
	// given time. A zero time returns the full history.
	Since(ctx context.Context, userID string, since time.Time) ([]*domain.QueryMetrics, error)
}
