package driving

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// ContentService reports on the knowledge base catalog
type ContentService interface {
	// Metrics analyzes the caller's documents and URLs
	Metrics(ctx context.Context) (*domain.ContentMetrics, error)

	// IndexStatus counts indexed and pending catalog items
	IndexStatus(ctx context.Context) (*domain.IndexStatus, error)
}
