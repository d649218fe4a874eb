package driving

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// AnalyticsSummaryResult is the analytics summary of one history page
// together with the RAG performance of the default stats window.
type AnalyticsSummaryResult struct {
	Summary     domain.AnalyticsSummary `json:"summary"`
	Display     domain.SummaryDisplay   `json:"display"`
	Performance domain.RAGPerformance   `json:"rag_performance"`
	Page        int                     `json:"page"`
	PageSize    int                     `json:"page_size"`
	TotalCount  int                     `json:"total_count"`
}

// AnalyticsService handles query logging and analytics over the log
type AnalyticsService interface {
	// LogQuery validates and stores one query record for the user
	LogQuery(ctx context.Context, userID string, m *domain.QueryMetrics) error

	// History returns a page of the user's query history, newest first.
	// Zero values select the defaults.
	History(ctx context.Context, userID string, page, pageSize int) (*domain.QueryPage, error)

	// Stats aggregates the user's queries over the last days (0 = all history)
	Stats(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error)

	// Summary summarizes a history page and scores the default stats window
	Summary(ctx context.Context, userID string, page, pageSize int) (*AnalyticsSummaryResult, error)
}
