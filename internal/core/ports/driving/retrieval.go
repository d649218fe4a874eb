package driving

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// SearchOptions configures a retrieval search
type SearchOptions struct {
	// TopK is the number of sources to return (0 = default)
	TopK int
}

// ChatInput is one chat turn from the user
type ChatInput struct {
	Message string
	History []domain.ChatMessage
	Tags    []string
}

// RetrievalService fronts the RAG engine with scoring, ranking and
// confidence classification
type RetrievalService interface {
	// Search returns sources ranked by composite score, descending
	Search(ctx context.Context, query string, opts SearchOptions) ([]*domain.RetrievedSource, error)

	// Chat answers a message and logs one QueryMetrics record for it
	Chat(ctx context.Context, userID string, in ChatInput) (*domain.ChatResponse, error)
}
