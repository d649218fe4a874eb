package driven

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// SearchRequest is a semantic search against the knowledge base.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// ChatRequest is one user turn sent to the RAG engine.
type ChatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history,omitempty"`
}

// ChatReply is the RAG engine's answer. ConfidenceLevel is set when the
// engine reports it explicitly; the message may also carry a bracketed tag.
type ChatReply struct {
	Message         string                    `json:"message"`
	ConfidenceLevel string                    `json:"confidence_level,omitempty"`
	Sources         []*domain.RetrievedSource `json:"sources"`
}

// RAGEngine is the external retrieval and generation backend.
type RAGEngine interface {
	// Search returns the chunks most relevant to the query
	Search(ctx context.Context, req SearchRequest) ([]*domain.RetrievedSource, error)

	// Chat answers a message using retrieved sources
	Chat(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

// ContentCatalog lists the items of the knowledge base.
type ContentCatalog interface {
	// Documents lists the caller's uploaded documents
	Documents(ctx context.Context) ([]*domain.Document, error)

	// URLs lists the caller's registered URLs
	URLs(ctx context.Context) ([]*domain.URLResource, error)
}
