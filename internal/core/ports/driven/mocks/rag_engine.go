package mocks

import (
	"context"
	"sync"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// MockRAGEngine is a mock implementation of RAGEngine for testing
type MockRAGEngine struct {
	mu sync.Mutex

	SearchResults []*domain.RetrievedSource
	Reply         *driven.ChatReply
	Err           error

	SearchCalls []driven.SearchRequest
	ChatCalls   []driven.ChatRequest
}

// NewMockRAGEngine creates a new MockRAGEngine
func NewMockRAGEngine() *MockRAGEngine {
	return &MockRAGEngine{}
}

func (m *MockRAGEngine) Search(ctx context.Context, req driven.SearchRequest) ([]*domain.RetrievedSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return cloneSources(m.SearchResults), nil
}

func (m *MockRAGEngine) Chat(ctx context.Context, req driven.ChatRequest) (*driven.ChatReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls = append(m.ChatCalls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Reply == nil {
		return &driven.ChatReply{}, nil
	}
	reply := *m.Reply
	reply.Sources = cloneSources(m.Reply.Sources)
	return &reply, nil
}

func cloneSources(in []*domain.RetrievedSource) []*domain.RetrievedSource {
	out := make([]*domain.RetrievedSource, 0, len(in))
	for _, s := range in {
		c := *s
		out = append(out, &c)
	}
	return out
}

// MockContentCatalog is a mock implementation of ContentCatalog for testing
type MockContentCatalog struct {
	mu sync.Mutex

	Docs    []*domain.Document
	URLList []*domain.URLResource
	Err     error

	Calls int
}

// NewMockContentCatalog creates a new MockContentCatalog
func NewMockContentCatalog(docs []*domain.Document, urls []*domain.URLResource) *MockContentCatalog {
	return &MockContentCatalog{Docs: docs, URLList: urls}
}

func (m *MockContentCatalog) Documents(ctx context.Context) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Docs, nil
}

func (m *MockContentCatalog) URLs(ctx context.Context) ([]*domain.URLResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.URLList, nil
}

// CallCount returns how many times Documents was called
func (m *MockContentCatalog) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// Set replaces the catalog contents
func (m *MockContentCatalog) Set(docs []*domain.Document, urls []*domain.URLResource, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Docs = docs
	m.URLList = urls
	m.Err = err
}
