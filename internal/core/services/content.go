package services

import (
	"context"
	"fmt"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
)

// Ensure contentService implements ContentService
var _ driving.ContentService = (*contentService)(nil)

// contentService implements the ContentService interface
type contentService struct {
	catalog driven.ContentCatalog
	now     func() time.Time
}

// NewContentService creates a new ContentService
func NewContentService(catalog driven.ContentCatalog) driving.ContentService {
	return &contentService{catalog: catalog, now: time.Now}
}

func (s *contentService) load(ctx context.Context) ([]*domain.Document, []*domain.URLResource, error) {
	docs, err := s.catalog.Documents(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list documents: %w", err)
	}
	urls, err := s.catalog.URLs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list urls: %w", err)
	}
	return docs, urls, nil
}

// Metrics analyzes the caller's documents and URLs
func (s *contentService) Metrics(ctx context.Context) (*domain.ContentMetrics, error) {
	docs, urls, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	metrics := domain.AnalyzeContent(docs, urls, s.now())
	return &metrics, nil
}

// IndexStatus counts indexed and pending catalog items
func (s *contentService) IndexStatus(ctx context.Context) (*domain.IndexStatus, error) {
	docs, urls, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	status := domain.NewIndexStatus(docs, urls)
	return &status, nil
}
