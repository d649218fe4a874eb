package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
)

// Ensure analyticsService implements AnalyticsService
var _ driving.AnalyticsService = (*analyticsService)(nil)

// analyticsService implements the AnalyticsService interface
type analyticsService struct {
	store  driven.QueryMetricsStore
	cache  driven.StatsCache
	logger *slog.Logger
	now    func() time.Time
}

// AnalyticsServiceConfig holds configuration for the analytics service.
type AnalyticsServiceConfig struct {
	Store  driven.QueryMetricsStore
	Cache  driven.StatsCache // Optional: stats cache, invalidated on every new record
	Logger *slog.Logger
	Now    func() time.Time // Optional: clock override for tests
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(cfg AnalyticsServiceConfig) driving.AnalyticsService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &analyticsService{
		store:  cfg.Store,
		cache:  cfg.Cache,
		logger: logger,
		now:    now,
	}
}

// LogQuery validates and stores one query record for the user
func (s *analyticsService) LogQuery(ctx context.Context, userID string, m *domain.QueryMetrics) error {
	if m == nil {
		return fmt.Errorf("metrics are required: %w", domain.ErrInvalidInput)
	}

	m.Normalize(userID, s.now())
	if m.UserID == "" {
		return fmt.Errorf("user_id is required: %w", domain.ErrInvalidInput)
	}
	if err := m.Validate(); err != nil {
		return err
	}

	if err := s.store.Save(ctx, m); err != nil {
		return fmt.Errorf("save query metrics: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, m.UserID); err != nil {
			s.logger.Warn("failed to invalidate stats cache", "user_id", m.UserID, "error", err)
		}
	}

	s.logger.Debug("query logged",
		"user_id", m.UserID,
		"id", m.ID,
		"confidence_level", m.ConfidenceLevel,
		"num_sources", m.NumSources)
	return nil
}

// History returns a page of the user's query history, newest first
func (s *analyticsService) History(ctx context.Context, userID string, page, pageSize int) (*domain.QueryPage, error) {
	page, pageSize, err := normalizePage(page, pageSize)
	if err != nil {
		return nil, err
	}

	records, total, err := s.store.List(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list query metrics: %w", err)
	}
	if records == nil {
		records = []*domain.QueryMetrics{}
	}

	return &domain.QueryPage{
		Data:       records,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Stats aggregates the user's queries over the last days (0 = all history)
func (s *analyticsService) Stats(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error) {
	if days < 0 {
		return nil, fmt.Errorf("days must be >= 0: %w", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID, days)
		if err != nil {
			s.logger.Warn("stats cache read failed", "user_id", userID, "days", days, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	now := s.now()
	var since time.Time
	if days > 0 {
		since = now.Add(-time.Duration(days) * 24 * time.Hour)
	}

	records, err := s.store.Since(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load query metrics: %w", err)
	}

	stats := domain.BuildStats(records, days, now)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, days, &stats); err != nil {
			s.logger.Warn("stats cache write failed", "user_id", userID, "days", days, "error", err)
		}
	}

	return &stats, nil
}

// Summary summarizes a history page and scores the default stats window
func (s *analyticsService) Summary(ctx context.Context, userID string, page, pageSize int) (*driving.AnalyticsSummaryResult, error) {
	history, err := s.History(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx, userID, domain.DefaultStatsDays)
	if err != nil {
		return nil, err
	}

	summary := domain.Summarize(history.Data)
	return &driving.AnalyticsSummaryResult{
		Summary:     summary,
		Display:     summary.Display(),
		Performance: domain.NewRAGPerformance(stats.ConfidenceDistribution, stats.TotalQueries),
		Page:        history.Page,
		PageSize:    history.PageSize,
		TotalCount:  history.TotalCount,
	}, nil
}

// normalizePage applies pagination defaults and bounds
func normalizePage(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = domain.DefaultPageSize
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("page must be >= 1: %w", domain.ErrInvalidInput)
	}
	if pageSize < 1 || pageSize > domain.MaxPageSize {
		return 0, 0, fmt.Errorf("page_size must be between 1 and %d: %w", domain.MaxPageSize, domain.ErrInvalidInput)
	}
	return page, pageSize, nil
}
