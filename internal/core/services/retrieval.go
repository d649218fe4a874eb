package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

const (
	// DefaultTopK is the number of sources returned when none is requested
	DefaultTopK = 5

	// MaxTopK bounds the number of sources per search
	MaxTopK = 50
)

// retrievalService implements the RetrievalService interface
type retrievalService struct {
	engine    driven.RAGEngine
	pipeline  driven.SourcePipeline
	analytics driving.AnalyticsService
	queue     driven.TaskQueue
	logger    *slog.Logger
	now       func() time.Time
}

// RetrievalServiceConfig holds configuration for the retrieval service.
type RetrievalServiceConfig struct {
	Engine    driven.RAGEngine
	Pipeline  driven.SourcePipeline
	Analytics driving.AnalyticsService // Used for synchronous logging
	Queue     driven.TaskQueue         // Optional: log chat metrics asynchronously through the worker
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewRetrievalService creates a new RetrievalService
func NewRetrievalService(cfg RetrievalServiceConfig) driving.RetrievalService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &retrievalService{
		engine:    cfg.Engine,
		pipeline:  cfg.Pipeline,
		analytics: cfg.Analytics,
		queue:     cfg.Queue,
		logger:    logger,
		now:       now,
	}
}

// Search returns sources ranked by composite score, descending
func (s *retrievalService) Search(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}

	// Apply defaults
	topK := opts.TopK
	if topK < 0 {
		return nil, fmt.Errorf("top_k must be >= 0: %w", domain.ErrInvalidInput)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	results, err := s.engine.Search(ctx, driven.SearchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ranked := s.pipeline.Process(results)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// Chat answers a message and logs one QueryMetrics record for it
func (s *retrievalService) Chat(ctx context.Context, userID string, in driving.ChatInput) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("message is required: %w", domain.ErrInvalidInput)
	}

	start := s.now()

	reply, err := s.engine.Chat(ctx, driven.ChatRequest{Message: message, History: in.History})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	sources := s.pipeline.Process(reply.Sources)

	// An explicit level wins over a tag in the text; the tag is stripped
	// either way.
	tag := domain.ExtractConfidence(reply.Message)
	level := domain.ParseConfidenceLevel(reply.ConfidenceLevel)
	if !level.IsValid() {
		level = tag.Level
	}
	if tag.Found() && !tag.Level.IsValid() {
		s.logger.Debug("unrecognized confidence tag", "tag", tag.Raw)
	}

	metrics := domain.NewChatMetrics(domain.ChatMetricsInput{
		Query:           message,
		UserID:          userID,
		Response:        tag.Content,
		ConfidenceLevel: level,
		Sources:         sources,
		ProcessingTime:  s.now().Sub(start),
		Tags:            in.Tags,
		Now:             s.now(),
	})
	s.record(ctx, userID, metrics)

	return domain.NewChatResponse(tag.Content, level, sources), nil
}

// record logs the chat metrics. Failures are logged and never surface to
// the caller.
func (s *retrievalService) record(ctx context.Context, userID string, m *domain.QueryMetrics) {
	if s.queue != nil {
		task, err := domain.NewLogQueryTask(m)
		if err == nil {
			err = s.queue.Enqueue(ctx, task)
		}
		if err == nil {
			return
		}
		s.logger.Warn("failed to enqueue query log, logging synchronously", "user_id", userID, "error", err)
	}

	if s.analytics == nil {
		return
	}
	if err := s.analytics.LogQuery(ctx, userID, m); err != nil {
		s.logger.Error("failed to log chat metrics", "user_id", userID, "error", err)
	}
}
