package postprocessors

import (
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// CompositeScorerConfig configures the scorer.
type CompositeScorerConfig struct {
	// Weights used to derive a missing composite (zero value = defaults)
	Weights domain.ScoreWeights

	// OnClamp is called once per source that carried an out-of-range score
	OnClamp func(src *domain.RetrievedSource)

	Logger *slog.Logger
}

// CompositeScorer guarantees every source carries a composite score in [0,1].
// A composite supplied by the engine is clamped; a missing one is derived
// from the sub-scores. Out-of-range sub-scores are clamped in place.
// This is the first processor in the pipeline (Order = 0).
type CompositeScorer struct {
	weights domain.ScoreWeights
	onClamp func(src *domain.RetrievedSource)
	logger  *slog.Logger
}

// Verify interface compliance
var _ driven.SourceProcessor = (*CompositeScorer)(nil)

// NewCompositeScorer creates a new scorer with the given config.
func NewCompositeScorer(cfg CompositeScorerConfig) *CompositeScorer {
	if cfg.Weights == (domain.ScoreWeights{}) {
		cfg.Weights = domain.DefaultScoreWeights()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CompositeScorer{
		weights: cfg.Weights,
		onClamp: cfg.OnClamp,
		logger:  cfg.Logger,
	}
}

// Process assigns composite scores.
func (c *CompositeScorer) Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource {
	for _, src := range sources {
		clamped := false
		for _, sub := range []*float64{src.SemanticScore, src.CredibilityScore, src.RecencyScore, src.CategoryScore} {
			if sub == nil {
				continue
			}
			v, flagged := domain.ClampScore(*sub)
			*sub = v
			clamped = clamped || flagged
		}

		if src.Score != nil {
			v, flagged := domain.ClampScore(*src.Score)
			src.Score = domain.Float(v)
			clamped = clamped || flagged
		} else {
			src.Score = domain.Float(c.weights.Aggregate(src.SubScores()).Score)
		}

		if clamped {
			ref := src.Ref()
			c.logger.Warn("source score out of range, clamped",
				"source_type", ref.Type,
				"source_id", ref.ID,
				"score", *src.Score)
			if c.onClamp != nil {
				c.onClamp(src)
			}
		}
	}
	return sources
}

// Name returns the processor name.
func (c *CompositeScorer) Name() string {
	return "composite-scorer"
}

// Order returns 0 - scorer should be first.
func (c *CompositeScorer) Order() int {
	return 0
}

// Ranker orders sources by composite score, highest first.
// Equal scores keep the engine's order.
type Ranker struct{}

// Verify interface compliance
var _ driven.SourceProcessor = (*Ranker)(nil)

// NewRanker creates a new ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Process sorts the sources.
func (r *Ranker) Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].CompositeScore() > sources[j].CompositeScore()
	})
	return sources
}

// Name returns the processor name.
func (r *Ranker) Name() string {
	return "ranker"
}

// Order returns 10 - ranker runs after the scorer.
func (r *Ranker) Order() int {
	return 10
}

// ScoreRounder rounds every score to two decimals for display.
type ScoreRounder struct{}

// Verify interface compliance
var _ driven.SourceProcessor = (*ScoreRounder)(nil)

// NewScoreRounder creates a new rounder.
func NewScoreRounder() *ScoreRounder {
	return &ScoreRounder{}
}

// Process rounds scores in place.
func (s *ScoreRounder) Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource {
	for _, src := range sources {
		for _, v := range []*float64{src.Score, src.SemanticScore, src.CredibilityScore, src.RecencyScore, src.CategoryScore} {
			if v != nil {
				*v = domain.Round2(*v)
			}
		}
	}
	return sources
}

// Name returns the processor name.
func (s *ScoreRounder) Name() string {
	return "score-rounder"
}

// Order returns 20 - rounding happens after ranking.
func (s *ScoreRounder) Order() int {
	return 20
}

// DefaultExcerptLimit is the maximum excerpt length in characters.
const DefaultExcerptLimit = 300

// ExcerptTrimmer caps excerpts at a character limit, appending "...".
type ExcerptTrimmer struct {
	limit int
}

// Verify interface compliance
var _ driven.SourceProcessor = (*ExcerptTrimmer)(nil)

// NewExcerptTrimmer creates a new trimmer. A non-positive limit selects the default.
func NewExcerptTrimmer(limit int) *ExcerptTrimmer {
	if limit <= 0 {
		limit = DefaultExcerptLimit
	}
	return &ExcerptTrimmer{limit: limit}
}

// Process trims long excerpts.
func (e *ExcerptTrimmer) Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource {
	for _, src := range sources {
		if utf8.RuneCountInString(src.Excerpt) <= e.limit {
			continue
		}
		runes := []rune(src.Excerpt)
		src.Excerpt = string(runes[:e.limit]) + "..."
	}
	return sources
}

// Name returns the processor name.
func (e *ExcerptTrimmer) Name() string {
	return "excerpt-trimmer"
}

// Order returns 30.
func (e *ExcerptTrimmer) Order() int {
	return 30
}

// Limiter keeps the first K sources.
type Limiter struct {
	k int
}

// Verify interface compliance
var _ driven.SourceProcessor = (*Limiter)(nil)

// NewLimiter creates a new limiter.
func NewLimiter(k int) *Limiter {
	return &Limiter{k: k}
}

// Process truncates the slice.
func (l *Limiter) Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource {
	if l.k > 0 && len(sources) > l.k {
		return sources[:l.k]
	}
	return sources
}

// Name returns the processor name.
func (l *Limiter) Name() string {
	return "limiter"
}

// Order returns 40 - limiting must see the ranked list.
func (l *Limiter) Order() int {
	return 40
}
