package postprocessors

import (
	"sort"
	"sync"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SourcePipeline = (*Pipeline)(nil)

// Pipeline implements SourcePipeline.
// It chains multiple source processors in order, starting with the scorer.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.SourceProcessor
	sorted     bool
}

// NewPipeline creates a new source pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.SourceProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.SourceProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
// Sources that fail validation are dropped before the first stage.
func (p *Pipeline) Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	p.mu.Unlock()

	p.mu.RLock()
	processors := make([]driven.SourceProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.RUnlock()

	out := make([]*domain.RetrievedSource, 0, len(sources))
	for _, src := range sources {
		if src == nil || src.Validate() != nil {
			continue
		}
		out = append(out, src)
	}

	for _, proc := range processors {
		out = proc.Process(out)
	}

	return out
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// PipelineConfig configures the default pipeline.
type PipelineConfig struct {
	Scorer CompositeScorerConfig

	// ExcerptLimit caps excerpt length in characters (0 = DefaultExcerptLimit)
	ExcerptLimit int

	// TopK keeps only the best K sources when positive
	TopK int
}

// DefaultPipeline creates a pipeline with the default processors.
func DefaultPipeline(cfg PipelineConfig) *Pipeline {
	p := NewPipeline()
	p.Add(NewCompositeScorer(cfg.Scorer))
	p.Add(NewRanker())
	p.Add(NewScoreRounder())
	p.Add(NewExcerptTrimmer(cfg.ExcerptLimit))
	if cfg.TopK > 0 {
		p.Add(NewLimiter(cfg.TopK))
	}
	return p
}
