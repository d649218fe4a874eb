package driven

import "github.com/medivault-ai/medivault-core/internal/core/domain"

// SourceProcessor applies one post-processing step to retrieved sources.
// Processors form a pipeline: scorer -> ranker -> rounder -> trimmer.
type SourceProcessor interface {
	// Process transforms the sources and returns the result.
	Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// SourcePipeline chains multiple source processors in order.
type SourcePipeline interface {
	// Process applies all processors in order.
	Process(sources []*domain.RetrievedSource) []*domain.RetrievedSource

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor SourceProcessor)

	// List returns processor names in order.
	List() []string
}
