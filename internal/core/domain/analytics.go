package domain

import "fmt"

// AnalyticsSummary holds the dashboard aggregates of a set of query records.
type AnalyticsSummary struct {
	TotalRecords         int     `json:"total_records" yaml:"total_records"`
	AverageSemanticScore float64 `json:"average_semantic_score" yaml:"average_semantic_score"`
	AverageSources       float64 `json:"average_sources" yaml:"average_sources"`
	HallucinationRate    float64 `json:"hallucination_rate" yaml:"hallucination_rate"`
	SuccessRate          float64 `json:"success_rate" yaml:"success_rate"`
}

// Summarize reduces query records to dashboard aggregates. It operates on
// whatever slice it is given (typically the loaded history page). Nil
// records are skipped. An empty input yields all zeros.
func Summarize(records []*QueryMetrics) AnalyticsSummary {
	var (
		total          int
		semanticSum    float64
		semanticCount  int
		sourcesSum     int
		hallucinations int
		successes      int
	)

	for _, m := range records {
		if m == nil {
			continue
		}
		total++
		if m.AvgSemanticScore != nil {
			score, _ := ClampScore(*m.AvgSemanticScore)
			semanticSum += score
			semanticCount++
		}
		sourcesSum += m.NumSources
		if m.HallucinationDetected != nil && *m.HallucinationDetected {
			hallucinations++
		}
		if ParseConfidenceLevel(string(m.ConfidenceLevel)).IsSuccess() {
			successes++
		}
	}

	summary := AnalyticsSummary{TotalRecords: total}
	if semanticCount > 0 {
		summary.AverageSemanticScore = semanticSum / float64(semanticCount)
	}
	if total > 0 {
		summary.AverageSources = float64(sourcesSum) / float64(total)
		summary.HallucinationRate = float64(hallucinations) / float64(total) * 100
		summary.SuccessRate = float64(successes) / float64(total) * 100
	}
	return summary
}

// SummaryDisplay is the formatted form of an AnalyticsSummary.
type SummaryDisplay struct {
	AverageSemanticScore string `json:"average_semantic_score" yaml:"average_semantic_score"`
	AverageSources       string `json:"average_sources" yaml:"average_sources"`
	HallucinationRate    string `json:"hallucination_rate" yaml:"hallucination_rate"`
	SuccessRate          string `json:"success_rate" yaml:"success_rate"`
}

// Display formats the summary with one decimal. The semantic score is shown
// as a percentage.
func (s AnalyticsSummary) Display() SummaryDisplay {
	return SummaryDisplay{
		AverageSemanticScore: fmt.Sprintf("%.1f%%", s.AverageSemanticScore*100),
		AverageSources:       fmt.Sprintf("%.1f", s.AverageSources),
		HallucinationRate:    fmt.Sprintf("%.1f%%", s.HallucinationRate),
		SuccessRate:          fmt.Sprintf("%.1f%%", s.SuccessRate),
	}
}

// RAGPerformance is the confidence-weighted performance of the RAG engine
// over a stats window.
type RAGPerformance struct {
	Score     float64                     `json:"score" yaml:"score"`
	Band      string                      `json:"band" yaml:"band"`
	Breakdown map[ConfidenceLevel]float64 `json:"breakdown" yaml:"breakdown"`
}

// NewRAGPerformance scores a confidence distribution.
func NewRAGPerformance(distribution map[ConfidenceLevel]int, total int) RAGPerformance {
	score := RAGPerformanceScore(distribution, total)
	return RAGPerformance{
		Score:     score,
		Band:      PerformanceBand(score),
		Breakdown: ConfidenceBreakdown(distribution, total),
	}
}
