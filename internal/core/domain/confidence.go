package domain

import (
	"regexp"
	"strings"
)

// ConfidenceLevel is the RAG engine's self-assessment of how well the
// retrieved sources support an answer. The zero value means unknown or absent.
type ConfidenceLevel string

const (
	ConfidenceHigh         ConfidenceLevel = "HIGH CONFIDENCE"
	ConfidenceModerate     ConfidenceLevel = "MODERATE CONFIDENCE"
	ConfidenceLow          ConfidenceLevel = "LOW CONFIDENCE"
	ConfidenceInsufficient ConfidenceLevel = "INSUFFICIENT DATA"
	ConfidenceUnknown      ConfidenceLevel = ""
)

// ConfidenceLevels lists the recognized levels from strongest to weakest.
var ConfidenceLevels = []ConfidenceLevel{
	ConfidenceHigh,
	ConfidenceModerate,
	ConfidenceLow,
	ConfidenceInsufficient,
}

var confidenceAliases = map[string]ConfidenceLevel{
	"HIGH CONFIDENCE":     ConfidenceHigh,
	"HIGH":                ConfidenceHigh,
	"MODERATE CONFIDENCE": ConfidenceModerate,
	"MODERATE":            ConfidenceModerate,
	"LOW CONFIDENCE":      ConfidenceLow,
	"LOW":                 ConfidenceLow,
	"INSUFFICIENT DATA":   ConfidenceInsufficient,
	"INSUFFICIENT":        ConfidenceInsufficient,
}

// ParseConfidenceLevel normalizes a raw confidence string.
// Surrounding brackets and whitespace are ignored and matching is
// case-insensitive. Unrecognized input yields ConfidenceUnknown.
func ParseConfidenceLevel(s string) ConfidenceLevel {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	return confidenceAliases[s]
}

// IsValid returns true for the four recognized levels.
func (c ConfidenceLevel) IsValid() bool {
	_, ok := confidenceWeights[c]
	return ok
}

var confidenceWeights = map[ConfidenceLevel]float64{
	ConfidenceHigh:         1.0,
	ConfidenceModerate:     0.7,
	ConfidenceLow:          0.3,
	ConfidenceInsufficient: 0.0,
}

// Weight returns the contribution of the level to the RAG performance score.
func (c ConfidenceLevel) Weight() float64 {
	return confidenceWeights[c]
}

// IsSuccess returns true when the answer counts towards the success rate.
func (c ConfidenceLevel) IsSuccess() bool {
	return c == ConfidenceHigh || c == ConfidenceModerate
}

// Badge is the display descriptor for a confidence level.
type Badge struct {
	Color       string `json:"color"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Badge returns the display descriptor for the level.
func (c ConfidenceLevel) Badge() Badge {
	switch c {
	case ConfidenceHigh:
		return Badge{Color: "green", Label: "High Confidence", Description: "Strong support from multiple reliable sources"}
	case ConfidenceModerate:
		return Badge{Color: "blue", Label: "Moderate Confidence", Description: "Reasonable support from available sources"}
	case ConfidenceLow:
		return Badge{Color: "amber", Label: "Low Confidence", Description: "Limited support, verify before relying on it"}
	case ConfidenceInsufficient:
		return Badge{Color: "gray", Label: "Insufficient Data", Description: "Sources do not contain enough information"}
	default:
		return Badge{Color: "gray", Label: "Unknown", Description: "No confidence assessment available"}
	}
}

// RAGRating is the traffic-light summary of how well an answer is supported.
type RAGRating string

const (
	RAGGreen RAGRating = "Green"
	RAGAmber RAGRating = "Amber"
	RAGRed   RAGRating = "Red"
)

// RAGRating maps the level to its traffic-light rating. Anything weaker than
// moderate, including an unknown level, rates red.
func (c ConfidenceLevel) RAGRating() RAGRating {
	switch c {
	case ConfidenceHigh:
		return RAGGreen
	case ConfidenceModerate:
		return RAGAmber
	default:
		return RAGRed
	}
}

// Explanation describes what the rating says about the supporting evidence.
func (r RAGRating) Explanation() string {
	switch r {
	case RAGGreen:
		return "This response is based on high-quality source material that directly addresses your query with reliable information."
	case RAGAmber:
		return "This response is based on related sources, but may not fully address all aspects of your query or may come from less authoritative sources."
	default:
		return "This response has limited or no supporting evidence in the knowledge base. Consider consulting additional sources or refining your query."
	}
}

// NextSteps returns the actions suggested to the reader. Green answers need none.
func (r RAGRating) NextSteps() []string {
	switch r {
	case RAGGreen:
		return nil
	case RAGAmber:
		return []string{
			"Review the provided sources for partial information",
			"Consider consulting additional clinical resources for complete information",
		}
	default:
		return []string{
			"Consider consulting a healthcare professional for more specific information",
			"Your organization may want to add more resources on this topic to the knowledge base",
			"Try rephrasing your query to be more specific",
		}
	}
}

// confidenceTagPattern matches a leading bracketed tag such as "[HIGH CONFIDENCE] ".
var confidenceTagPattern = regexp.MustCompile(`^\[([A-Z\s]+)\]\s*`)

// ConfidenceTag is the result of extracting a confidence tag from response text.
type ConfidenceTag struct {
	// Level is the recognized level, ConfidenceUnknown if none
	Level ConfidenceLevel

	// Raw is the bracket contents when a tag was present, recognized or not
	Raw string

	// Content is the response text with any leading tag removed
	Content string
}

// Found returns true when the text carried a well-formed tag.
func (t ConfidenceTag) Found() bool {
	return t.Raw != ""
}

// ExtractConfidence splits a leading confidence tag from response text.
// A matching tag is always stripped from the content; one that names no known
// level yields ConfidenceUnknown with Raw set. Text without a tag is returned
// unchanged.
func ExtractConfidence(content string) ConfidenceTag {
	m := confidenceTagPattern.FindStringSubmatch(content)
	if m == nil {
		return ConfidenceTag{Content: content}
	}

	raw := strings.TrimSpace(m[1])
	return ConfidenceTag{
		Level:   ParseConfidenceLevel(raw),
		Raw:     raw,
		Content: content[len(m[0]):],
	}
}

// RAGPerformanceScore weights the confidence distribution into a single
// score in [0,1]: high counts fully, moderate at 0.7, low at 0.3.
func RAGPerformanceScore(distribution map[ConfidenceLevel]int, total int) float64 {
	if total <= 0 {
		return 0
	}

	var sum float64
	for level, count := range distribution {
		pct := float64(count) / float64(total) * 100
		sum += pct * level.Weight()
	}

	score, _ := ClampScore(sum / 100)
	return score
}

// PerformanceBand maps a RAG performance score to its display color.
func PerformanceBand(score float64) string {
	switch {
	case score >= 0.8:
		return "green"
	case score >= 0.6:
		return "blue"
	case score >= 0.4:
		return "yellow"
	default:
		return "red"
	}
}

// ConfidenceBreakdown returns the percentage of queries at each recognized level.
func ConfidenceBreakdown(distribution map[ConfidenceLevel]int, total int) map[ConfidenceLevel]float64 {
	out := make(map[ConfidenceLevel]float64, len(ConfidenceLevels))
	for _, level := range ConfidenceLevels {
		if total <= 0 {
			out[level] = 0
			continue
		}
		out[level] = float64(distribution[level]) / float64(total) * 100
	}
	return out
}
