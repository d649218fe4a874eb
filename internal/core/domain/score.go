package domain

import (
	"math"
	"time"
)

// SubScores holds the optional per-source signals combined into a composite.
// A nil field does not contribute.
type SubScores struct {
	Semantic    *float64
	Credibility *float64
	Recency     *float64
	Category    *float64
}

// ScoreWeights configures how much each signal contributes to the composite.
type ScoreWeights struct {
	Semantic    float64 `json:"semantic" yaml:"semantic"`
	Credibility float64 `json:"credibility" yaml:"credibility"`
	Recency     float64 `json:"recency" yaml:"recency"`
	Category    float64 `json:"category" yaml:"category"`
}

// DefaultScoreWeights returns the weighting published by the RAG engine.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Semantic:    0.60,
		Credibility: 0.20,
		Recency:     0.15,
		Category:    0.05,
	}
}

// Composite is the result of aggregating sub-scores.
type Composite struct {
	Score float64

	// Clamped is true when at least one input was outside [0,1]
	Clamped bool
}

// ClampScore forces v into [0,1]. NaN becomes 0. The flag reports whether v
// had to be changed.
func ClampScore(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return 0, true
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}

// Aggregate combines the present sub-scores with the default weights.
func Aggregate(s SubScores) Composite {
	return DefaultScoreWeights().Aggregate(s)
}

// Aggregate combines the present sub-scores into a composite in [0,1].
// Each present value is clamped, weighted, and the sum is normalized by the
// weights actually used, so a lone semantic score passes through unchanged.
// With nothing present the composite is 0.
func (w ScoreWeights) Aggregate(s SubScores) Composite {
	var (
		sum     float64
		used    float64
		clamped bool
	)

	add := func(v *float64, weight float64) {
		if v == nil || weight <= 0 {
			return
		}
		c, flagged := ClampScore(*v)
		clamped = clamped || flagged
		sum += c * weight
		used += weight
	}

	add(s.Semantic, w.Semantic)
	add(s.Credibility, w.Credibility)
	add(s.Recency, w.Recency)
	add(s.Category, w.Category)

	if used <= 0 {
		return Composite{Score: 0, Clamped: clamped}
	}

	score, flagged := ClampScore(sum / used)
	return Composite{Score: score, Clamped: clamped || flagged}
}

// DefaultRecencyDecay is the age at which a source's recency score reaches 0.
const DefaultRecencyDecay = 365 * 24 * time.Hour

// RecencyScore decays linearly from 1 at publication to 0 after decay.
// Dates in the future score 1.
func RecencyScore(published, now time.Time, decay time.Duration) float64 {
	if decay <= 0 {
		decay = DefaultRecencyDecay
	}
	age := now.Sub(published)
	if age <= 0 {
		return 1
	}
	return math.Max(0, 1-float64(age)/float64(decay))
}

// QualityBand maps a per-source score to its display color.
func QualityBand(score float64) string {
	switch {
	case score < 0.5:
		return "red"
	case score < 0.7:
		return "yellow"
	case score < 0.85:
		return "blue"
	default:
		return "green"
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
