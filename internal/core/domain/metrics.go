package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Timestamp is a point in time that decodes both RFC 3339 and the naive
// ISO-8601 form (no zone, local time) older logs were written with.
// It always encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the accepted timestamp layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("timestamp %q: %w", s, ErrInvalidInput)
}

// MarshalJSON encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts any of the supported layouts. Empty strings and null
// leave the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return "", nil
	}
	return t.Format(time.RFC3339), nil
}

// Date returns the UTC calendar date of the timestamp. Records written from
// different zones share one day boundary.
func (t Timestamp) Date() string {
	return t.UTC().Format("2006-01-02")
}

// QueryMetrics is one logged query/response event. Records are written once
// per chat response and never modified.
type QueryMetrics struct {
	ID                    string             `json:"id,omitempty" yaml:"id,omitempty"`
	Query                 string             `json:"query" yaml:"query"`
	Timestamp             Timestamp          `json:"timestamp" yaml:"timestamp"`
	UserID                string             `json:"user_id" yaml:"user_id"`
	ConfidenceLevel       ConfidenceLevel    `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"`
	ResponseLength        int                `json:"response_length" yaml:"response_length"`
	ProcessingTimeMs      *int64             `json:"processing_time_ms,omitempty" yaml:"processing_time_ms,omitempty"`
	NumSources            int                `json:"num_sources" yaml:"num_sources"`
	AvgSemanticScore      *float64           `json:"avg_semantic_score,omitempty" yaml:"avg_semantic_score,omitempty"`
	AvgCredibilityScore   *float64           `json:"avg_credibility_score,omitempty" yaml:"avg_credibility_score,omitempty"`
	AvgRecencyScore       *float64           `json:"avg_recency_score,omitempty" yaml:"avg_recency_score,omitempty"`
	SourceTypes           map[SourceType]int `json:"source_types" yaml:"source_types"`
	HallucinationDetected *bool              `json:"hallucination_detected,omitempty" yaml:"hallucination_detected,omitempty"`
	Tags                  []string           `json:"tags" yaml:"tags"`
}

// Validate checks the record invariants before it is stored.
func (m *QueryMetrics) Validate() error {
	if strings.TrimSpace(m.Query) == "" {
		return fmt.Errorf("query is required: %w", ErrInvalidInput)
	}
	if m.ResponseLength < 0 {
		return fmt.Errorf("response_length must be >= 0: %w", ErrInvalidInput)
	}
	if m.NumSources < 0 {
		return fmt.Errorf("num_sources must be >= 0: %w", ErrInvalidInput)
	}
	if m.ProcessingTimeMs != nil && *m.ProcessingTimeMs < 0 {
		return fmt.Errorf("processing_time_ms must be >= 0: %w", ErrInvalidInput)
	}
	for name, v := range map[string]*float64{
		"avg_semantic_score":    m.AvgSemanticScore,
		"avg_credibility_score": m.AvgCredibilityScore,
		"avg_recency_score":     m.AvgRecencyScore,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be in [0,1]: %w", name, ErrInvalidInput)
		}
	}
	for kind, count := range m.SourceTypes {
		if count < 0 {
			return fmt.Errorf("source_types[%s] must be >= 0: %w", kind, ErrInvalidInput)
		}
	}
	return nil
}

// Normalize fills server-assigned fields and canonicalizes the confidence level.
func (m *QueryMetrics) Normalize(userID string, now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if userID != "" {
		m.UserID = userID
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = Timestamp{Time: now}
	}
	if m.ConfidenceLevel != ConfidenceUnknown {
		m.ConfidenceLevel = ParseConfidenceLevel(string(m.ConfidenceLevel))
	}
	if m.SourceTypes == nil {
		m.SourceTypes = map[SourceType]int{}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
}

// QueryPage is one page of a user's query history, newest first.
type QueryPage struct {
	Data       []*QueryMetrics `json:"data" yaml:"data"`
	TotalCount int             `json:"total_count" yaml:"total_count"`
	Page       int             `json:"page" yaml:"page"`
	PageSize   int             `json:"page_size" yaml:"page_size"`
}

const (
	// DefaultStatsDays is the stats window when none is given
	DefaultStatsDays = 30

	// DefaultPageSize is the history page size when none is given
	DefaultPageSize = 20

	// MaxPageSize bounds the history page size
	MaxPageSize = 100
)

// ChatMetricsInput is what a chat handler knows after answering.
type ChatMetricsInput struct {
	Query           string
	UserID          string
	Response        string
	ConfidenceLevel ConfidenceLevel
	Sources         []*RetrievedSource
	ProcessingTime  time.Duration
	Tags            []string
	Now             time.Time
}

// NewChatMetrics builds the analytics record for one chat response.
// An answer given with confidence but without any sources is flagged as a
// possible hallucination.
func NewChatMetrics(in ChatMetricsInput) *QueryMetrics {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var semantic, credibility, recency []float64
	sourceTypes := make(map[SourceType]int)
	for _, src := range in.Sources {
		if src == nil {
			continue
		}
		if src.SemanticScore != nil {
			semantic = append(semantic, *src.SemanticScore)
		}
		if src.CredibilityScore != nil {
			credibility = append(credibility, *src.CredibilityScore)
		}
		if src.RecencyScore != nil {
			recency = append(recency, *src.RecencyScore)
		}
		sourceTypes[src.Ref().Type]++
	}

	hallucination := len(in.Sources) == 0 &&
		in.ConfidenceLevel != ConfidenceUnknown &&
		in.ConfidenceLevel != ConfidenceInsufficient

	elapsed := in.ProcessingTime.Milliseconds()
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	return &QueryMetrics{
		ID:                    uuid.NewString(),
		Query:                 in.Query,
		Timestamp:             Timestamp{Time: now},
		UserID:                in.UserID,
		ConfidenceLevel:       in.ConfidenceLevel,
		ResponseLength:        utf8.RuneCountInString(in.Response),
		ProcessingTimeMs:      &elapsed,
		NumSources:            len(in.Sources),
		AvgSemanticScore:      mean(semantic),
		AvgCredibilityScore:   mean(credibility),
		AvgRecencyScore:       mean(recency),
		SourceTypes:           sourceTypes,
		HallucinationDetected: &hallucination,
		Tags:                  tags,
	}
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
