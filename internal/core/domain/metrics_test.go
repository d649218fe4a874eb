package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 utc", "2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-05-01T12:00:00+02:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"naive", "2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)},
		{"naive fractional", "2024-05-01T10:00:00.123456", time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.Local)},
		{"space separated", "2024-05-01 10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got.Time)
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTimestamp_JSON(t *testing.T) {
	var m struct {
		TS Timestamp `json:"ts"`
	}
	if err := json.Unmarshal([]byte(`{"ts":"2024-05-01T10:00:00"}`), &m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.TS.Format("2006-01-02 15:04"); got != "2024-05-01 10:00" || m.TS.Location() != time.Local {
		t.Errorf("expected naive time read as local 2024-05-01 10:00, got %s in %s", got, m.TS.Location())
	}

	m.TS = Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"ts":"2024-05-01T10:00:00Z"}` {
		t.Errorf("unexpected encoding %s", data)
	}

	if err := json.Unmarshal([]byte(`{"ts":null}`), &m); err != nil {
		t.Fatalf("null should decode: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"ts":"not a time"}`), &m); err == nil {
		t.Error("expected error for bad timestamp")
	}
}

func TestQueryMetrics_Validate(t *testing.T) {
	valid := func() *QueryMetrics {
		return &QueryMetrics{Query: "q", ResponseLength: 10, NumSources: 1}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(m *QueryMetrics)
	}{
		{"blank query", func(m *QueryMetrics) { m.Query = "  " }},
		{"negative length", func(m *QueryMetrics) { m.ResponseLength = -1 }},
		{"negative sources", func(m *QueryMetrics) { m.NumSources = -1 }},
		{"negative processing time", func(m *QueryMetrics) { m.ProcessingTimeMs = int64Ptr(-5) }},
		{"semantic above one", func(m *QueryMetrics) { m.AvgSemanticScore = Float(1.2) }},
		{"recency below zero", func(m *QueryMetrics) { m.AvgRecencyScore = Float(-0.1) }},
		{"negative source type count", func(m *QueryMetrics) { m.SourceTypes = map[SourceType]int{SourceTypeURL: -1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			if err := m.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestQueryMetrics_Normalize(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := &QueryMetrics{Query: "q", UserID: "spoofed", ConfidenceLevel: "[high confidence]"}

	m.Normalize("user-1", now)

	if m.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if m.UserID != "user-1" {
		t.Errorf("expected caller id to win, got %s", m.UserID)
	}
	if !m.Timestamp.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, m.Timestamp)
	}
	if m.ConfidenceLevel != ConfidenceHigh {
		t.Errorf("expected canonical level, got %q", m.ConfidenceLevel)
	}
	if m.SourceTypes == nil || m.Tags == nil {
		t.Error("expected empty collections instead of nil")
	}

	keep := &QueryMetrics{ID: "fixed", Timestamp: Timestamp{Time: now.Add(-time.Hour)}}
	keep.Normalize("", now)
	if keep.ID != "fixed" || !keep.Timestamp.Equal(now.Add(-time.Hour)) {
		t.Error("expected existing id and timestamp to be kept")
	}
}

func TestNewChatMetrics(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sources := []*RetrievedSource{
		{DocumentID: "d1", Excerpt: "a", SemanticScore: Float(0.9), CredibilityScore: Float(0.8)},
		{URLID: "u1", Excerpt: "b", SemanticScore: Float(0.7), RecencyScore: Float(0.4)},
		{DocumentID: "u2", URLID: "u2", SourceType: SourceTypeURL, Excerpt: "c"},
	}

	m := NewChatMetrics(ChatMetricsInput{
		Query:           "What is hypertension?",
		UserID:          "user-1",
		Response:        "Hypertension is high blood pressure.",
		ConfidenceLevel: ConfidenceHigh,
		Sources:         sources,
		ProcessingTime:  1500 * time.Millisecond,
		Now:             now,
	})

	if m.ID == "" {
		t.Error("expected id")
	}
	if m.NumSources != 3 {
		t.Errorf("expected 3 sources, got %d", m.NumSources)
	}
	if m.ResponseLength != len("Hypertension is high blood pressure.") {
		t.Errorf("unexpected response length %d", m.ResponseLength)
	}
	if m.ProcessingTimeMs == nil || *m.ProcessingTimeMs != 1500 {
		t.Errorf("expected 1500ms, got %v", m.ProcessingTimeMs)
	}
	if m.AvgSemanticScore == nil || *m.AvgSemanticScore < 0.799 || *m.AvgSemanticScore > 0.801 {
		t.Errorf("expected avg semantic 0.8, got %v", m.AvgSemanticScore)
	}
	if m.AvgCredibilityScore == nil || *m.AvgCredibilityScore != 0.8 {
		t.Errorf("expected avg credibility 0.8, got %v", m.AvgCredibilityScore)
	}
	if m.AvgRecencyScore == nil || *m.AvgRecencyScore != 0.4 {
		t.Errorf("expected avg recency 0.4, got %v", m.AvgRecencyScore)
	}
	if m.SourceTypes[SourceTypeDocument] != 1 || m.SourceTypes[SourceTypeURL] != 2 {
		t.Errorf("unexpected source types %v", m.SourceTypes)
	}
	if m.HallucinationDetected == nil || *m.HallucinationDetected {
		t.Error("expected no hallucination with sources")
	}
	if !m.Timestamp.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, m.Timestamp)
	}
}

func TestNewChatMetrics_Hallucination(t *testing.T) {
	tests := []struct {
		level ConfidenceLevel
		want  bool
	}{
		{ConfidenceHigh, true},
		{ConfidenceLow, true},
		{ConfidenceInsufficient, false},
		{ConfidenceUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			m := NewChatMetrics(ChatMetricsInput{Query: "q", Response: "r", ConfidenceLevel: tt.level})
			if *m.HallucinationDetected != tt.want {
				t.Errorf("expected hallucination=%v, got %v", tt.want, *m.HallucinationDetected)
			}
			if m.AvgSemanticScore != nil {
				t.Error("expected no semantic average without sources")
			}
		})
	}
}

func TestNewChatMetrics_ResponseLengthCountsCharacters(t *testing.T) {
	m := NewChatMetrics(ChatMetricsInput{Query: "q", Response: strings.Repeat("é", 10)})
	if m.ResponseLength != 10 {
		t.Errorf("expected 10 characters, got %d", m.ResponseLength)
	}
}
