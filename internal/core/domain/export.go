package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultExportTitle heads a transcript exported without a title.
const DefaultExportTitle = "MediVault AI Consultation"

// welcomeMarker identifies the canned greeting the chat UI opens with.
const welcomeMarker = "Welcome to MediVault AI!"

// responseSectionPattern captures the body of a structured answer's
// "## Response:" section, up to an optional "## Ranking:" section.
var responseSectionPattern = regexp.MustCompile(`(?s)## Response:\s*(.*?)(?:## Ranking:|\z)`)

// ExportMessage is one conversation turn submitted for export.
type ExportMessage struct {
	Role    string             `json:"role"`
	Content string             `json:"content"`
	Sources []*RetrievedSource `json:"sources,omitempty"`
}

// ExportSource is a cited source as printed under an answer.
type ExportSource struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Excerpt string `json:"excerpt"`
}

// TranscriptEntry is one printable turn of an exported conversation.
type TranscriptEntry struct {
	Role string `json:"role"`

	// Confidence is set on assistant turns that opened with a recognized tag
	Confidence ConfidenceLevel `json:"confidence,omitempty"`

	Content string         `json:"content"`
	Sources []ExportSource `json:"sources,omitempty"`
}

// IsAssistant returns true for turns written by the assistant.
func (e TranscriptEntry) IsAssistant() bool {
	return e.Role == "assistant"
}

// ConfidenceClass names the styling class for the entry's confidence.
func (e TranscriptEntry) ConfidenceClass() string {
	switch e.Confidence {
	case ConfidenceHigh:
		return "confidence-high"
	case ConfidenceModerate:
		return "confidence-moderate"
	case ConfidenceLow:
		return "confidence-low"
	case ConfidenceInsufficient:
		return "confidence-insufficient"
	default:
		return ""
	}
}

// Paragraphs splits the content on blank lines for display.
func (e TranscriptEntry) Paragraphs() []string {
	var out []string
	for _, p := range strings.Split(e.Content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Transcript is a conversation prepared for export.
type Transcript struct {
	Title string `json:"title"`

	// GeneratedAt is zero when no timestamp was requested
	GeneratedAt time.Time         `json:"generated_at,omitempty"`
	Entries     []TranscriptEntry `json:"entries"`
}

// BuildTranscript prepares a conversation for export. The opening greeting
// is dropped when anything follows it. Assistant turns lose their leading
// confidence tag and are cut down to their response section when they have
// one. A zero generatedAt leaves the transcript untimestamped.
func BuildTranscript(title string, messages []ExportMessage, generatedAt time.Time) (*Transcript, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("conversation is empty: %w", ErrInvalidInput)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultExportTitle
	}

	t := &Transcript{Title: title, Entries: make([]TranscriptEntry, 0, len(messages))}
	if !generatedAt.IsZero() {
		t.GeneratedAt = generatedAt.UTC()
	}

	for i, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role == "" {
			return nil, fmt.Errorf("message %d has no role: %w", i, ErrInvalidInput)
		}
		if role == "assistant" && len(messages) > 1 && strings.Contains(m.Content, welcomeMarker) {
			continue
		}

		entry := TranscriptEntry{Role: role, Content: strings.TrimSpace(m.Content)}
		if role == "assistant" {
			tag := ExtractConfidence(entry.Content)
			if tag.Level.IsValid() {
				entry.Confidence = tag.Level
			}
			entry.Content = responseSection(strings.TrimSpace(tag.Content))
			entry.Sources = exportSources(m.Sources)
		}
		t.Entries = append(t.Entries, entry)
	}

	return t, nil
}

// responseSection returns the "## Response:" section of a structured
// answer, or the whole text when there is none.
func responseSection(content string) string {
	m := responseSectionPattern.FindStringSubmatch(content)
	if m == nil {
		return content
	}
	if section := strings.TrimSpace(m[1]); section != "" {
		return section
	}
	return content
}

func exportSources(sources []*RetrievedSource) []ExportSource {
	if len(sources) == 0 {
		return nil
	}
	out := make([]ExportSource, 0, len(sources))
	for _, s := range sources {
		if s == nil {
			continue
		}
		ref := s.Ref()
		es := ExportSource{Title: ref.Title, Kind: "Document", Excerpt: strings.TrimSpace(s.Excerpt)}
		if ref.Type == SourceTypeURL {
			es.Kind = "Website"
		}
		if es.Title == "" {
			es.Title = "Source"
		}
		if es.Excerpt == "" {
			es.Excerpt = "No excerpt available"
		}
		out = append(out, es)
	}
	return out
}
