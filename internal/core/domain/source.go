package domain

import (
	"fmt"
	"strings"
)

// SourceType identifies whether a retrieved chunk came from an uploaded
// document or a registered URL.
type SourceType string

const (
	SourceTypeDocument SourceType = "document"
	SourceTypeURL      SourceType = "url"
)

// IsValid returns true for the known source types.
func (s SourceType) IsValid() bool {
	return s == SourceTypeDocument || s == SourceTypeURL
}

// SourceMetadata carries the optional provenance fields the RAG engine
// attaches to a retrieved chunk.
type SourceMetadata struct {
	UploadDate        string   `json:"upload_date,omitempty" yaml:"upload_date,omitempty"`
	AddedDate         string   `json:"added_date,omitempty" yaml:"added_date,omitempty"`
	PublicationDate   string   `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	CredibilityRating *float64 `json:"credibility_rating,omitempty" yaml:"credibility_rating,omitempty"`
	Category          string   `json:"category,omitempty" yaml:"category,omitempty"`
}

// RetrievedSource is one retrieved chunk offered as evidence for an answer.
// It references either a document or a URL. The RAG engine copies URL ids
// into DocumentID as well, so Ref is the only reliable way to tell them apart.
type RetrievedSource struct {
	DocumentID   string     `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	DocumentName string     `json:"document_name,omitempty" yaml:"document_name,omitempty"`
	URLID        string     `json:"url_id,omitempty" yaml:"url_id,omitempty"`
	URLTitle     string     `json:"url_title,omitempty" yaml:"url_title,omitempty"`
	URL          string     `json:"url,omitempty" yaml:"url,omitempty"`
	Excerpt      string     `json:"excerpt" yaml:"excerpt"`
	SourceType   SourceType `json:"source_type,omitempty" yaml:"source_type,omitempty"`

	// Score is the composite relevance score. Always set once the source has
	// been through the pipeline.
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`

	SemanticScore    *float64 `json:"semantic_score,omitempty" yaml:"semantic_score,omitempty"`
	CredibilityScore *float64 `json:"credibility_score,omitempty" yaml:"credibility_score,omitempty"`
	RecencyScore     *float64 `json:"recency_score,omitempty" yaml:"recency_score,omitempty"`
	CategoryScore    *float64 `json:"category_score,omitempty" yaml:"category_score,omitempty"`

	Metadata *SourceMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SourceRef is the resolved identity of a retrieved source.
type SourceRef struct {
	Type  SourceType
	ID    string
	Title string
}

// Ref resolves which kind of item the source points at.
func (s *RetrievedSource) Ref() SourceRef {
	kind := s.SourceType
	if !kind.IsValid() {
		kind = SourceTypeDocument
		if s.URLID != "" && s.DocumentID == "" {
			kind = SourceTypeURL
		}
	}

	if kind == SourceTypeURL {
		id := s.URLID
		if id == "" {
			id = s.DocumentID
		}
		title := s.URLTitle
		if title == "" {
			title = s.URL
		}
		return SourceRef{Type: SourceTypeURL, ID: id, Title: title}
	}

	return SourceRef{Type: SourceTypeDocument, ID: s.DocumentID, Title: s.DocumentName}
}

// Validate checks that the source can be displayed and attributed.
func (s *RetrievedSource) Validate() error {
	if strings.TrimSpace(s.Excerpt) == "" {
		return fmt.Errorf("source excerpt is empty: %w", ErrInvalidInput)
	}
	if s.Ref().ID == "" {
		return fmt.Errorf("source has no document or url id: %w", ErrInvalidInput)
	}
	return nil
}

// SubScores returns the optional sub-scores of the source.
func (s *RetrievedSource) SubScores() SubScores {
	return SubScores{
		Semantic:    s.SemanticScore,
		Credibility: s.CredibilityScore,
		Recency:     s.RecencyScore,
		Category:    s.CategoryScore,
	}
}

// CompositeScore returns the composite score, or 0 if it has not been set.
func (s *RetrievedSource) CompositeScore() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// Float returns a pointer to v, for optional score fields.
func Float(v float64) *float64 {
	return &v
}
