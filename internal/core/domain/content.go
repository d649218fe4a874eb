package domain

import (
	"sort"
	"time"
)

// Document is an uploaded file in the knowledge base catalog.
type Document struct {
	ID                string     `json:"id" yaml:"id"`
	Filename          string     `json:"filename" yaml:"filename"`
	ContentType       string     `json:"content_type" yaml:"content_type"`
	Size              int64      `json:"size" yaml:"size"`
	UploadDate        *Timestamp `json:"upload_date,omitempty" yaml:"upload_date,omitempty"`
	UserID            string     `json:"user_id" yaml:"user_id"`
	Category          string     `json:"category,omitempty" yaml:"category,omitempty"`
	CredibilityRating *float64   `json:"credibility_rating,omitempty" yaml:"credibility_rating,omitempty"`
	Indexed           *bool      `json:"indexed" yaml:"indexed"`
	ChunkCount        *int       `json:"chunk_count,omitempty" yaml:"chunk_count,omitempty"`
}

// URLResource is a registered web page in the knowledge base catalog.
// CredibilityScore is on the catalog's 0-5 scale.
type URLResource struct {
	ID               string     `json:"id" yaml:"id"`
	URL              string     `json:"url" yaml:"url"`
	Title            string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description      string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category         string     `json:"category,omitempty" yaml:"category,omitempty"`
	CredibilityScore *float64   `json:"credibility_score,omitempty" yaml:"credibility_score,omitempty"`
	AddedDate        *Timestamp `json:"added_date,omitempty" yaml:"added_date,omitempty"`
	UserID           string     `json:"user_id" yaml:"user_id"`
	ContentLength    int64      `json:"content_length,omitempty" yaml:"content_length,omitempty"`
	Indexed          *bool      `json:"indexed" yaml:"indexed"`
	ChunkCount       *int       `json:"chunk_count,omitempty" yaml:"chunk_count,omitempty"`
}

// URLCredibilityScale is the maximum of the catalog's URL credibility score.
const URLCredibilityScale = 5.0

// Age buckets
const (
	AgeUnder30  = "< 30 days"
	Age30To90   = "30-90 days"
	Age90To180  = "90-180 days"
	AgeOver180  = "> 180 days"
	AgeUnknown  = "Unknown"
	CategoryNil = "Uncategorized"
)

// Credibility and quality buckets
const (
	BucketHigh    = "High"
	BucketMedium  = "Medium"
	BucketLow     = "Low"
	BucketUnknown = "Unknown"
)

// ContentItemMetrics describes one catalog item for the content dashboard.
type ContentItemMetrics struct {
	ID                  string     `json:"id" yaml:"id"`
	Name                string     `json:"name" yaml:"name"`
	Type                SourceType `json:"type" yaml:"type"`
	URL                 string     `json:"url,omitempty" yaml:"url,omitempty"`
	Size                int64      `json:"size" yaml:"size"`
	EstimatedTokens     int64      `json:"estimated_tokens" yaml:"estimated_tokens"`
	Category            string     `json:"category" yaml:"category"`
	CredibilityRating   float64    `json:"credibility_rating" yaml:"credibility_rating"`
	CredibilityCategory string     `json:"credibility_category" yaml:"credibility_category"`
	QualityCategory     string     `json:"quality_category" yaml:"quality_category"`
	AgeCategory         string     `json:"age_category" yaml:"age_category"`
	Indexed             bool       `json:"indexed" yaml:"indexed"`
}

// CategoryCount is a category and how many catalog items carry it.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// ContentMetrics summarizes the knowledge base catalog.
type ContentMetrics struct {
	DocumentCount           int                  `json:"document_count" yaml:"document_count"`
	URLCount                int                  `json:"url_count" yaml:"url_count"`
	TotalTokenCount         int64                `json:"total_token_count" yaml:"total_token_count"`
	DocumentMetrics         []ContentItemMetrics `json:"document_metrics" yaml:"document_metrics"`
	URLMetrics              []ContentItemMetrics `json:"url_metrics" yaml:"url_metrics"`
	TopCategories           []CategoryCount      `json:"top_categories" yaml:"top_categories"`
	ContentAgeDistribution  map[string]int       `json:"content_age_distribution" yaml:"content_age_distribution"`
	CredibilityDistribution map[string]int       `json:"credibility_distribution" yaml:"credibility_distribution"`
	QualityDistribution     map[string]int       `json:"quality_distribution" yaml:"quality_distribution"`
}

// IsEmpty returns true when the catalog holds nothing.
func (c *ContentMetrics) IsEmpty() bool {
	return c == nil || c.DocumentCount+c.URLCount == 0
}

// TopCategoriesLimit bounds the number of categories reported.
const TopCategoriesLimit = 10

// AnalyzeContent computes the content dashboard metrics for a catalog.
func AnalyzeContent(docs []*Document, urls []*URLResource, now time.Time) ContentMetrics {
	out := ContentMetrics{
		DocumentMetrics: []ContentItemMetrics{},
		URLMetrics:      []ContentItemMetrics{},
		TopCategories:   []CategoryCount{},
		ContentAgeDistribution: map[string]int{
			AgeUnder30: 0, Age30To90: 0, Age90To180: 0, AgeOver180: 0,
		},
		CredibilityDistribution: map[string]int{
			BucketHigh: 0, BucketMedium: 0, BucketLow: 0, BucketUnknown: 0,
		},
		QualityDistribution: map[string]int{
			BucketHigh: 0, BucketMedium: 0, BucketLow: 0,
		},
	}

	var categoryOrder []string
	categories := make(map[string]int)
	countCategory := func(c string) string {
		if c == "" {
			c = CategoryNil
		}
		if _, seen := categories[c]; !seen {
			categoryOrder = append(categoryOrder, c)
		}
		categories[c]++
		return c
	}

	for _, d := range docs {
		if d == nil {
			continue
		}
		out.DocumentCount++

		credibility := 0.0
		if d.CredibilityRating != nil {
			credibility = *d.CredibilityRating
		}
		m := ContentItemMetrics{
			ID:                  d.ID,
			Name:                d.Filename,
			Type:                SourceTypeDocument,
			Size:                d.Size,
			EstimatedTokens:     d.Size / 4,
			Category:            countCategory(d.Category),
			CredibilityRating:   credibility,
			CredibilityCategory: CredibilityBucket(credibility),
			QualityCategory:     sizeQuality(d.Size, 500000, 100000),
			AgeCategory:         ageBucket(d.UploadDate, now),
			Indexed:             d.Indexed != nil && *d.Indexed,
		}
		out.record(m)
		out.DocumentMetrics = append(out.DocumentMetrics, m)
	}

	for _, u := range urls {
		if u == nil {
			continue
		}
		out.URLCount++

		credibility := 0.0
		if u.CredibilityScore != nil {
			credibility = *u.CredibilityScore / URLCredibilityScale
		}
		name := u.Title
		if name == "" {
			name = u.URL
		}
		m := ContentItemMetrics{
			ID:                  u.ID,
			Name:                name,
			Type:                SourceTypeURL,
			URL:                 u.URL,
			Size:                u.ContentLength,
			EstimatedTokens:     u.ContentLength / 4,
			Category:            countCategory(u.Category),
			CredibilityRating:   credibility,
			CredibilityCategory: CredibilityBucket(credibility),
			QualityCategory:     sizeQuality(u.ContentLength, 10000, 2000),
			AgeCategory:         ageBucket(u.AddedDate, now),
			Indexed:             u.Indexed != nil && *u.Indexed,
		}
		out.record(m)
		out.URLMetrics = append(out.URLMetrics, m)
	}

	for _, c := range categoryOrder {
		out.TopCategories = append(out.TopCategories, CategoryCount{Category: c, Count: categories[c]})
	}
	sort.SliceStable(out.TopCategories, func(i, j int) bool {
		return out.TopCategories[i].Count > out.TopCategories[j].Count
	})
	if len(out.TopCategories) > TopCategoriesLimit {
		out.TopCategories = out.TopCategories[:TopCategoriesLimit]
	}

	return out
}

func (c *ContentMetrics) record(m ContentItemMetrics) {
	c.TotalTokenCount += m.EstimatedTokens
	c.CredibilityDistribution[m.CredibilityCategory]++
	c.QualityDistribution[m.QualityCategory]++
	if m.AgeCategory != AgeUnknown {
		c.ContentAgeDistribution[m.AgeCategory]++
	}
}

// CredibilityBucket maps a 0-1 credibility rating to its bucket.
func CredibilityBucket(rating float64) string {
	switch {
	case rating >= 0.7:
		return BucketHigh
	case rating >= 0.4:
		return BucketMedium
	case rating > 0:
		return BucketLow
	default:
		return BucketUnknown
	}
}

func sizeQuality(size, high, medium int64) string {
	switch {
	case size > high:
		return BucketHigh
	case size > medium:
		return BucketMedium
	default:
		return BucketLow
	}
}

func ageBucket(date *Timestamp, now time.Time) string {
	if date == nil || date.IsZero() {
		return AgeUnknown
	}
	days := int(now.Sub(date.Time).Hours() / 24)
	switch {
	case days < 30:
		return AgeUnder30
	case days < 90:
		return Age30To90
	case days < 180:
		return Age90To180
	default:
		return AgeOver180
	}
}

// IndexStatus counts catalog items by indexing state.
type IndexStatus struct {
	DocumentsIndexed int `json:"documents_indexed" yaml:"documents_indexed"`
	DocumentsPending int `json:"documents_pending" yaml:"documents_pending"`
	URLsIndexed      int `json:"urls_indexed" yaml:"urls_indexed"`
	URLsPending      int `json:"urls_pending" yaml:"urls_pending"`
}

// Pending returns the number of items still waiting to be indexed.
func (s IndexStatus) Pending() int {
	return s.DocumentsPending + s.URLsPending
}

// Done returns true once every item has a definitive indexed flag.
func (s IndexStatus) Done() bool {
	return s.Pending() == 0
}

// NewIndexStatus counts indexed and pending items. An item is pending while
// its indexed flag is absent or false.
func NewIndexStatus(docs []*Document, urls []*URLResource) IndexStatus {
	var s IndexStatus
	for _, d := range docs {
		if d == nil {
			continue
		}
		if d.Indexed != nil && *d.Indexed {
			s.DocumentsIndexed++
		} else {
			s.DocumentsPending++
		}
	}
	for _, u := range urls {
		if u == nil {
			continue
		}
		if u.Indexed != nil && *u.Indexed {
			s.URLsIndexed++
		} else {
			s.URLsPending++
		}
	}
	return s
}
