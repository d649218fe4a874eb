package dashboard

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// Sample data shown in demo mode. Generation is seeded so every call with
// the same clock yields the same data.

const (
	demoUserID        = "demo-user"
	demoQueryCount    = 124
	demoDocumentCount = 20
	demoURLCount      = 10
)

var demoQueries = []string{
	"What are the latest guidelines for hypertension management?",
	"How should diabetic ketoacidosis be managed in the emergency setting?",
	"What are the current COVID-19 treatment protocols?",
	"What are the recommended first-line antibiotics for community-acquired pneumonia?",
	"How frequently should HbA1c be monitored in patients with diabetes?",
	"What are the indications for CT scan in minor head injury?",
	"What is the recommended management for acute ischemic stroke?",
	"When should thrombolytic therapy be considered for pulmonary embolism?",
	"What is the current approach to sepsis management?",
	"How should acute exacerbation of COPD be managed?",
}

var demoCategories = []string{
	"Clinical Guidelines",
	"Infectious Diseases",
	"Medication Reference",
	"Chronic Disease Management",
	"Mental Health",
	"Emergency Medicine",
	"Pediatrics",
	"Obstetrics",
	"Geriatrics",
	"Wound Care",
}

var demoDocuments = []string{
	"Clinical Practice Guidelines for Hypertension Management.pdf",
	"COVID-19 Vaccination Protocols.pdf",
	"Antibiotic Resistance Review 2024.docx",
	"Diabetes Care Standards.pdf",
	"Mental Health Assessment Framework.md",
	"Emergency Response Manual.pdf",
	"Pediatric Care Handbook.pdf",
	"Pregnancy Risk Classification Guide.txt",
	"Geriatric Care Best Practices.html",
	"Advanced Wound Care Techniques.pdf",
}

var demoURLs = []struct{ title, url string }{
	{"WHO Hypertension Guidelines", "https://www.who.int/health-topics/hypertension"},
	{"CDC COVID-19 Vaccination Information", "https://www.cdc.gov/coronavirus/2019-ncov/vaccines"},
	{"NIH Antibiotic Resistance Portal", "https://www.nih.gov/research-training/antibiotic-resistance"},
	{"American Diabetes Association Standards", "https://www.diabetes.org/diabetes/treatment-care"},
	{"Mental Health Foundation Resources", "https://www.mentalhealth.org/resources"},
	{"Emergency Medicine Journal", "https://www.acep.org/resources"},
	{"American Academy of Pediatrics", "https://www.aap.org/guidelines"},
	{"ACOG Pregnancy Resources", "https://www.acog.org/womens-health"},
	{"American Geriatrics Society", "https://www.americangeriatrics.org/guidelines"},
	{"Wound Care Society Guidelines", "https://woundhealingsociety.org/guidelines"},
}

func demoRand() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1024))
}

// demoRecords generates the sample query log, newest first
func demoRecords(now time.Time) []*domain.QueryMetrics {
	r := demoRand()
	records := make([]*domain.QueryMetrics, 0, demoQueryCount)

	for i := 0; i < demoQueryCount; i++ {
		// 50% high, 30% moderate, 15% low, 5% insufficient
		var level domain.ConfidenceLevel
		switch roll := r.IntN(100); {
		case roll < 50:
			level = domain.ConfidenceHigh
		case roll < 80:
			level = domain.ConfidenceModerate
		case roll < 95:
			level = domain.ConfidenceLow
		default:
			level = domain.ConfidenceInsufficient
		}

		semantic := domain.Round2(0.5 + r.Float64()*0.5)
		credibility := domain.Round2(0.5 + r.Float64()*0.5)
		recency := domain.Round2(0.5 + r.Float64()*0.5)
		processing := int64(r.IntN(3000) + 1000)
		hallucination := r.Float64() < 0.05

		// Spread evenly over the last 30 days, newest first
		ts := now.Add(-time.Duration(i) * 30 * 24 * time.Hour / demoQueryCount)

		docs := r.IntN(3) + 1
		urls := r.IntN(2)

		records = append(records, &domain.QueryMetrics{
			ID:                    fmt.Sprintf("demo-%03d", i+1),
			Query:                 demoQueries[r.IntN(len(demoQueries))],
			Timestamp:             domain.Timestamp{Time: ts},
			UserID:                demoUserID,
			ConfidenceLevel:       level,
			ResponseLength:        r.IntN(1000) + 500,
			ProcessingTimeMs:      &processing,
			NumSources:            docs + urls,
			AvgSemanticScore:      &semantic,
			AvgCredibilityScore:   &credibility,
			AvgRecencyScore:       &recency,
			SourceTypes:           map[domain.SourceType]int{domain.SourceTypeDocument: docs, domain.SourceTypeURL: urls},
			HallucinationDetected: &hallucination,
			Tags:                  []string{},
		})
	}

	return records
}

// DemoQueryHistory returns the first page of the sample query log
func DemoQueryHistory(now time.Time) *domain.QueryPage {
	records := demoRecords(now)
	return &domain.QueryPage{
		Data:       records[:domain.DefaultPageSize],
		TotalCount: len(records),
		Page:       1,
		PageSize:   domain.DefaultPageSize,
	}
}

// DemoQueryStats returns the default window stats of the sample query log
func DemoQueryStats(now time.Time) *domain.QueryStatsSummary {
	stats := domain.BuildStats(demoRecords(now), domain.DefaultStatsDays, now)
	return &stats
}

// DemoContentMetrics returns the content analysis of a sample catalog
func DemoContentMetrics(now time.Time) *domain.ContentMetrics {
	r := demoRand()
	indexed := true

	docs := make([]*domain.Document, 0, demoDocumentCount)
	for i := 0; i < demoDocumentCount; i++ {
		uploaded := domain.Timestamp{Time: now.Add(-time.Duration(r.IntN(180)) * 24 * time.Hour)}
		rating := domain.Round2(0.7 + r.Float64()*0.3)
		docs = append(docs, &domain.Document{
			ID:                fmt.Sprintf("doc-%d", i+1),
			Filename:          demoDocuments[r.IntN(len(demoDocuments))],
			ContentType:       "application/pdf",
			Size:              int64(r.IntN(5_000_000) + 100_000),
			UploadDate:        &uploaded,
			UserID:            demoUserID,
			Category:          demoCategories[r.IntN(len(demoCategories))],
			CredibilityRating: &rating,
			Indexed:           &indexed,
		})
	}

	urls := make([]*domain.URLResource, 0, demoURLCount)
	for i := 0; i < demoURLCount; i++ {
		site := demoURLs[r.IntN(len(demoURLs))]
		added := domain.Timestamp{Time: now.Add(-time.Duration(r.IntN(180)) * 24 * time.Hour)}
		score := domain.Round2((0.7 + r.Float64()*0.3) * domain.URLCredibilityScale)
		urls = append(urls, &domain.URLResource{
			ID:               fmt.Sprintf("url-%d", i+1),
			URL:              site.url,
			Title:            site.title,
			Category:         demoCategories[r.IntN(len(demoCategories))],
			CredibilityScore: &score,
			AddedDate:        &added,
			UserID:           demoUserID,
			ContentLength:    int64(r.IntN(30_000) + 5_000),
			Indexed:          &indexed,
		})
	}

	metrics := domain.AnalyzeContent(docs, urls, now)
	return &metrics
}
