package domain

import (
	"sort"
	"time"
)

// QueryCount is a query text and how often it was asked.
type QueryCount struct {
	Query string `json:"query" yaml:"query"`
	Count int    `json:"count" yaml:"count"`
}

// DailyCount is the number of queries on one calendar date (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date" yaml:"date"`
	Count int    `json:"count" yaml:"count"`
}

// QueryStatsSummary aggregates query records over a rolling window.
type QueryStatsSummary struct {
	Days                   int                     `json:"days" yaml:"days"`
	TotalQueries           int                     `json:"total_queries" yaml:"total_queries"`
	AvgProcessingTime      *float64                `json:"avg_processing_time" yaml:"avg_processing_time"`
	ConfidenceDistribution map[ConfidenceLevel]int `json:"confidence_distribution" yaml:"confidence_distribution"`
	SourceTypeDistribution map[SourceType]int      `json:"source_type_distribution" yaml:"source_type_distribution"`
	TopQueries             []QueryCount            `json:"top_queries" yaml:"top_queries"`
	DailyQueryCounts       []DailyCount            `json:"daily_query_counts" yaml:"daily_query_counts"`
}

// IsEmpty returns true when no queries fall inside the window.
func (s *QueryStatsSummary) IsEmpty() bool {
	return s == nil || s.TotalQueries == 0
}

// TopQueriesLimit bounds the number of top queries reported.
const TopQueriesLimit = 10

// BuildStats aggregates the records inside the window ending at now.
// days == 0 means all history. Daily counts are bucketed by UTC date.
func BuildStats(records []*QueryMetrics, days int, now time.Time) QueryStatsSummary {
	var cutoff time.Time
	if days > 0 {
		cutoff = now.Add(-time.Duration(days) * 24 * time.Hour)
	}

	stats := QueryStatsSummary{
		Days:                   days,
		ConfidenceDistribution: make(map[ConfidenceLevel]int),
		SourceTypeDistribution: make(map[SourceType]int),
		TopQueries:             []QueryCount{},
		DailyQueryCounts:       []DailyCount{},
	}

	var (
		processingSum   float64
		processingCount int
		queryOrder      []string
		queryCounts     = make(map[string]int)
		dateCounts      = make(map[string]int)
	)

	for _, m := range records {
		if m == nil {
			continue
		}
		if days > 0 && !m.Timestamp.After(cutoff) {
			continue
		}

		stats.TotalQueries++

		if m.ProcessingTimeMs != nil {
			processingSum += float64(*m.ProcessingTimeMs)
			processingCount++
		}

		if level := ParseConfidenceLevel(string(m.ConfidenceLevel)); level.IsValid() {
			stats.ConfidenceDistribution[level]++
		}

		for kind, count := range m.SourceTypes {
			stats.SourceTypeDistribution[kind] += count
		}

		if m.Query != "" {
			if _, seen := queryCounts[m.Query]; !seen {
				queryOrder = append(queryOrder, m.Query)
			}
			queryCounts[m.Query]++
		}

		if !m.Timestamp.IsZero() {
			dateCounts[m.Timestamp.Date()]++
		}
	}

	if processingCount > 0 {
		avg := processingSum / float64(processingCount)
		stats.AvgProcessingTime = &avg
	}

	for _, q := range queryOrder {
		stats.TopQueries = append(stats.TopQueries, QueryCount{Query: q, Count: queryCounts[q]})
	}
	sort.SliceStable(stats.TopQueries, func(i, j int) bool {
		return stats.TopQueries[i].Count > stats.TopQueries[j].Count
	})
	if len(stats.TopQueries) > TopQueriesLimit {
		stats.TopQueries = stats.TopQueries[:TopQueriesLimit]
	}

	for date, count := range dateCounts {
		stats.DailyQueryCounts = append(stats.DailyQueryCounts, DailyCount{Date: date, Count: count})
	}
	sort.Slice(stats.DailyQueryCounts, func(i, j int) bool {
		return stats.DailyQueryCounts[i].Date < stats.DailyQueryCounts[j].Date
	})

	return stats
}
