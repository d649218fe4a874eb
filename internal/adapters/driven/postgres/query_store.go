package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryMetricsStore = (*QueryMetricsStore)(nil)

const queryMetricsColumns = `id, user_id, query, timestamp, confidence_level, response_length,
	processing_time_ms, num_sources, avg_semantic_score, avg_credibility_score,
	avg_recency_score, source_types, hallucination_detected, tags`

// QueryMetricsStore implements driven.QueryMetricsStore using PostgreSQL
type QueryMetricsStore struct {
	db *sql.DB
}

// NewQueryMetricsStore creates a new QueryMetricsStore
func NewQueryMetricsStore(db *sql.DB) *QueryMetricsStore {
	return &QueryMetricsStore{db: db}
}

// Save stores a new record. A record with an existing id is left untouched.
func (s *QueryMetricsStore) Save(ctx context.Context, m *domain.QueryMetrics) error {
	sourceTypes := m.SourceTypes
	if sourceTypes == nil {
		sourceTypes = map[domain.SourceType]int{}
	}
	sourceTypesJSON, err := json.Marshal(sourceTypes)
	if err != nil {
		return fmt.Errorf("marshal source_types: %w", err)
	}

	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO query_metrics (` + queryMetricsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = s.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.Query,
		m.Timestamp.Time,
		NullString(string(m.ConfidenceLevel)),
		m.ResponseLength,
		NullInt(m.ProcessingTimeMs),
		m.NumSources,
		NullFloat(m.AvgSemanticScore),
		NullFloat(m.AvgCredibilityScore),
		NullFloat(m.AvgRecencyScore),
		sourceTypesJSON,
		NullBool(m.HallucinationDetected),
		pq.Array(tags),
	)
	if err != nil {
		return fmt.Errorf("insert query metrics: %w", err)
	}
	return nil
}

// List returns a page of the user's records, newest first, and the total
// number of records the user has.
func (s *QueryMetricsStore) List(ctx context.Context, userID string, offset, limit int) ([]*domain.QueryMetrics, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM query_metrics WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count query metrics: %w", err)
	}

	query := `
		SELECT ` + queryMetricsColumns + `
		FROM query_metrics
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list query metrics: %w", err)
	}
	defer rows.Close()

	records, err := scanQueryMetrics(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Since returns every record of the user after the given time, oldest first.
// A zero time returns the full history.
func (s *QueryMetricsStore) Since(ctx context.Context, userID string, since time.Time) ([]*domain.QueryMetrics, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if since.IsZero() {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+queryMetricsColumns+`
			FROM query_metrics
			WHERE user_id = $1
			ORDER BY timestamp ASC
		`, userID)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+queryMetricsColumns+`
			FROM query_metrics
			WHERE user_id = $1 AND timestamp > $2
			ORDER BY timestamp ASC
		`, userID, since)
	}
	if err != nil {
		return nil, fmt.Errorf("load query metrics: %w", err)
	}
	defer rows.Close()

	return scanQueryMetrics(rows)
}

func scanQueryMetrics(rows *sql.Rows) ([]*domain.QueryMetrics, error) {
	records := make([]*domain.QueryMetrics, 0)

	for rows.Next() {
		var (
			m               domain.QueryMetrics
			timestamp       time.Time
			confidence      sql.NullString
			processingTime  sql.NullInt64
			semantic        sql.NullFloat64
			credibility     sql.NullFloat64
			recency         sql.NullFloat64
			sourceTypesJSON []byte
			hallucination   sql.NullBool
			tags            []string
		)

		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Query,
			&timestamp,
			&confidence,
			&m.ResponseLength,
			&processingTime,
			&m.NumSources,
			&semantic,
			&credibility,
			&recency,
			&sourceTypesJSON,
			&hallucination,
			pq.Array(&tags),
		)
		if err != nil {
			return nil, fmt.Errorf("scan query metrics: %w", err)
		}

		m.Timestamp = domain.Timestamp{Time: timestamp}
		m.ConfidenceLevel = domain.ParseConfidenceLevel(confidence.String)
		m.ProcessingTimeMs = IntPtr(processingTime)
		m.AvgSemanticScore = FloatPtr(semantic)
		m.AvgCredibilityScore = FloatPtr(credibility)
		m.AvgRecencyScore = FloatPtr(recency)
		m.HallucinationDetected = BoolPtr(hallucination)

		m.SourceTypes = map[domain.SourceType]int{}
		if len(sourceTypesJSON) > 0 {
			if err := json.Unmarshal(sourceTypesJSON, &m.SourceTypes); err != nil {
				return nil, fmt.Errorf("unmarshal source_types: %w", err)
			}
		}

		if tags == nil {
			tags = []string{}
		}
		m.Tags = tags

		records = append(records, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query metrics: %w", err)
	}
	return records, nil
}
