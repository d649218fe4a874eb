package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

const namespace = "medivault"

// Metrics holds the service collectors
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	ScoreClamps     *prometheus.CounterVec
	ChatConfidence  *prometheus.CounterVec
	SourcesReturned prometheus.Histogram
	CompositeScore  prometheus.Histogram
	QueriesLogged   *prometheus.CounterVec
	WatcherPending  prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		ScoreClamps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "score_clamps_total",
				Help:      "Sources whose composite score was outside [0,1] and got clamped",
			},
			[]string{"source_type"},
		),
		ChatConfidence: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_confidence_total",
				Help:      "Chat answers by confidence level",
			},
			[]string{"level"},
		),
		SourcesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sources_returned",
				Help:      "Number of sources returned per search or chat",
				Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
			},
		),
		CompositeScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "composite_score",
				Help:      "Composite relevance score of returned sources",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
		QueriesLogged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_logged_total",
				Help:      "Query records accepted for logging",
			},
			[]string{"confidence_level"},
		),
		WatcherPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_pending_items",
				Help:      "Catalog items still waiting to be indexed",
			},
		),
	}

	m.registry.MustRegister(
		m.RequestDuration,
		m.RequestsTotal,
		m.ScoreClamps,
		m.ChatConfidence,
		m.SourcesReturned,
		m.CompositeScore,
		m.QueriesLogged,
		m.WatcherPending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// ObserveClamp counts one clamped source. It fits CompositeScorerConfig.OnClamp.
func (m *Metrics) ObserveClamp(src *domain.RetrievedSource) {
	kind := string(src.Ref().Type)
	m.ScoreClamps.WithLabelValues(kind).Inc()
}

// ObserveSources records the sources returned to a caller
func (m *Metrics) ObserveSources(sources []*domain.RetrievedSource) {
	m.SourcesReturned.Observe(float64(len(sources)))
	for _, src := range sources {
		if src != nil && src.Score != nil {
			m.CompositeScore.Observe(*src.Score)
		}
	}
}

// ObserveChat counts one chat answer by confidence level
func (m *Metrics) ObserveChat(resp *domain.ChatResponse) {
	level := string(resp.ConfidenceLevel)
	if level == "" {
		level = "unknown"
	}
	m.ChatConfidence.WithLabelValues(level).Inc()
	m.ObserveSources(resp.Sources)
}

// ObserveLogged counts one accepted query record
func (m *Metrics) ObserveLogged(level domain.ConfidenceLevel) {
	l := string(level)
	if l == "" {
		l = "unknown"
	}
	m.QueriesLogged.WithLabelValues(l).Inc()
}

// ObserveIndexStatus records the pending item count
func (m *Metrics) ObserveIndexStatus(s domain.IndexStatus) {
	m.WatcherPending.Set(float64(s.Pending()))
}
