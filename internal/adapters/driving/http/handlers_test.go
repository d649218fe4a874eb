package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
	"github.com/medivault-ai/medivault-core/internal/metrics"
	"github.com/medivault-ai/medivault-core/internal/runtime"
)

// Mock services for testing

type mockRetrievalService struct {
	searchFn func(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error)
	chatFn   func(ctx context.Context, userID string, in driving.ChatInput) (*domain.ChatResponse, error)
}

func (m *mockRetrievalService) Search(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, opts)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRetrievalService) Chat(ctx context.Context, userID string, in driving.ChatInput) (*domain.ChatResponse, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, userID, in)
	}
	return nil, errors.New("not implemented")
}

type mockAnalyticsService struct {
	logQueryFn func(ctx context.Context, userID string, m *domain.QueryMetrics) error
	historyFn  func(ctx context.Context, userID string, page, pageSize int) (*domain.QueryPage, error)
	statsFn    func(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error)
	summaryFn  func(ctx context.Context, userID string, page, pageSize int) (*driving.AnalyticsSummaryResult, error)
}

func (m *mockAnalyticsService) LogQuery(ctx context.Context, userID string, q *domain.QueryMetrics) error {
	if m.logQueryFn != nil {
		return m.logQueryFn(ctx, userID, q)
	}
	return errors.New("not implemented")
}

func (m *mockAnalyticsService) History(ctx context.Context, userID string, page, pageSize int) (*domain.QueryPage, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, userID, page, pageSize)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAnalyticsService) Stats(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID, days)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAnalyticsService) Summary(ctx context.Context, userID string, page, pageSize int) (*driving.AnalyticsSummaryResult, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID, page, pageSize)
	}
	return nil, errors.New("not implemented")
}

type mockContentService struct {
	metricsFn     func(ctx context.Context) (*domain.ContentMetrics, error)
	indexStatusFn func(ctx context.Context) (*domain.IndexStatus, error)
}

func (m *mockContentService) Metrics(ctx context.Context) (*domain.ContentMetrics, error) {
	if m.metricsFn != nil {
		return m.metricsFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockContentService) IndexStatus(ctx context.Context) (*domain.IndexStatus, error) {
	if m.indexStatusFn != nil {
		return m.indexStatusFn(ctx)
	}
	return nil, errors.New("not implemented")
}

type mockExportService struct {
	exportFn func(ctx context.Context, in driving.ExportInput) (*driving.ExportedDocument, error)
}

func (m *mockExportService) Export(ctx context.Context, in driving.ExportInput) (*driving.ExportedDocument, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, in)
	}
	return nil, errors.New("not implemented")
}

func newTestServer(deps Dependencies) *Server {
	if deps.Retrieval == nil {
		deps.Retrieval = &mockRetrievalService{}
	}
	if deps.Analytics == nil {
		deps.Analytics = &mockAnalyticsService{}
	}
	if deps.Content == nil {
		deps.Content = &mockContentService{}
	}
	if deps.Export == nil {
		deps.Export = &mockExportService{}
	}
	cfg := DefaultConfig()
	cfg.Version = "test"
	return NewServer(cfg, deps)
}

// do sends a request through the full middleware chain as user-1
func do(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(UserIDHeader, "user-1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func ptr(f float64) *float64 { return &f }

func TestHealthHandler(t *testing.T) {
	server := &Server{version: "test"}

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestReadyHandler_NoRegistry(t *testing.T) {
	server := &Server{version: "test"}

	req := httptest.NewRequest("GET", "/ready", nil)
	rr := httptest.NewRecorder()

	server.handleReady(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

func TestReadyHandler_Dependencies(t *testing.T) {
	readiness := runtime.NewServices()
	readiness.Register("postgres", runtime.PingFunc(func(ctx context.Context) error { return nil }))
	readiness.RegisterOptional("rag_engine", runtime.PingFunc(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))
	server := &Server{version: "test", readiness: readiness}

	rr := httptest.NewRecorder()
	server.handleReady(rr, httptest.NewRequest("GET", "/ready", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 with only an optional failure, got %d", rr.Code)
	}

	var response ReadyResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ready" {
		t.Errorf("expected status 'ready', got %s", response.Status)
	}
	if response.Checks["rag_engine"].Healthy {
		t.Error("expected rag_engine check to be unhealthy")
	}
	if !response.Checks["postgres"].Healthy {
		t.Error("expected postgres check to be healthy")
	}

	readiness.Register("redis", runtime.PingFunc(func(ctx context.Context) error {
		return errors.New("no route to host")
	}))
	rr = httptest.NewRecorder()
	server.handleReady(rr, httptest.NewRequest("GET", "/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	server := &Server{version: "1.2.3"}

	req := httptest.NewRequest("GET", "/version", nil)
	rr := httptest.NewRecorder()

	server.handleVersion(rr, req)

	var response VersionResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Version != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %s", response.Version)
	}
}

func TestSwaggerDoc(t *testing.T) {
	server := newTestServer(Dependencies{})

	rr := do(server, "GET", "/swagger/doc.json", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var doc map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatalf("swagger doc is not valid JSON: %v", err)
	}
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("expected paths object")
	}
	for _, p := range []string{"/routes/chat", "/routes/queries", "/routes/indexing/status"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("expected path %s in swagger doc", p)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"foo": "bar"})

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "invalid input")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "invalid input" {
		t.Errorf("expected error 'invalid input', got %s", msg)
	}
}

func TestHandleSearch_Success(t *testing.T) {
	var gotQuery string
	var gotOpts driving.SearchOptions
	retrieval := &mockRetrievalService{
		searchFn: func(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error) {
			gotQuery, gotOpts = query, opts
			return []*domain.RetrievedSource{
				{DocumentID: "doc-1", Excerpt: "first", Score: ptr(0.9)},
				{URLID: "url-1", Excerpt: "second", Score: ptr(0.4)},
			}, nil
		},
	}
	server := newTestServer(Dependencies{Retrieval: retrieval})

	rr := do(server, "POST", "/routes/search", `{"query":"statin dosing","top_k":2}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotQuery != "statin dosing" || gotOpts.TopK != 2 {
		t.Errorf("unexpected search args %q %+v", gotQuery, gotOpts)
	}

	var response SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(response.Results))
	}
	if response.Results[0].DocumentID != "doc-1" {
		t.Errorf("expected doc-1 first, got %+v", response.Results[0])
	}
}

func TestHandleSearch_EmptyResultsIsArray(t *testing.T) {
	retrieval := &mockRetrievalService{
		searchFn: func(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error) {
			return nil, nil
		},
	}
	server := newTestServer(Dependencies{Retrieval: retrieval})

	rr := do(server, "POST", "/routes/search", `{"query":"nothing"}`)

	if !strings.Contains(rr.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got %s", rr.Body.String())
	}
}

func TestHandleSearch_InvalidJSON(t *testing.T) {
	server := newTestServer(Dependencies{})

	rr := do(server, "POST", "/routes/search", "not json")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", fmt.Errorf("%w: query is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"token expired", domain.ErrTokenExpired, http.StatusUnauthorized},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"engine down", fmt.Errorf("rag engine: %w", domain.ErrServiceUnavailable), http.StatusBadGateway},
		{"engine error", domain.ErrUpstream, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrieval := &mockRetrievalService{
				searchFn: func(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error) {
					return nil, tt.err
				},
			}
			server := newTestServer(Dependencies{Retrieval: retrieval})

			rr := do(server, "POST", "/routes/search", `{"query":"q"}`)

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
		})
	}
}

func TestHandleChat_Success(t *testing.T) {
	var gotUser string
	var gotInput driving.ChatInput
	retrieval := &mockRetrievalService{
		chatFn: func(ctx context.Context, userID string, in driving.ChatInput) (*domain.ChatResponse, error) {
			gotUser, gotInput = userID, in
			return &domain.ChatResponse{
				Message:         "Take with food.",
				ConfidenceLevel: domain.ConfidenceHigh,
				Badge:           domain.ConfidenceHigh.Badge(),
				Sources:         []*domain.RetrievedSource{{DocumentID: "doc-1", Score: ptr(0.8)}},
			}, nil
		},
	}
	server := newTestServer(Dependencies{Retrieval: retrieval})

	body := `{"message":"How do I take it?","conversation_history":[{"role":"user","content":"hi"}],"tags":["cardiology"]}`
	rr := do(server, "POST", "/routes/chat", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotUser != "user-1" {
		t.Errorf("expected user-1, got %q", gotUser)
	}
	if gotInput.Message != "How do I take it?" || len(gotInput.History) != 1 || gotInput.Tags[0] != "cardiology" {
		t.Errorf("unexpected chat input %+v", gotInput)
	}

	var response domain.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ConfidenceLevel != domain.ConfidenceHigh {
		t.Errorf("expected high confidence, got %q", response.ConfidenceLevel)
	}
	if len(response.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(response.Sources))
	}
}

func TestHandleLogQuery(t *testing.T) {
	var stored *domain.QueryMetrics
	var storedUser string
	analytics := &mockAnalyticsService{
		logQueryFn: func(ctx context.Context, userID string, m *domain.QueryMetrics) error {
			storedUser, stored = userID, m
			return nil
		},
	}
	server := newTestServer(Dependencies{Analytics: analytics})

	body, _ := json.Marshal(map[string]interface{}{
		"query":            "ace inhibitors",
		"confidence_level": "HIGH CONFIDENCE",
		"response_length":  120,
		"num_sources":      3,
		"source_types":     map[string]int{"document": 3},
		"tags":             []string{},
	})
	req := httptest.NewRequest("POST", "/routes/log-query", bytes.NewReader(body))
	req.Header.Set(UserIDHeader, "user-9")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if storedUser != "user-9" {
		t.Errorf("expected user-9, got %q", storedUser)
	}
	if stored == nil || stored.Query != "ace inhibitors" || stored.NumSources != 3 {
		t.Errorf("unexpected stored record %+v", stored)
	}

	var response SuccessResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("expected success true")
	}
}

func TestHandleLogQuery_Invalid(t *testing.T) {
	analytics := &mockAnalyticsService{
		logQueryFn: func(ctx context.Context, userID string, m *domain.QueryMetrics) error {
			return fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
		},
	}
	server := newTestServer(Dependencies{Analytics: analytics})

	rr := do(server, "POST", "/routes/log-query", `{"query":""}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleQueryHistory_Defaults(t *testing.T) {
	var gotPage, gotSize int
	analytics := &mockAnalyticsService{
		historyFn: func(ctx context.Context, userID string, page, pageSize int) (*domain.QueryPage, error) {
			gotPage, gotSize = page, pageSize
			return &domain.QueryPage{Data: []*domain.QueryMetrics{}, Page: page, PageSize: pageSize}, nil
		},
	}
	server := newTestServer(Dependencies{Analytics: analytics})

	rr := do(server, "GET", "/routes/queries", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotPage != 1 || gotSize != domain.DefaultPageSize {
		t.Errorf("expected defaults 1/%d, got %d/%d", domain.DefaultPageSize, gotPage, gotSize)
	}

	do(server, "GET", "/routes/queries?page=3&page_size=50", "")
	if gotPage != 3 || gotSize != 50 {
		t.Errorf("expected 3/50, got %d/%d", gotPage, gotSize)
	}
}

func TestHandleQueryHistory_InvalidParams(t *testing.T) {
	server := newTestServer(Dependencies{})

	for _, target := range []string{
		"/routes/queries?page=abc",
		"/routes/queries?page_size=1.5",
		"/routes/analytics/summary?page=x",
		"/routes/stats?days=week",
	} {
		rr := do(server, "GET", target, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rr.Code)
		}
	}
}

func TestHandleQueryHistory_OutOfRange(t *testing.T) {
	analytics := &mockAnalyticsService{
		historyFn: func(ctx context.Context, userID string, page, pageSize int) (*domain.QueryPage, error) {
			return nil, fmt.Errorf("%w: page_size must be between 1 and %d", domain.ErrInvalidInput, domain.MaxPageSize)
		},
	}
	server := newTestServer(Dependencies{Analytics: analytics})

	rr := do(server, "GET", "/routes/queries?page_size=500", "")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleQueryStats(t *testing.T) {
	var gotDays = -1
	analytics := &mockAnalyticsService{
		statsFn: func(ctx context.Context, userID string, days int) (*domain.QueryStatsSummary, error) {
			gotDays = days
			return &domain.QueryStatsSummary{Days: days}, nil
		},
	}
	server := newTestServer(Dependencies{Analytics: analytics})

	rr := do(server, "GET", "/routes/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotDays != domain.DefaultStatsDays {
		t.Errorf("expected default %d days, got %d", domain.DefaultStatsDays, gotDays)
	}

	do(server, "GET", "/routes/stats?days=0", "")
	if gotDays != 0 {
		t.Errorf("expected 0 days (all history), got %d", gotDays)
	}
}

func TestHandleAnalyticsSummary(t *testing.T) {
	analytics := &mockAnalyticsService{
		summaryFn: func(ctx context.Context, userID string, page, pageSize int) (*driving.AnalyticsSummaryResult, error) {
			return &driving.AnalyticsSummaryResult{Page: page, PageSize: pageSize, TotalCount: 7}, nil
		},
	}
	server := newTestServer(Dependencies{Analytics: analytics})

	rr := do(server, "GET", "/routes/analytics/summary?page=2", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response driving.AnalyticsSummaryResult
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Page != 2 || response.TotalCount != 7 {
		t.Errorf("unexpected summary %+v", response)
	}
}

func TestHandleContentMetrics(t *testing.T) {
	content := &mockContentService{
		metricsFn: func(ctx context.Context) (*domain.ContentMetrics, error) {
			return &domain.ContentMetrics{DocumentCount: 4, URLCount: 2}, nil
		},
	}
	server := newTestServer(Dependencies{Content: content})

	rr := do(server, "GET", "/routes/content-analysis/metrics", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response domain.ContentMetrics
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.DocumentCount != 4 || response.URLCount != 2 {
		t.Errorf("unexpected metrics %+v", response)
	}
}

func TestHandleContentMetrics_CatalogDown(t *testing.T) {
	content := &mockContentService{
		metricsFn: func(ctx context.Context) (*domain.ContentMetrics, error) {
			return nil, domain.ErrServiceUnavailable
		},
	}
	server := newTestServer(Dependencies{Content: content})

	rr := do(server, "GET", "/routes/content-analysis/metrics", "")

	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rr.Code)
	}
}

func TestHandleIndexStatus(t *testing.T) {
	m := metrics.New()
	content := &mockContentService{
		indexStatusFn: func(ctx context.Context) (*domain.IndexStatus, error) {
			return &domain.IndexStatus{DocumentsIndexed: 3, DocumentsPending: 1, URLsPending: 2}, nil
		},
	}
	server := newTestServer(Dependencies{Content: content, Metrics: m})

	rr := do(server, "GET", "/routes/indexing/status", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response domain.IndexStatus
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Pending() != 3 {
		t.Errorf("expected 3 pending, got %d", response.Pending())
	}

	scrape := do(server, "GET", "/metrics", "")
	if !strings.Contains(scrape.Body.String(), "medivault_index_pending_items 3") {
		t.Error("expected pending gauge to be exported")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	retrieval := &mockRetrievalService{
		searchFn: func(ctx context.Context, query string, opts driving.SearchOptions) ([]*domain.RetrievedSource, error) {
			return []*domain.RetrievedSource{{DocumentID: "doc-1", Score: ptr(0.7)}}, nil
		},
	}
	server := newTestServer(Dependencies{Retrieval: retrieval, Metrics: metrics.New()})

	do(server, "POST", "/routes/search", `{"query":"q"}`)
	rr := do(server, "GET", "/metrics", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`medivault_http_requests_total{method="POST",route="POST /routes/search",status="200"} 1`,
		"medivault_sources_returned_count 1",
		"medivault_composite_score_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in scrape", want)
		}
	}
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	server := newTestServer(Dependencies{})

	rr := do(server, "GET", "/metrics", "")

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 without metrics, got %d", rr.Code)
	}
}

func TestHandleExport_Success(t *testing.T) {
	var gotInput driving.ExportInput
	export := &mockExportService{
		exportFn: func(ctx context.Context, in driving.ExportInput) (*driving.ExportedDocument, error) {
			gotInput = in
			return &driving.ExportedDocument{
				Filename:    "MediVault_Consultation_20240630_120000.html",
				ContentType: "text/html; charset=utf-8",
				Body:        []byte("<html></html>"),
			}, nil
		},
	}
	server := newTestServer(Dependencies{Export: export})

	body := `{"title":"Review","conversation":[{"role":"user","content":"hi"},{"role":"assistant","content":"[HIGH CONFIDENCE] hello"}]}`
	rr := do(server, "POST", "/routes/export", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotInput.Title != "Review" || len(gotInput.Messages) != 2 || !gotInput.IncludeTimestamp {
		t.Errorf("unexpected export input %+v", gotInput)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != "attachment; filename=MediVault_Consultation_20240630_120000.html" {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if rr.Body.String() != "<html></html>" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestHandleExport_TimestampOptOut(t *testing.T) {
	var gotInput driving.ExportInput
	export := &mockExportService{
		exportFn: func(ctx context.Context, in driving.ExportInput) (*driving.ExportedDocument, error) {
			gotInput = in
			return &driving.ExportedDocument{ContentType: "text/html", Filename: "x.html"}, nil
		},
	}
	server := newTestServer(Dependencies{Export: export})

	rr := do(server, "POST", "/routes/export", `{"conversation":[{"role":"user","content":"hi"}],"include_timestamp":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotInput.IncludeTimestamp {
		t.Error("expected timestamp to be disabled")
	}
}

func TestHandleExport_EmptyConversation(t *testing.T) {
	export := &mockExportService{
		exportFn: func(ctx context.Context, in driving.ExportInput) (*driving.ExportedDocument, error) {
			return nil, fmt.Errorf("conversation is empty: %w", domain.ErrInvalidInput)
		},
	}
	server := newTestServer(Dependencies{Export: export})

	rr := do(server, "POST", "/routes/export", `{"conversation":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleExport_InvalidBody(t *testing.T) {
	server := newTestServer(Dependencies{})

	rr := do(server, "POST", "/routes/export", "{")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}
