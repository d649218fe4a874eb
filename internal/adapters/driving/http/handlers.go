package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/swaggo/swag"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
	"github.com/medivault-ai/medivault-core/internal/runtime"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports the reachability of each dependency
// @Description Readiness response
type ReadyResponse struct {
	Status string                    `json:"status" example:"ready"`
	Checks map[string]runtime.Status `json:"checks,omitempty"`
}

// SuccessResponse acknowledges a write
// @Description Write acknowledgement
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// SearchRequest is the body of a search
// @Description Semantic search request
type SearchRequest struct {
	Query string `json:"query" example:"hypertension first line therapy"`
	TopK  int    `json:"top_k,omitempty" example:"5"`
}

// SearchResponse holds ranked sources
// @Description Sources ranked by composite score, descending
type SearchResponse struct {
	Results []*domain.RetrievedSource `json:"results"`
}

// ChatRequest is the body of a chat turn
// @Description Chat request
type ChatRequest struct {
	Message             string               `json:"message" example:"What is the maximum daily dose of paracetamol?"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history,omitempty"`
	Tags                []string             `json:"tags,omitempty"`
}

// ExportRequest is the body of a conversation export
// @Description Conversation export request
type ExportRequest struct {
	Conversation []domain.ExportMessage `json:"conversation"`
	Title        string                 `json:"title,omitempty" example:"MediVault AI Consultation"`

	// IncludeTimestamp defaults to true when omitted
	IncludeTimestamp *bool `json:"include_timestamp,omitempty"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database, cache, queue and RAG engine
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness == nil {
		writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
		return
	}

	ready, checks := s.readiness.Ready(r.Context())
	resp := ReadyResponse{Status: "ready", Checks: checks}
	status := http.StatusOK
	if !ready {
		resp.Status = "not ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "swagger document unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Retrieval endpoints

// handleSearch godoc
// @Summary      Search the knowledge base
// @Description  Returns the most relevant sources ranked by composite score
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {object}  SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      502      {object}  ErrorResponse  "RAG engine unavailable"
// @Router       /routes/search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.retrievalService.Search(r.Context(), req.Query, driving.SearchOptions{TopK: req.TopK})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []*domain.RetrievedSource{}
	}
	if s.metrics != nil {
		s.metrics.ObserveSources(results)
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// handleChat godoc
// @Summary      Chat with the knowledge base
// @Description  Answers a message with cited sources and a confidence badge, and logs the query
// @Tags         Retrieval
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ChatRequest  true  "Chat turn"
// @Success      200      {object}  domain.ChatResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      502      {object}  ErrorResponse  "RAG engine unavailable"
// @Router       /routes/chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.retrievalService.Chat(r.Context(), domain.UserIDFromContext(r.Context()), driving.ChatInput{
		Message: req.Message,
		History: req.ConversationHistory,
		Tags:    req.Tags,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveChat(resp)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleExport godoc
// @Summary      Export a conversation
// @Description  Renders a conversation as a standalone HTML document with confidence indicators and sources
// @Tags         Retrieval
// @Accept       json
// @Produce      html
// @Security     BearerAuth
// @Param        request  body      ExportRequest  true  "Conversation"
// @Success      200      {string}  string         "HTML document"
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /routes/export [post]
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.exportService.Export(r.Context(), driving.ExportInput{
		Title:            req.Title,
		Messages:         req.Conversation,
		IncludeTimestamp: req.IncludeTimestamp == nil || *req.IncludeTimestamp,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// Analytics endpoints

// handleLogQuery godoc
// @Summary      Log a query
// @Description  Stores one query record for the caller
// @Tags         Analytics
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.QueryMetrics  true  "Query record"
// @Success      200      {object}  SuccessResponse
// @Failure      400      {object}  ErrorResponse  "Invalid record"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /routes/log-query [post]
func (s *Server) handleLogQuery(w http.ResponseWriter, r *http.Request) {
	var m domain.QueryMetrics
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.analyticsService.LogQuery(r.Context(), domain.UserIDFromContext(r.Context()), &m); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveLogged(m.ConfidenceLevel)
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleQueryHistory godoc
// @Summary      Query history
// @Description  Returns one page of the caller's queries, newest first
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page number (>= 1)"  default(1)
// @Param        page_size  query     int  false  "Page size (1-100)"   default(20)
// @Success      200        {object}  domain.QueryPage
// @Failure      400        {object}  ErrorResponse  "Invalid parameters"
// @Failure      401        {object}  ErrorResponse  "Unauthorized"
// @Router       /routes/queries [get]
func (s *Server) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := parsePaging(w, r)
	if !ok {
		return
	}

	resp, err := s.analyticsService.History(r.Context(), domain.UserIDFromContext(r.Context()), page, pageSize)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleQueryStats godoc
// @Summary      Query statistics
// @Description  Aggregates the caller's queries over the last N days (0 = all history)
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        days  query     int  false  "Window in days (>= 0)"  default(30)
// @Success      200   {object}  domain.QueryStatsSummary
// @Failure      400   {object}  ErrorResponse  "Invalid parameters"
// @Failure      401   {object}  ErrorResponse  "Unauthorized"
// @Router       /routes/stats [get]
func (s *Server) handleQueryStats(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days", domain.DefaultStatsDays)
	if !ok {
		return
	}

	resp, err := s.analyticsService.Stats(r.Context(), domain.UserIDFromContext(r.Context()), days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleAnalyticsSummary godoc
// @Summary      Analytics summary
// @Description  Summarizes one history page and scores RAG performance over the default window
// @Tags         Analytics
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page number (>= 1)"  default(1)
// @Param        page_size  query     int  false  "Page size (1-100)"   default(20)
// @Success      200        {object}  driving.AnalyticsSummaryResult
// @Failure      400        {object}  ErrorResponse  "Invalid parameters"
// @Failure      401        {object}  ErrorResponse  "Unauthorized"
// @Router       /routes/analytics/summary [get]
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := parsePaging(w, r)
	if !ok {
		return
	}

	resp, err := s.analyticsService.Summary(r.Context(), domain.UserIDFromContext(r.Context()), page, pageSize)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Content endpoints

// handleContentMetrics godoc
// @Summary      Content metrics
// @Description  Analyzes the caller's documents and URLs
// @Tags         Content
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.ContentMetrics
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      502  {object}  ErrorResponse  "Catalog unavailable"
// @Router       /routes/content-analysis/metrics [get]
func (s *Server) handleContentMetrics(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contentService.Metrics(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleIndexStatus godoc
// @Summary      Indexing status
// @Description  Counts indexed and pending catalog items
// @Tags         Content
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.IndexStatus
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      502  {object}  ErrorResponse  "Catalog unavailable"
// @Router       /routes/indexing/status [get]
func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.contentService.IndexStatus(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveIndexStatus(*resp)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions

// parsePaging reads page and page_size. Range checks are left to the service.
func parsePaging(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return 0, 0, false
	}
	pageSize, ok := queryInt(w, r, "page_size", domain.DefaultPageSize)
	if !ok {
		return 0, 0, false
	}
	return page, pageSize, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

// writeServiceError maps a domain error to a status code
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrServiceUnavailable),
		errors.Is(err, domain.ErrUpstream):
		s.logger.Warn("upstream failure", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "upstream service failed")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
