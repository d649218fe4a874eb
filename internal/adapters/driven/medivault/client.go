package medivault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// Ensure Client implements the engine and catalog ports
var (
	_ driven.RAGEngine      = (*Client)(nil)
	_ driven.ContentCatalog = (*Client)(nil)
)

// Client is a typed client for the MediVault REST API.
// The caller's bearer token is taken from the request context; the
// configured token is used when the context carries none.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Config holds client settings
type Config struct {
	// BaseURL of the API, without the /routes prefix
	BaseURL string

	// Token is a fallback bearer token (service account or CLI use)
	Token string

	// Timeout per request (default: 60s)
	Timeout time.Duration

	// HTTPClient overrides the default client when set
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required: %w", domain.ErrInvalidInput)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, domain.ErrInvalidInput)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  httpClient,
	}, nil
}

// searchRequest is the body of /routes/embeddings/search
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// searchResult is one ranked chunk as the API returns it
type searchResult struct {
	ID               string                 `json:"id"`
	Text             string                 `json:"text"`
	Metadata         map[string]interface{} `json:"metadata"`
	Score            *float64               `json:"score"`
	SourceType       string                 `json:"source_type"`
	SemanticScore    *float64               `json:"semantic_score"`
	RecencyScore     *float64               `json:"recency_score"`
	CredibilityScore *float64               `json:"credibility_score"`
	CategoryScore    *float64               `json:"category_score"`
}

func (r searchResult) toSource() *domain.RetrievedSource {
	str := func(key string) string {
		if v, ok := r.Metadata[key].(string); ok {
			return v
		}
		return ""
	}

	src := &domain.RetrievedSource{
		DocumentID:       str("document_id"),
		DocumentName:     str("document_name"),
		URLID:            str("url_id"),
		URLTitle:         str("url_title"),
		URL:              str("url"),
		Excerpt:          r.Text,
		SourceType:       domain.SourceType(r.SourceType),
		Score:            r.Score,
		SemanticScore:    r.SemanticScore,
		CredibilityScore: r.CredibilityScore,
		RecencyScore:     r.RecencyScore,
		CategoryScore:    r.CategoryScore,
	}

	meta := &domain.SourceMetadata{
		UploadDate:      str("upload_date"),
		AddedDate:       str("added_date"),
		PublicationDate: str("publication_date"),
		Category:        str("category"),
	}
	if v, ok := r.Metadata["credibility_rating"].(float64); ok {
		meta.CredibilityRating = &v
	}
	if *meta != (domain.SourceMetadata{}) {
		src.Metadata = meta
	}

	return src
}

// Search returns the chunks most relevant to the query
func (c *Client) Search(ctx context.Context, req driven.SearchRequest) ([]*domain.RetrievedSource, error) {
	var resp struct {
		Results []searchResult `json:"results"`
	}
	err := c.do(ctx, http.MethodPost, "/routes/embeddings/search", nil,
		searchRequest{Query: req.Query, TopK: req.TopK}, &resp)
	if err != nil {
		return nil, err
	}

	sources := make([]*domain.RetrievedSource, 0, len(resp.Results))
	for _, r := range resp.Results {
		sources = append(sources, r.toSource())
	}
	return sources, nil
}

// chatRequest is the body of /routes/chat
type chatRequest struct {
	Message             string               `json:"message"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history"`
}

// Chat answers a message using retrieved sources
func (c *Client) Chat(ctx context.Context, req driven.ChatRequest) (*driven.ChatReply, error) {
	history := req.History
	if history == nil {
		history = []domain.ChatMessage{}
	}

	var reply driven.ChatReply
	err := c.do(ctx, http.MethodPost, "/routes/chat", nil,
		chatRequest{Message: req.Message, ConversationHistory: history}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// Documents lists the caller's uploaded documents
func (c *Client) Documents(ctx context.Context) ([]*domain.Document, error) {
	var resp struct {
		Documents []*domain.Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/routes/documents", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// URLs lists the caller's registered URLs
func (c *Client) URLs(ctx context.Context) ([]*domain.URLResource, error) {
	var resp struct {
		URLs []*domain.URLResource `json:"urls"`
	}
	if err := c.do(ctx, http.MethodGet, "/routes/urls", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.URLs, nil
}

// LogQuery records one query event
func (c *Client) LogQuery(ctx context.Context, m *domain.QueryMetrics) error {
	return c.do(ctx, http.MethodPost, "/routes/log-query", nil, m, nil)
}

// QueryHistory returns one page of the caller's query history
func (c *Client) QueryHistory(ctx context.Context, page, pageSize int) (*domain.QueryPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	var resp domain.QueryPage
	if err := c.do(ctx, http.MethodGet, "/routes/queries", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryStats returns the stats of the last days
func (c *Client) QueryStats(ctx context.Context, days int) (*domain.QueryStatsSummary, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))

	var resp domain.QueryStatsSummary
	if err := c.do(ctx, http.MethodGet, "/routes/stats", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ContentMetrics returns the content analysis of the caller's catalog
func (c *Client) ContentMetrics(ctx context.Context) (*domain.ContentMetrics, error) {
	var resp domain.ContentMetrics
	if err := c.do(ctx, http.MethodGet, "/routes/content-analysis/metrics", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks the API health endpoint
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/_healthz", nil, nil, nil)
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// apiError is the FastAPI-style error body
type apiError struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

func (e apiError) message() string {
	if e.Error != "" {
		return e.Error
	}
	var s string
	if json.Unmarshal(e.Detail, &s) == nil {
		return s
	}
	return string(e.Detail)
}

// do sends one JSON request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		msg := apiErr.message()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %w (status %d: %s)", method, path, statusError(resp.StatusCode), resp.StatusCode, msg)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if id := domain.IdentityFromContext(ctx); id != nil && id.Token != "" {
		return id.Token
	}
	return c.token
}

// statusError maps an HTTP status to a domain error
func statusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return domain.ErrServiceUnavailable
	default:
		return domain.ErrUpstream
	}
}
