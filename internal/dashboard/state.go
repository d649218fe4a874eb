// Package dashboard holds the application state behind the analytics and
// content dashboards: the last fetched history page, stats window and content
// metrics, together with their loading and error state.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// Resource names one piece of fetched state
type Resource string

const (
	ResourceHistory Resource = "query_history"
	ResourceStats   Resource = "query_stats"
	ResourceContent Resource = "content_metrics"
)

// ErrClosed is returned by fetches after Teardown
var ErrClosed = errors.New("dashboard state is torn down")

// Fetcher loads dashboard data from the API
type Fetcher interface {
	QueryHistory(ctx context.Context, page, pageSize int) (*domain.QueryPage, error)
	QueryStats(ctx context.Context, days int) (*domain.QueryStatsSummary, error)
	ContentMetrics(ctx context.Context) (*domain.ContentMetrics, error)
}

// Notification is a transient message about a failed fetch
type Notification struct {
	Resource  Resource
	Message   string
	Err       error
	Retryable bool
}

// Notifier receives fetch failures
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notification)

// Notify calls f
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Config holds dashboard state settings
type Config struct {
	Fetcher  Fetcher
	Notifier Notifier // Optional: defaults to a warn log line
	Logger   *slog.Logger

	// DemoMode substitutes sample data for empty responses
	DemoMode bool

	// LoadContent makes Init fetch content metrics as well
	LoadContent bool

	// Parallelism bounds concurrent fetches during Init (default 3)
	Parallelism int

	Now func() time.Time
}

type fetchParams struct {
	page     int
	pageSize int
	days     int
}

// State is the dashboard application state.
// Each resource carries a monotonic sequence number; a response is applied
// only when it answers the newest request for its resource.
type State struct {
	fetcher  Fetcher
	notifier Notifier
	logger   *slog.Logger
	demo     bool
	content  bool
	now      func() time.Time

	root   context.Context
	cancel context.CancelFunc
	pool   *ants.Pool
	wg     sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	seq      map[Resource]uint64
	loading  map[Resource]bool
	errs     map[Resource]error
	lastErr  error
	params   map[Resource]fetchParams
	demoUsed map[Resource]bool

	history   *domain.QueryPage
	stats     *domain.QueryStatsSummary
	metrics   *domain.ContentMetrics
	updatedAt time.Time
}

// New creates dashboard state. Call Teardown when done.
func New(cfg Config) (*State, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required: %w", domain.ErrInvalidInput)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(n Notification) {
			logger.Warn(n.Message, "resource", n.Resource, "error", n.Err, "retryable", n.Retryable)
		})
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 3
	}

	pool, err := ants.NewPool(parallelism)
	if err != nil {
		return nil, fmt.Errorf("create fetch pool: %w", err)
	}

	root, cancel := context.WithCancel(context.Background())

	return &State{
		fetcher:  cfg.Fetcher,
		notifier: notifier,
		logger:   logger,
		demo:     cfg.DemoMode,
		content:  cfg.LoadContent,
		now:      now,
		root:     root,
		cancel:   cancel,
		pool:     pool,
		seq:      make(map[Resource]uint64),
		loading:  make(map[Resource]bool),
		errs:     make(map[Resource]error),
		params:   make(map[Resource]fetchParams),
		demoUsed: make(map[Resource]bool),
	}, nil
}

// Init loads the first history page and the default stats window
// concurrently, plus content metrics when configured.
func (s *State) Init(ctx context.Context) error {
	jobs := []func() error{
		func() error { return s.FetchQueryHistory(ctx, 1, domain.DefaultPageSize) },
		func() error { return s.FetchQueryStats(ctx, domain.DefaultStatsDays) },
	}
	if s.content {
		jobs = append(jobs, func() error { return s.FetchContentMetrics(ctx) })
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	for _, job := range jobs {
		job := job
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if err := job(); err != nil {
				record(err)
			}
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				wg.Wait()
				return ErrClosed
			}
			record(err)
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

// FetchQueryHistory loads one page of query history.
// Zero values select the defaults.
func (s *State) FetchQueryHistory(ctx context.Context, page, pageSize int) error {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	if pageSize > domain.MaxPageSize {
		return fmt.Errorf("page_size must be <= %d: %w", domain.MaxPageSize, domain.ErrInvalidInput)
	}

	return s.fetch(ctx, ResourceHistory, fetchParams{page: page, pageSize: pageSize},
		"Failed to load query history",
		func(ctx context.Context) (func(), error) {
			resp, err := s.fetcher.QueryHistory(ctx, page, pageSize)
			if err != nil {
				return nil, err
			}
			demo := s.demo && (resp == nil || len(resp.Data) == 0)
			if demo {
				resp = DemoQueryHistory(s.now())
			}
			return func() {
				s.history = resp
				s.demoUsed[ResourceHistory] = demo
			}, nil
		})
}

// FetchQueryStats loads the stats of the last days (0 = all history)
func (s *State) FetchQueryStats(ctx context.Context, days int) error {
	if days < 0 {
		return fmt.Errorf("days must be >= 0: %w", domain.ErrInvalidInput)
	}

	return s.fetch(ctx, ResourceStats, fetchParams{days: days},
		"Failed to load query statistics",
		func(ctx context.Context) (func(), error) {
			resp, err := s.fetcher.QueryStats(ctx, days)
			if err != nil {
				return nil, err
			}
			demo := s.demo && statsLookEmpty(resp)
			if demo {
				resp = DemoQueryStats(s.now())
			}
			if resp != nil && resp.Days == 0 {
				resp.Days = days
			}
			return func() {
				s.stats = resp
				s.demoUsed[ResourceStats] = demo
			}, nil
		})
}

// FetchContentMetrics loads the content analysis of the catalog
func (s *State) FetchContentMetrics(ctx context.Context) error {
	return s.fetch(ctx, ResourceContent, fetchParams{},
		"Failed to load content metrics",
		func(ctx context.Context) (func(), error) {
			resp, err := s.fetcher.ContentMetrics(ctx)
			if err != nil {
				return nil, err
			}
			demo := s.demo && resp.IsEmpty()
			if demo {
				resp = DemoContentMetrics(s.now())
			}
			return func() {
				s.metrics = resp
				s.demoUsed[ResourceContent] = demo
			}, nil
		})
}

// Retry re-runs the last fetch of a resource
func (s *State) Retry(ctx context.Context, res Resource) error {
	s.mu.RLock()
	p, ok := s.params[res]
	s.mu.RUnlock()

	switch res {
	case ResourceHistory:
		if !ok {
			p = fetchParams{page: 1, pageSize: domain.DefaultPageSize}
		}
		return s.FetchQueryHistory(ctx, p.page, p.pageSize)
	case ResourceStats:
		if !ok {
			p.days = domain.DefaultStatsDays
		}
		return s.FetchQueryStats(ctx, p.days)
	case ResourceContent:
		return s.FetchContentMetrics(ctx)
	default:
		return fmt.Errorf("unknown resource %q: %w", res, domain.ErrInvalidInput)
	}
}

// fetch runs load under the resource's fencing. load returns the function
// that applies the response; it runs under the state lock and only for the
// newest request.
func (s *State) fetch(ctx context.Context, res Resource, p fetchParams, failure string,
	load func(ctx context.Context) (func(), error)) error {

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq[res]++
	seq := s.seq[res]
	s.loading[res] = true
	s.params[res] = p
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.root, cancel)
	defer stop()

	apply, err := load(fetchCtx)

	s.mu.Lock()
	if seq != s.seq[res] {
		s.mu.Unlock()
		s.logger.Debug("discarding stale response", "resource", res, "seq", seq)
		return nil
	}
	s.loading[res] = false

	if err != nil {
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		s.errs[res] = err
		s.lastErr = err
		s.mu.Unlock()

		s.notifier.Notify(Notification{
			Resource:  res,
			Message:   failure,
			Err:       err,
			Retryable: retryable(err),
		})
		return err
	}

	apply()
	delete(s.errs, res)
	if len(s.errs) == 0 {
		s.lastErr = nil
	}
	s.updatedAt = s.now()
	s.mu.Unlock()
	return nil
}

// Teardown cancels in-flight fetches and waits for them to return.
// Later fetches fail with ErrClosed.
func (s *State) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.pool.Release()
}

// Snapshot is a consistent copy of the dashboard state
type Snapshot struct {
	History     *domain.QueryPage         `json:"query_history" yaml:"query_history"`
	Stats       *domain.QueryStatsSummary `json:"query_stats" yaml:"query_stats"`
	Content     *domain.ContentMetrics    `json:"content_metrics,omitempty" yaml:"content_metrics,omitempty"`
	Summary     domain.AnalyticsSummary   `json:"summary" yaml:"summary"`
	Display     domain.SummaryDisplay     `json:"display" yaml:"display"`
	Performance *domain.RAGPerformance    `json:"rag_performance,omitempty" yaml:"rag_performance,omitempty"`
	Loading     bool                      `json:"loading" yaml:"loading"`
	Error       string                    `json:"error,omitempty" yaml:"error,omitempty"`
	Errors      map[Resource]string       `json:"errors,omitempty" yaml:"errors,omitempty"`
	Demo        bool                      `json:"demo" yaml:"demo"`

	// Empty is set once history and stats are loaded and both hold nothing
	Empty bool `json:"empty" yaml:"empty"`

	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Snapshot returns the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		History:   s.history,
		Stats:     s.stats,
		Content:   s.metrics,
		UpdatedAt: s.updatedAt,
	}

	for _, loading := range s.loading {
		if loading {
			snap.Loading = true
			break
		}
	}
	for _, used := range s.demoUsed {
		if used {
			snap.Demo = true
			break
		}
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	if len(s.errs) > 0 {
		snap.Errors = make(map[Resource]string, len(s.errs))
		for res, err := range s.errs {
			snap.Errors[res] = err.Error()
		}
	}

	if s.history != nil {
		snap.Summary = domain.Summarize(s.history.Data)
	}
	snap.Display = snap.Summary.Display()

	if s.stats != nil {
		perf := domain.NewRAGPerformance(s.stats.ConfidenceDistribution, s.stats.TotalQueries)
		snap.Performance = &perf
	}

	snap.Empty = s.history != nil && s.stats != nil &&
		len(s.history.Data) == 0 && s.stats.IsEmpty()

	return snap
}

func statsLookEmpty(s *domain.QueryStatsSummary) bool {
	if s == nil || s.TotalQueries == 0 {
		return true
	}
	return len(s.ConfidenceDistribution) == 0 && len(s.SourceTypeDistribution) == 0
}

// retryable reports whether repeating the request may succeed
func retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotFound):
		return false
	default:
		return true
	}
}
