package runtime

import (
	"context"
	"io"
	"sync"
	"time"
)

// Dependency is a backing service whose reachability gates readiness.
type Dependency interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Dependency
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status is the result of one dependency check
type Status struct {
	Healthy   bool          `json:"healthy"`
	Optional  bool          `json:"optional,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

type entry struct {
	dep      Dependency
	optional bool
}

// Services holds references to the backing services of the process.
// Dependencies can be swapped at runtime. Thread-safe for concurrent access.
type Services struct {
	mu    sync.RWMutex
	deps  map[string]entry
	order []string

	// CheckTimeout bounds each individual ping (default 2s)
	CheckTimeout time.Duration
}

// NewServices creates an empty registry
func NewServices() *Services {
	return &Services{
		deps:         make(map[string]entry),
		CheckTimeout: 2 * time.Second,
	}
}

// Register adds or replaces a required dependency.
// A replaced dependency is closed if it implements io.Closer.
func (s *Services) Register(name string, dep Dependency) {
	s.set(name, entry{dep: dep})
}

// RegisterOptional adds a dependency that is reported but never blocks readiness
func (s *Services) RegisterOptional(name string, dep Dependency) {
	s.set(name, entry{dep: dep, optional: true})
}

func (s *Services) set(name string, e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.deps[name]; ok {
		closeDependency(old.dep)
	} else {
		s.order = append(s.order, name)
	}

	if e.dep == nil {
		delete(s.deps, name)
		s.order = without(s.order, name)
		return
	}
	s.deps[name] = e
}

// Get returns the named dependency (may be nil)
func (s *Services) Get(name string) Dependency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deps[name].dep
}

// Names returns the registered names in registration order
func (s *Services) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Check pings every dependency concurrently
func (s *Services) Check(ctx context.Context) map[string]Status {
	s.mu.RLock()
	deps := make(map[string]entry, len(s.deps))
	for name, e := range s.deps {
		deps[name] = e
	}
	timeout := s.CheckTimeout
	s.mu.RUnlock()

	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Status, len(deps))
	)
	for name, e := range deps {
		wg.Add(1)
		go func(name string, e entry) {
			defer wg.Done()

			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := e.dep.Ping(pingCtx)
			st := Status{
				Healthy:   err == nil,
				Optional:  e.optional,
				Latency:   time.Since(start),
				CheckedAt: start,
			}
			if err != nil {
				st.Error = err.Error()
			}

			mu.Lock()
			results[name] = st
			mu.Unlock()
		}(name, e)
	}
	wg.Wait()

	return results
}

// Ready reports whether every required dependency is reachable
func (s *Services) Ready(ctx context.Context) (bool, map[string]Status) {
	results := s.Check(ctx)
	for _, st := range results {
		if !st.Healthy && !st.Optional {
			return false, results
		}
	}
	return true, results
}

// Close shuts down all dependencies in reverse registration order
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		closeDependency(s.deps[s.order[i]].dep)
	}
	s.deps = make(map[string]entry)
	s.order = nil

	return nil
}

func closeDependency(dep Dependency) {
	if c, ok := dep.(io.Closer); ok {
		_ = c.Close()
	}
}

func without(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
