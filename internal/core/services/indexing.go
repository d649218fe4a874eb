package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
)

// IndexWatcher polls the catalog while items are still being indexed.
// It stops on its own once nothing is pending, when Stop is called, or
// when its context is cancelled.
type IndexWatcher struct {
	content    driving.ContentService
	onUpdate   func(domain.IndexStatus)
	logger     *slog.Logger
	interval   time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	cancel  context.CancelFunc
	last    *domain.IndexStatus
}

// IndexWatcherConfig holds configuration for the watcher.
type IndexWatcherConfig struct {
	Content    driving.ContentService
	OnUpdate   func(domain.IndexStatus) // Optional: called after every successful poll
	Logger     *slog.Logger
	Interval   time.Duration // Poll interval while items are pending (default: 5s)
	MaxBackoff time.Duration // Upper bound of the error backoff (default: 1m)
}

// NewIndexWatcher creates a new watcher.
func NewIndexWatcher(cfg IndexWatcherConfig) *IndexWatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = time.Minute
	}
	if maxBackoff < interval {
		maxBackoff = interval
	}

	return &IndexWatcher{
		content:    cfg.Content,
		onUpdate:   cfg.OnUpdate,
		logger:     logger,
		interval:   interval,
		maxBackoff: maxBackoff,
	}
}

// Start begins polling in the background.
func (w *IndexWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.cancel = cancel
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	w.logger.Info("index watcher starting", "interval", w.interval)

	go w.run(runCtx, stopCh, doneCh)

	return nil
}

// Stop cancels polling and waits for the loop to exit.
func (w *IndexWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	w.cancel()
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
}

// Wait blocks until the loop has exited. It returns immediately if the
// watcher was never started.
func (w *IndexWatcher) Wait() {
	w.mu.Lock()
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
}

// Running returns true while the poll loop is active.
func (w *IndexWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Last returns the most recent status, or nil before the first poll.
func (w *IndexWatcher) Last() *domain.IndexStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return nil
	}
	s := *w.last
	return &s
}

// run is the main poll loop.
func (w *IndexWatcher) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.cancel()
		w.mu.Unlock()
		close(doneCh)
	}()

	delay := w.interval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			w.logger.Info("index watcher stopped")
			return
		case <-ctx.Done():
			w.logger.Info("index watcher context cancelled")
			return
		case <-timer.C:
		}

		status, err := w.content.IndexStatus(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay = w.nextBackoff(delay)
			w.logger.Warn("index status poll failed", "error", err, "retry_in", delay)
			timer.Reset(delay)
			continue
		}

		delay = w.interval
		w.mu.Lock()
		w.last = status
		w.mu.Unlock()
		if w.onUpdate != nil {
			w.onUpdate(*status)
		}

		if status.Done() {
			w.logger.Info("indexing complete",
				"documents", status.DocumentsIndexed,
				"urls", status.URLsIndexed)
			return
		}

		w.logger.Debug("items still indexing", "pending", status.Pending())
		timer.Reset(delay)
	}
}

// nextBackoff doubles the delay up to the configured maximum.
func (w *IndexWatcher) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.maxBackoff {
		next = w.maxBackoff
	}
	return next
}
