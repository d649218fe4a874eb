package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
)

// DefaultConcurrency is the number of task processors when none is configured
const DefaultConcurrency = 2

// Worker processes tasks from the task queue.
// log_query tasks are written through the analytics service.
type Worker struct {
	taskQueue driven.TaskQueue
	analytics driving.AnalyticsService
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu        sync.RWMutex
	running   bool
	processed int64
	failed    int64
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Analytics      driving.AnalyticsService
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		analytics:      cfg.Analytics,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if w.taskQueue == nil {
		return errors.New("task queue is required")
	}
	if w.analytics == nil {
		return errors.New("analytics service is required")
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker and waits for in-flight tasks.
func (w *Worker) Stop() {
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
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	doneCh := w.doneCh
	w.mu.RUnlock()
	if doneCh == nil {
		return
	}
	<-doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			case <-w.stopCh:
			}
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "user_id", task.UserID)
	logger.Debug("processing task", "attempt", task.Attempts)

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeLogQuery:
		err = w.handleLogQuery(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		w.mu.Lock()
		w.failed++
		w.mu.Unlock()

		logger.Error("task failed",
			"duration", duration,
			"attempts", task.Attempts,
			"error", err,
		)

		// Invalid payloads fail the same way on every attempt
		if errors.Is(err, domain.ErrInvalidInput) {
			if failErr := w.taskQueue.Fail(ctx, task.ID, err.Error()); failErr != nil {
				logger.Error("failed to mark task failed", "fail_error", failErr)
			}
			return
		}

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	w.mu.Lock()
	w.processed++
	w.mu.Unlock()

	logger.Debug("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleLogQuery stores the metrics record carried by a log_query task.
func (w *Worker) handleLogQuery(ctx context.Context, task *domain.Task) error {
	m, err := task.Metrics()
	if err != nil {
		return err
	}

	userID := task.UserID
	if userID == "" {
		userID = m.UserID
	}
	if userID == "" {
		return fmt.Errorf("task %s has no user: %w", task.ID, domain.ErrInvalidInput)
	}

	return w.analytics.LogQuery(ctx, userID, m)
}

// Health reports the state of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Processed   int64  `json:"processed"`
	Failed      int64  `json:"failed"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{
		Running:   w.running,
		Processed: w.processed,
		Failed:    w.failed,
	}
	w.mu.RUnlock()

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
