package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven/mocks"
	"github.com/medivault-ai/medivault-core/internal/core/services"
)

// pingFailQueue reports an unhealthy backend
type pingFailQueue struct {
	*mocks.MockTaskQueue
}

func (q *pingFailQueue) Ping(ctx context.Context) error {
	return errors.New("connection failed")
}

// slowQueue blocks on dequeue until the context ends
type slowQueue struct {
	*mocks.MockTaskQueue
}

func (q *slowQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	select {
	case <-time.After(50 * time.Millisecond):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestWorker(queue driven.TaskQueue, store *mocks.MockQueryMetricsStore) *Worker {
	return NewWorker(WorkerConfig{
		TaskQueue: queue,
		Analytics: services.NewAnalyticsService(services.AnalyticsServiceConfig{
			Store: store,
			Cache: mocks.NewMockStatsCache(),
		}),
		Concurrency:    1,
		DequeueTimeout: 1,
	})
}

func logQueryTask(t *testing.T, userID, query string) *domain.Task {
	t.Helper()
	task, err := domain.NewLogQueryTask(&domain.QueryMetrics{
		Query:           query,
		UserID:          userID,
		ConfidenceLevel: domain.ConfidenceHigh,
		NumSources:      2,
		SourceTypes:     map[domain.SourceType]int{domain.SourceTypeDocument: 2},
	})
	if err != nil {
		t.Fatalf("NewLogQueryTask: %v", err)
	}
	return task
}

func TestNewWorker(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:      mocks.NewMockTaskQueue(),
		Logger:         slog.Default(),
		Concurrency:    4,
		DequeueTimeout: 10,
	})

	if w.concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 10 {
		t.Errorf("expected dequeue timeout 10, got %d", w.dequeueTimeout)
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})

	if w.concurrency != DefaultConcurrency {
		t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_Start_RequiresAnalytics(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: mocks.NewMockTaskQueue()})
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error without analytics service")
	}
}

func TestWorker_ProcessTask_LogQuery(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	store := mocks.NewMockQueryMetricsStore()
	w := newTestWorker(queue, store)

	task := logQueryTask(t, "user-1", "aspirin dosage")
	w.processTask(context.Background(), task, slog.Default())

	if got := store.Count("user-1"); got != 1 {
		t.Fatalf("expected 1 stored record, got %d", got)
	}
	if acked := queue.Acked(); len(acked) != 1 || acked[0] != task.ID {
		t.Errorf("expected task to be acked, got %v", acked)
	}
	if h := w.Health(context.Background()); h.Processed != 1 || h.Failed != 0 {
		t.Errorf("unexpected counters: %+v", h)
	}
}

func TestWorker_ProcessTask_UnknownType(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	w := newTestWorker(queue, mocks.NewMockQueryMetricsStore())

	task := domain.NewTask(domain.TaskType("reindex"), "user-1", nil)
	w.processTask(context.Background(), task, slog.Default())

	if nacked := queue.Nacked(); len(nacked) != 1 {
		t.Errorf("expected 1 nack for unknown type, got %d", len(nacked))
	}
	if len(queue.Acked()) != 0 {
		t.Error("unknown task must not be acked")
	}
}

func TestWorker_ProcessTask_MissingPayload(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	store := mocks.NewMockQueryMetricsStore()
	w := newTestWorker(queue, store)

	task := domain.NewTask(domain.TaskTypeLogQuery, "user-1", nil)
	w.processTask(context.Background(), task, slog.Default())

	if failed := queue.Failed(); len(failed) != 1 || failed[0] != task.ID {
		t.Errorf("expected missing payload to fail without retry, got %v", failed)
	}
	if len(queue.Nacked()) != 0 {
		t.Error("missing payload must not be retried")
	}
	if store.Count("user-1") != 0 {
		t.Error("nothing should be stored")
	}
}

func TestWorker_ProcessTask_StoreError(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	store := mocks.NewMockQueryMetricsStore()
	store.Err = errors.New("database is down")
	w := newTestWorker(queue, store)

	w.processTask(context.Background(), logQueryTask(t, "user-1", "q"), slog.Default())

	if nacked := queue.Nacked(); len(nacked) != 1 {
		t.Errorf("expected 1 nack, got %d", len(nacked))
	}
	if h := w.Health(context.Background()); h.Failed != 1 {
		t.Errorf("expected 1 failed task, got %d", h.Failed)
	}
}

func TestWorker_ProcessTask_InvalidRecord(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	store := mocks.NewMockQueryMetricsStore()
	w := newTestWorker(queue, store)

	task := logQueryTask(t, "user-1", "   ")
	if err := queue.Enqueue(context.Background(), task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	w.processTask(context.Background(), task, slog.Default())

	if failed := queue.Failed(); len(failed) != 1 || failed[0] != task.ID {
		t.Errorf("expected blank query to fail without retry, got %v", failed)
	}
	if len(queue.Nacked()) != 0 {
		t.Error("blank query must not be retried")
	}
	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed status, got %s", task.Status)
	}
	if h := w.Health(context.Background()); h.Failed != 1 {
		t.Errorf("expected 1 failed task, got %d", h.Failed)
	}
}

func TestWorker_DrainsQueue(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	store := mocks.NewMockQueryMetricsStore()
	w := newTestWorker(queue, store)

	ctx := context.Background()
	for _, q := range []string{"q1", "q2", "q3"} {
		if err := queue.Enqueue(ctx, logQueryTask(t, "user-1", q)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for store.Count("user-1") < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if got := store.Count("user-1"); got != 3 {
		t.Fatalf("expected 3 stored records, got %d", got)
	}
	if got := len(queue.Acked()); got != 3 {
		t.Errorf("expected 3 acks, got %d", got)
	}
}

func TestWorker_StartStop(t *testing.T) {
	w := newTestWorker(&slowQueue{mocks.NewMockTaskQueue()}, mocks.NewMockQueryMetricsStore())
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	if !w.Health(ctx).Running {
		t.Error("expected worker to be running")
	}

	// Start again should be no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()
	if w.Health(ctx).Running {
		t.Error("expected worker to be stopped")
	}

	// Stop again should be no-op
	w.Stop()
}

func TestWorker_ContextCancellation(t *testing.T) {
	w := newTestWorker(&slowQueue{mocks.NewMockTaskQueue()}, mocks.NewMockQueryMetricsStore())

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("worker did not stop after context cancellation")
		w.Stop()
	}
}

func TestWorker_Health(t *testing.T) {
	w := newTestWorker(mocks.NewMockTaskQueue(), mocks.NewMockQueryMetricsStore())

	health := w.Health(context.Background())
	if health.Running {
		t.Error("expected not running")
	}
	if !health.QueueHealth {
		t.Error("expected queue to be healthy")
	}
}

func TestWorker_Health_QueueError(t *testing.T) {
	w := newTestWorker(&pingFailQueue{mocks.NewMockTaskQueue()}, mocks.NewMockQueryMetricsStore())

	health := w.Health(context.Background())
	if health.QueueHealth {
		t.Error("expected queue to be unhealthy")
	}
	if health.Error != "connection failed" {
		t.Errorf("expected error message, got %q", health.Error)
	}
}
