package driven

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// TaskQueue handles background task queuing and processing.
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing.
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout retrieves the next available task, waiting up to timeout seconds.
	// Returns nil, nil if timeout is reached with no tasks available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack acknowledges successful completion of a task.
	// The task is removed from the queue.
	Ack(ctx context.Context, taskID string) error

	// Nack indicates task processing failed and should be retried.
	// The task is returned to the queue with updated retry count.
	// If max retries exceeded, task is moved to failed state.
	Nack(ctx context.Context, taskID string, reason string) error

	// Fail moves the task straight to failed state without retrying.
	// Used for tasks whose payload can never succeed.
	Fail(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID (for status checking).
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}

// QueueStats contains queue statistics
type QueueStats struct {
	// PendingCount is the number of tasks waiting to be processed
	PendingCount int64 `json:"pending_count"`

	// ProcessingCount is the number of tasks currently being processed
	ProcessingCount int64 `json:"processing_count"`

	// FailedCount is the number of tasks that failed after all retries
	FailedCount int64 `json:"failed_count"`

	// ScheduledCount is the number of tasks waiting for a delayed retry
	ScheduledCount int64 `json:"scheduled_count"`
}
