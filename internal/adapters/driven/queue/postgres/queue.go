package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// Ensure Queue implements TaskQueue
var _ driven.TaskQueue = (*Queue)(nil)

const taskColumns = `id, type, user_id, payload, status, attempts, max_attempts, error,
	created_at, updated_at, started_at, completed_at, scheduled_for`

// pollInterval is how often an empty queue is re-checked while waiting
const pollInterval = 500 * time.Millisecond

// Queue implements TaskQueue using PostgreSQL with SKIP LOCKED.
// This is the fallback queue when Redis is not configured.
type Queue struct {
	db *sql.DB
}

// NewQueue creates a new PostgreSQL-backed task queue.
// Assumes the tasks table exists (see the postgres schema).
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue adds a task to the queue
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO tasks (
			id, type, user_id, payload, status, attempts, max_attempts,
			error, created_at, updated_at, scheduled_for
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = q.db.ExecContext(ctx, query,
		task.ID,
		task.Type,
		task.UserID,
		payload,
		task.Status,
		task.Attempts,
		task.MaxAttempts,
		task.Error,
		task.CreatedAt,
		task.UpdatedAt,
		task.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// DequeueWithTimeout retrieves the next ready task, polling up to timeout seconds
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)

	for {
		task, err := q.dequeue(ctx)
		if err != nil || task != nil {
			return task, err
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(pollInterval):
		}
	}
}

func (q *Queue) dequeue(ctx context.Context) (*domain.Task, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectQuery := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1
		  AND scheduled_for <= NOW()
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	task, err := scanTask(tx.QueryRowContext(ctx, selectQuery, domain.TaskStatusPending))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	task.MarkProcessing()

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, started_at = $2, updated_at = $3, attempts = $4
		WHERE id = $5
	`, task.Status, task.StartedAt, task.UpdatedAt, task.Attempts, task.ID)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return task, nil
}

// Ack removes a completed task
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Nack marks a task as failed, scheduling a retry while attempts remain
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	return q.settle(ctx, taskID, reason, true)
}

// Fail marks a task failed without retrying
func (q *Queue) Fail(ctx context.Context, taskID string, reason string) error {
	return q.settle(ctx, taskID, reason, false)
}

func (q *Queue) settle(ctx context.Context, taskID string, reason string, retry bool) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}

	if retry && task.CanRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}

	_, err = q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, error = $2, updated_at = $3, scheduled_for = $4
		WHERE id = $5
	`, task.Status, task.Error, task.UpdatedAt, task.ScheduledFor, taskID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(q.db.QueryRowContext(ctx, query, taskID))
}

// Stats returns queue statistics
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending' AND scheduled_for <= NOW()),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending' AND scheduled_for > NOW())
		FROM tasks
	`

	var stats driven.QueueStats
	err := q.db.QueryRowContext(ctx, query).Scan(
		&stats.PendingCount,
		&stats.ProcessingCount,
		&stats.FailedCount,
		&stats.ScheduledCount,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

// Ping checks if the database is reachable
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op; the pool is shared with the metrics store
func (q *Queue) Close() error {
	return nil
}

func scanTask(row *sql.Row) (*domain.Task, error) {
	var (
		task        domain.Task
		payload     []byte
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Type,
		&task.UserID,
		&payload,
		&task.Status,
		&task.Attempts,
		&task.MaxAttempts,
		&task.Error,
		&task.CreatedAt,
		&task.UpdatedAt,
		&startedAt,
		&completedAt,
		&task.ScheduledFor,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}
