package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeLogQuery persists one QueryMetrics record
	TaskTypeLogQuery TaskType = "log_query"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// UserID is the caller the task was created for
	UserID string `json:"user_id"`

	// Payload contains task-specific data
	// For log_query: {"metrics": "<QueryMetrics JSON>"}
	Payload map[string]string `json:"payload"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (for delayed retries)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, userID string, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           uuid.NewString(),
		Type:         taskType,
		UserID:       userID,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewLogQueryTask creates a task that stores the given metrics record
func NewLogQueryTask(m *QueryMetrics) (*Task, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}
	return NewTask(TaskTypeLogQuery, m.UserID, map[string]string{
		"metrics": string(data),
	}), nil
}

// Metrics decodes the QueryMetrics carried by a log_query task
func (t *Task) Metrics() (*QueryMetrics, error) {
	raw := ""
	if t.Payload != nil {
		raw = t.Payload["metrics"]
	}
	if raw == "" {
		return nil, fmt.Errorf("task %s has no metrics payload: %w", t.ID, ErrInvalidInput)
	}
	var m QueryMetrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode metrics: %v: %w", err, ErrInvalidInput)
	}
	return &m, nil
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && time.Now().After(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	t.Error = err
}

// Retry resets the task for retry with exponential backoff
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	// 1s, 2s, 4s, ... capped at 5 minutes
	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}

// TaskResult represents the outcome of processing a task
type TaskResult struct {
	TaskID   string        `json:"task_id"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
