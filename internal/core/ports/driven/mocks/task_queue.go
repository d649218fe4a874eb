package mocks

import (
	"context"
	"sync"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
)

// MockTaskQueue is a mock implementation of TaskQueue for testing
type MockTaskQueue struct {
	mu      sync.Mutex
	pending []*domain.Task
	tasks   map[string]*domain.Task
	acked   []string
	nacked  []string
	failed  []string

	// EnqueueErr is returned by Enqueue when set
	EnqueueErr error
}

// NewMockTaskQueue creates a new MockTaskQueue
func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{
		tasks: make(map[string]*domain.Task),
	}
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	m.pending = append(m.pending, task)
	m.tasks[task.ID] = task
	return nil
}

func (m *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, nil
	}
	task := m.pending[0]
	m.pending = m.pending[1:]
	task.MarkProcessing()
	return task, nil
}

func (m *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task, ok := m.tasks[taskID]; ok {
		task.MarkCompleted()
	}
	m.acked = append(m.acked, taskID)
	return nil
}

func (m *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task, ok := m.tasks[taskID]; ok {
		task.MarkFailed(reason)
	}
	m.nacked = append(m.nacked, taskID)
	return nil
}

func (m *MockTaskQueue) Fail(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task, ok := m.tasks[taskID]; ok {
		task.MarkFailed(reason)
	}
	m.failed = append(m.failed, taskID)
	return nil
}

func (m *MockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (m *MockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{PendingCount: int64(len(m.pending))}, nil
}

func (m *MockTaskQueue) Ping(ctx context.Context) error { return nil }

func (m *MockTaskQueue) Close() error { return nil }

// Helper methods for testing

// Pending returns the tasks not yet dequeued
func (m *MockTaskQueue) Pending() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, len(m.pending))
	copy(out, m.pending)
	return out
}

// Acked returns the ids of acknowledged tasks
func (m *MockTaskQueue) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

// Nacked returns the ids of rejected tasks
func (m *MockTaskQueue) Nacked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.nacked...)
}

// Failed returns the ids of tasks failed without retry
func (m *MockTaskQueue) Failed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.failed...)
}
