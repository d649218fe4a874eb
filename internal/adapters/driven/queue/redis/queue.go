package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

const (
	taskStream     = "medivault:tasks"
	taskGroup      = "medivault:workers"
	scheduledTasks = "medivault:scheduled"
	failedTasks    = "medivault:failed"

	taskKeyPrefix = "medivault:task:"

	consumerPrefix = "worker-"

	// How long a delivered message may stay unacknowledged before another
	// consumer claims it
	claimTimeout = 5 * time.Minute

	taskTTL = 24 * time.Hour
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue using Redis Streams.
// Task bodies live in plain keys; the stream only carries ids. Delayed
// retries wait in a sorted set scored by their due time.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a new Redis-backed task queue.
// The consumerName should be unique per worker instance (e.g., hostname + PID).
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	q := &Queue{
		client:       client,
		consumerName: consumerName,
	}

	err := q.client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err()
	if err != nil && !isGroupExistsError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

func taskKey(id string) string { return taskKeyPrefix + id }

func msgKey(id string) string { return taskKeyPrefix + id + ":msg" }

func streamValues(task *domain.Task) map[string]interface{} {
	return map[string]interface{}{
		"task_id": task.ID,
		"type":    string(task.Type),
		"user_id": task.UserID,
	}
}

// Enqueue adds a task to the queue for processing.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)

	if task.ScheduledFor.After(time.Now()) {
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	} else {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: taskStream, Values: streamValues(task)})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// DequeueWithTimeout retrieves the next available task, waiting up to timeout seconds.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	// Best effort: a failure here only delays retries
	_ = q.promoteScheduledTasks(ctx)

	if task, err := q.claimAbandonedTask(ctx); err == nil && task != nil {
		return task, nil
	}

	block := time.Duration(timeout) * time.Second
	if timeout <= 0 {
		block = time.Second
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.take(ctx, streams[0].Messages[0])
}

// take loads the task behind a stream message and marks it processing.
// Messages without a readable task are dropped.
func (q *Queue) take(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, ok := msg.Values["task_id"].(string)
	if !ok {
		q.drop(ctx, msg.ID)
		return nil, nil
	}

	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			q.drop(ctx, msg.ID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task data: %w", err)
	}

	task.MarkProcessing()
	data, _ := json.Marshal(task)

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.Set(ctx, msgKey(task.ID), msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to mark task processing: %w", err)
	}

	return task, nil
}

func (q *Queue) drop(ctx context.Context, msgID string) {
	q.client.XAck(ctx, taskStream, taskGroup, msgID)
	q.client.XDel(ctx, taskStream, msgID)
}

// Ack acknowledges successful completion of a task.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	msgID, err := q.client.Get(ctx, msgKey(taskID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get message ID: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	// Completed tasks carry nothing worth keeping
	pipe.Del(ctx, taskKey(taskID), msgKey(taskID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack task: %w", err)
	}
	return nil
}

// Nack indicates task processing failed and should be retried.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	return q.settle(ctx, taskID, reason, true)
}

// Fail moves a task to the failed set without retrying.
func (q *Queue) Fail(ctx context.Context, taskID string, reason string) error {
	return q.settle(ctx, taskID, reason, false)
}

// settle removes a task from the stream and either reschedules it or
// records it as failed.
func (q *Queue) settle(ctx context.Context, taskID string, reason string, retry bool) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	msgID, _ := q.client.Get(ctx, msgKey(taskID)).Result()

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}

	if retry && task.CanRetry() {
		task.Retry(reason)
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	} else {
		task.MarkFailed(reason)
		pipe.SAdd(ctx, failedTasks, task.ID)
	}

	data, _ := json.Marshal(task)
	pipe.Set(ctx, taskKey(taskID), data, taskTTL)
	pipe.Del(ctx, msgKey(taskID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to settle task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKey(taskID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Stats returns queue statistics.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	info, err := q.client.XInfoStream(ctx, taskStream).Result()
	switch {
	case err == nil:
		stats.PendingCount = info.Length
	case !isStreamNotExistsError(err):
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	groups, err := q.client.XInfoGroups(ctx, taskStream).Result()
	if err == nil {
		for _, g := range groups {
			if g.Name == taskGroup {
				stats.ProcessingCount = g.Pending
				stats.PendingCount -= g.Pending
				break
			}
		}
	}
	if stats.PendingCount < 0 {
		stats.PendingCount = 0
	}

	if stats.ScheduledCount, err = q.client.ZCard(ctx, scheduledTasks).Result(); err != nil {
		return nil, fmt.Errorf("failed to get scheduled count: %w", err)
	}
	if stats.FailedCount, err = q.client.SCard(ctx, failedTasks).Result(); err != nil {
		return nil, fmt.Errorf("failed to get failed count: %w", err)
	}

	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources.
func (q *Queue) Close() error {
	// The client is shared with the stats cache
	return nil
}

// promoteScheduledTasks moves due scheduled tasks onto the stream.
func (q *Queue) promoteScheduledTasks(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, scheduledTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", time.Now().Unix()),
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	pipe := q.client.TxPipeline()
	for _, id := range due {
		task, err := q.GetTask(ctx, id)
		if err == nil {
			pipe.XAdd(ctx, &redis.XAddArgs{Stream: taskStream, Values: streamValues(task)})
		}
		pipe.ZRem(ctx, scheduledTasks, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// claimAbandonedTask takes over a message another consumer never acknowledged.
func (q *Queue) claimAbandonedTask(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: taskStream,
		Group:  taskGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   taskStream,
			Group:    taskGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		task, err := q.take(ctx, claimed[0])
		if err != nil || task == nil {
			continue
		}
		return task, nil
	}

	return nil, nil
}

func isGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func isStreamNotExistsError(err error) bool {
	return err != nil && (err.Error() == "ERR no such key" ||
		strings.Contains(err.Error(), "requires the key to exist"))
}
