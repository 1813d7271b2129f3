// Package ingest implements the ingestion pipeline: source clients, the
// deduplicator, a Redis-backed job queue and worker pool, and the schedule
// runner that drives recurring ingestion jobs.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job is one queued ingestion unit: fetch and process a single paper (or
// page of results) from a named source.
type Job struct {
	PaperID    string    `json:"paperId"`
	Source     string    `json:"source"`
	QueueName  string    `json:"queueName"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	RetryCount int       `json:"retryCount"`
}

// QueueConfig configures the Redis-backed job queue.
type QueueConfig struct {
	RedisURL  string
	KeyPrefix string // defaults to "ingest:"
}

// RedisQueue is the distributed FIFO queue ingestion jobs flow through.
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// NewRedisQueue dials RedisURL (default redis://localhost:6379/0) and
// verifies connectivity before returning.
func NewRedisQueue(ctx context.Context, cfg QueueConfig) (*RedisQueue, error) {
	url := cfg.RedisURL
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ingest: parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ingest: connecting to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ingest:"
	}
	return &RedisQueue{client: client, prefix: prefix}, nil
}

// Close closes the underlying Redis connection.
func (q *RedisQueue) Close() error { return q.client.Close() }

// Enqueue appends job to its named queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("ingest: marshaling job: %w", err)
	}
	return q.client.RPush(ctx, q.queueKey(job.QueueName), data).Err()
}

// Dequeue blocks up to timeout for the next job on queueName.
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueKey(queueName)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: dequeue: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("ingest: unmarshaling job: %w", err)
	}
	return &job, nil
}

// MarkProcessing records that paperID is in flight until deadline.
func (q *RedisQueue) MarkProcessing(ctx context.Context, paperID string, deadline time.Time) error {
	return q.client.ZAdd(ctx, q.processingKey(), redis.Z{Score: float64(deadline.Unix()), Member: paperID}).Err()
}

// CompleteJob removes paperID from the processing set.
func (q *RedisQueue) CompleteJob(ctx context.Context, paperID string) error {
	return q.client.ZRem(ctx, q.processingKey(), paperID).Err()
}

// FailJob removes paperID from the processing set and, if requeue is set,
// re-enqueues it with an incremented retry count.
func (q *RedisQueue) FailJob(ctx context.Context, job Job, requeue bool) error {
	if err := q.CompleteJob(ctx, job.PaperID); err != nil {
		return err
	}
	if !requeue {
		return nil
	}
	job.RetryCount++
	job.EnqueuedAt = time.Now()
	return q.Enqueue(ctx, job)
}

// QueueDepth returns the number of jobs waiting on queueName.
func (q *RedisQueue) QueueDepth(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, q.queueKey(queueName)).Result()
}

// IsProcessing reports whether paperID is currently in the processing set.
func (q *RedisQueue) IsProcessing(ctx context.Context, paperID string) (bool, error) {
	_, err := q.client.ZScore(ctx, q.processingKey(), paperID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (q *RedisQueue) queueKey(name string) string { return q.prefix + name }
func (q *RedisQueue) processingKey() string       { return q.prefix + "processing" }
