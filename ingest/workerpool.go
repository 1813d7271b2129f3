package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/opencite/litgraph/common"
)

// JobProcessor processes one dequeued Job. Implementations are the per-
// source ingestion logic (fetch, normalize, dedupe, persist).
type JobProcessor interface {
	Process(ctx context.Context, job Job) error
	Timeout(job Job) time.Duration
}

// PoolConfig assigns worker counts to named queues.
type PoolConfig struct {
	Queues map[string]int
}

// DefaultPoolConfig mirrors the ingestion pipeline's default concurrency:
// a single-worker sequential queue for rate-limited sources plus a wider
// pool for sources that can be fetched in parallel.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Queues: map[string]int{
			"sequential": 1,
			"parallel":   5,
		},
	}
}

// Pool runs a set of workers draining named queues concurrently.
type Pool struct {
	workers   []*worker
	queue     *RedisQueue
	processor JobProcessor
	logger    *common.ContextLogger
}

// NewPool builds a Pool of workers across the queues named in cfg.
func NewPool(queue *RedisQueue, processor JobProcessor, cfg PoolConfig) *Pool {
	pool := &Pool{
		queue:     queue,
		processor: processor,
		logger:    common.ServiceLogger("ingest", "workerpool"),
	}
	for queueName, count := range cfg.Queues {
		for i := 0; i < count; i++ {
			pool.workers = append(pool.workers, &worker{
				id:        i,
				queueName: queueName,
				pool:      pool,
				stop:      make(chan struct{}),
			})
		}
	}
	return pool
}

// Start launches every worker's processing loop in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	p.logger.WithField("workers", len(p.workers)).Info("starting ingestion worker pool")
	for _, w := range p.workers {
		go w.run(ctx)
	}
}

// Stop signals every worker to exit after its current job.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.stop)
	}
}

type worker struct {
	id        int
	queueName string
	pool      *Pool
	stop      chan struct{}
}

func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		default:
			if err := w.processNext(ctx); err != nil {
				w.pool.logger.WithField("queue", w.queueName).WithError(err).Warn("worker iteration failed")
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *worker) processNext(ctx context.Context) error {
	job, err := w.pool.queue.Dequeue(ctx, w.queueName, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dequeue: %w", err)
	}
	if job == nil {
		return nil
	}

	timeout := w.pool.processor.Timeout(*job)
	deadline := time.Now().Add(timeout)
	if err := w.pool.queue.MarkProcessing(ctx, job.PaperID, deadline); err != nil {
		_ = w.pool.queue.Enqueue(ctx, *job)
		return fmt.Errorf("mark processing: %w", err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := w.pool.processor.Process(jobCtx, *job); err != nil {
		w.pool.logger.WithField("paperId", job.PaperID).WithError(err).Warn("ingestion job failed")
		return w.pool.queue.FailJob(ctx, *job, false)
	}

	return w.pool.queue.CompleteJob(ctx, job.PaperID)
}
