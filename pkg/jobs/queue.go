// Package jobs runs background work, such as snapshot writes, on a small
// goroutine pool with bounded retries.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxRetries    = 3
	defaultRetryDelay    = time.Second
	defaultMaxRetryDelay = 30 * time.Second
)

// Job is one unit of queued work.
type Job struct {
	ID       string
	Type     string
	Payload  any
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// FailureHook observes a job that ran out of retries.
type FailureHook func(Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	// MaxRetries is the number of re-runs after the first failure. Negative
	// values fall back to the default of 3; zero disables retries.
	MaxRetries int
	// RetryDelay doubles after every failed attempt up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// Coalesce drops a new job while another job of the same Type is still
	// waiting in the buffer. Useful when every job writes the latest state.
	Coalesce  bool
	OnFailure FailureHook
	Logger    *zap.Logger
}

// Stats counts what the queue has done since it was built.
type Stats struct {
	Enqueued  uint64
	Coalesced uint64
	Succeeded uint64
	Retried   uint64
	Failed    uint64
}

// Queue is an in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	waiting map[string]int
	stats   Stats
}

// NewQueue builds a queue that runs handler for every job.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = defaultMaxRetryDelay
		if cfg.MaxRetryDelay < cfg.RetryDelay {
			cfg.MaxRetryDelay = cfg.RetryDelay
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
		waiting: make(map[string]int),
	}
}

// Start begins worker consumption. Calls after the first are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels workers and waits for them to exit. Buffered jobs are
// discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()

	q.mu.Lock()
	for len(q.jobs) > 0 {
		<-q.jobs
	}
	q.waiting = make(map[string]int)
	q.mu.Unlock()
	q.logger.Info("queue stopped")
}

// Enqueue pushes a job onto the queue. A coalesced job is not an error.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue %s not started", q.name)
	}
	ctx := q.ctx
	if q.cfg.Coalesce && job.Attempt == 0 && q.waiting[job.Type] > 0 {
		q.stats.Coalesced++
		q.mu.Unlock()
		q.logger.Debug("job coalesced", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	q.waiting[job.Type]++
	q.stats.Enqueued++
	q.mu.Unlock()

	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		q.release(job)
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

// Stats returns a copy of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *Queue) release(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.waiting[job.Type] > 0 {
		q.waiting[job.Type]--
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.release(job)
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			q.mu.Lock()
			q.stats.Succeeded++
			q.mu.Unlock()
		}
	}
}

func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt && delay < q.cfg.MaxRetryDelay; i++ {
		delay *= 2
	}
	if delay > q.cfg.MaxRetryDelay {
		delay = q.cfg.MaxRetryDelay
	}
	return delay
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt > q.cfg.MaxRetries {
		q.mu.Lock()
		q.stats.Failed++
		q.mu.Unlock()
		q.logger.Error("job exceeded retries", fields...)
		if q.cfg.OnFailure != nil {
			q.cfg.OnFailure(job, err)
		}
		return
	}
	q.mu.Lock()
	q.stats.Retried++
	q.mu.Unlock()
	delay := q.backoff(job.Attempt)
	q.logger.Warn("job failed, retrying", append(fields, zap.Duration("delay", delay))...)

	go func(j Job) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}
