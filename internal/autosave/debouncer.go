// Package autosave collapses bursts of workspace mutations into a single
// persisted write.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/rubric-grader-api/pkg/jobs"
)

// DefaultDelay is the quiet period before a scheduled save runs.
const DefaultDelay = 450 * time.Millisecond

const jobType = "autosave"

// SaveFunc persists the current workspace.
type SaveFunc func(ctx context.Context) error

// Enqueuer accepts save jobs for asynchronous execution.
type Enqueuer interface {
	Enqueue(job jobs.Job) error
}

// Debouncer schedules a save after a quiet period. Every Schedule call
// cancels the pending timer and arms a new one. Expired timers hand the save
// to the queue; without a queue the save runs on the timer goroutine.
type Debouncer struct {
	delay  time.Duration
	save   SaveFunc
	queue  Enqueuer
	logger *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	gen     uint64
	saveMu  sync.Mutex
}

// Option customises a Debouncer.
type Option func(*Debouncer)

// WithQueue routes expired saves through queue.
func WithQueue(queue Enqueuer) Option {
	return func(d *Debouncer) { d.queue = queue }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Debouncer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New builds a Debouncer around save.
func New(delay time.Duration, save SaveFunc, opts ...Option) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	d := &Debouncer{delay: delay, save: save, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handler returns the queue handler that performs queued saves.
func (d *Debouncer) Handler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		if job.Type != jobType {
			return fmt.Errorf("autosave: unexpected job type %q", job.Type)
		}
		return d.run(ctx)
	}
}

// Schedule (re)arms the save timer.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a save is scheduled but has not started.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush cancels any scheduled save and persists immediately. It always
// saves, whether or not a save was pending.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.cancel()
	return d.run(ctx)
}

// Stop cancels the scheduled save without persisting.
func (d *Debouncer) Stop() {
	d.cancel()
}

func (d *Debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	if d.queue != nil {
		err := d.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType})
		if err == nil {
			return
		}
		d.logger.Warn("autosave enqueue failed, saving inline", zap.Error(err))
	}
	if err := d.run(context.Background()); err != nil {
		d.logger.Error("autosave failed", zap.Error(err))
	}
}

// run serialises saves so a flush never interleaves with a queued save.
func (d *Debouncer) run(ctx context.Context) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()
	return d.save(ctx)
}
