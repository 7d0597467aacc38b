package autosave

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/pkg/jobs"
)

type countingSaver struct {
	calls atomic.Int32
	err   error
}

func (s *countingSaver) save(ctx context.Context) error {
	s.calls.Add(1)
	return s.err
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func TestScheduleCollapsesBursts(t *testing.T) {
	saver := &countingSaver{}
	d := New(30*time.Millisecond, saver.save)

	for i := 0; i < 10; i++ {
		d.Schedule()
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return saver.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), saver.calls.Load())
	assert.False(t, d.Pending())
}

func TestFlushSavesImmediatelyAndCancelsTimer(t *testing.T) {
	saver := &countingSaver{}
	d := New(time.Hour, saver.save)

	d.Schedule()
	require.NoError(t, d.Flush(context.Background()))
	assert.Equal(t, int32(1), saver.calls.Load())
	assert.False(t, d.Pending())

	require.NoError(t, d.Flush(context.Background()))
	assert.Equal(t, int32(2), saver.calls.Load(), "flush saves even when nothing is pending")
}

func TestFlushReturnsSaveError(t *testing.T) {
	saver := &countingSaver{err: errors.New("disk full")}
	d := New(time.Hour, saver.save)
	assert.EqualError(t, d.Flush(context.Background()), "disk full")
}

func TestStopDropsPendingSave(t *testing.T) {
	saver := &countingSaver{}
	d := New(10*time.Millisecond, saver.save)

	d.Schedule()
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), saver.calls.Load())
}

func TestExpiredTimerUsesQueue(t *testing.T) {
	saver := &countingSaver{}
	queue := &recordingQueue{}
	d := New(5*time.Millisecond, saver.save, WithQueue(queue))

	d.Schedule()
	assert.Eventually(t, func() bool { return queue.count() == 1 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, int32(0), saver.calls.Load())

	require.NoError(t, d.Handler()(context.Background(), queue.jobs[0]))
	assert.Equal(t, int32(1), saver.calls.Load())
	assert.Error(t, d.Handler()(context.Background(), jobs.Job{Type: "other"}))
}

func TestQueueFailureFallsBackToInlineSave(t *testing.T) {
	saver := &countingSaver{}
	d := New(5*time.Millisecond, saver.save, WithQueue(&recordingQueue{err: errors.New("stopped")}))

	d.Schedule()
	assert.Eventually(t, func() bool { return saver.calls.Load() == 1 }, time.Second, 2*time.Millisecond)
}

func TestRealQueueRunsSave(t *testing.T) {
	saver := &countingSaver{}
	var d *Debouncer
	queue := jobs.NewQueue("autosave", func(ctx context.Context, job jobs.Job) error {
		return d.Handler()(ctx, job)
	}, jobs.QueueConfig{})
	d = New(5*time.Millisecond, saver.save, WithQueue(queue))
	queue.Start(context.Background())
	defer queue.Stop()

	d.Schedule()
	assert.Eventually(t, func() bool { return saver.calls.Load() == 1 }, time.Second, 2*time.Millisecond)
}
