package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		handled.Add(1)
		return nil
	}, QueueConfig{})

	assert.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	require.NoError(t, q.Enqueue(Job{ID: "2"}))

	assert.Eventually(t, func() bool { return handled.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var attempts atomic.Int32
	failed := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnFailure:  func(job Job, err error) { failed <- job },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "save"}))

	select {
	case job := <-failed:
		assert.Equal(t, "save", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("failure hook not called")
	}
	assert.Equal(t, int32(3), attempts.Load())
	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Retried)
	assert.Equal(t, uint64(1), stats.Failed)
}

func TestQueueZeroRetries(t *testing.T) {
	failed := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return errors.New("boom")
	}, QueueConfig{OnFailure: func(Job, error) { failed <- struct{}{} }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "once"}))
	select {
	case <-failed:
	case <-time.After(time.Second):
		t.Fatal("failure hook not called")
	}
}

func TestQueueCoalescesWaitingJobsOfSameType(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	var handled atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		handled.Add(1)
		return nil
	}, QueueConfig{Coalesce: true})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "autosave"}))
	<-started
	for _, id := range []string{"2", "3", "4"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "autosave"}))
	}
	require.NoError(t, q.Enqueue(Job{ID: "5", Type: "export"}))
	close(release)

	assert.Eventually(t, func() bool { return handled.Load() == 3 }, time.Second, 5*time.Millisecond)
	stats := q.Stats()
	assert.Equal(t, uint64(3), stats.Enqueued)
	assert.Equal(t, uint64(2), stats.Coalesced)
	assert.Equal(t, uint64(3), stats.Succeeded)
}

func TestQueueBackoffDoublesUpToCap(t *testing.T) {
	q := NewQueue("test", nil, QueueConfig{RetryDelay: 10 * time.Millisecond, MaxRetryDelay: 35 * time.Millisecond})
	assert.Equal(t, 10*time.Millisecond, q.backoff(1))
	assert.Equal(t, 20*time.Millisecond, q.backoff(2))
	assert.Equal(t, 35*time.Millisecond, q.backoff(3))
	assert.Equal(t, 35*time.Millisecond, q.backoff(8))
}
