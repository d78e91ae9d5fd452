package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeleter struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *recordingDeleter) Purge(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
	return d.err
}

func (d *recordingDeleter) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ids...)
}

func TestChannelQueueNeverBlocks(t *testing.T) {
	q := NewChannelQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "a"}))
	assert.ErrorIs(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "b"}), ErrQueueFull)

	task, ok, err := q.Dequeue(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", task.ID)

	_, ok, err = q.Dequeue(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorkerRunOnce(t *testing.T) {
	q := NewChannelQueue(8)
	sched := NewScheduler(q, nil)
	deleter := &recordingDeleter{}

	w, err := NewWorker(q)
	require.NoError(t, err)
	w.Handle(KindVettingRequest, deleter)

	ctx := context.Background()
	sched.Schedule(ctx, KindVettingRequest, "one")
	sched.Schedule(ctx, KindVettingRequest, "two")
	sched.Schedule(ctx, Kind("unknown"), "three")
	sched.Close()

	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"one", "two"}, deleter.seen())
}

func TestWorkerSwallowsDeleteFailures(t *testing.T) {
	q := NewChannelQueue(8)
	deleter := &recordingDeleter{err: errors.New("db down")}
	w, err := NewWorker(q)
	require.NoError(t, err)
	w.Handle(KindVettingRequest, deleter)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "x"}))
	require.NoError(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "y"}))

	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	q := NewChannelQueue(8)
	deleter := &recordingDeleter{}
	w, err := NewWorker(q, WithPollWait(5*time.Millisecond))
	require.NoError(t, err)
	w.Handle(KindVettingRequest, DeleterFunc(deleter.Purge))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.NoError(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "late"}))
	assert.Eventually(t, func() bool { return len(deleter.seen()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNilSchedulerIsNoop(t *testing.T) {
	var s *Scheduler
	s.Schedule(context.Background(), KindVettingRequest, "x")
}

type blockingQueue struct {
	release chan struct{}
	pushed  chan Task
}

func (q *blockingQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case <-q.release:
		q.pushed <- task
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *blockingQueue) Dequeue(context.Context, time.Duration) (Task, bool, error) {
	return Task{}, false, nil
}

func TestScheduleDoesNotWaitForSlowQueue(t *testing.T) {
	q := &blockingQueue{release: make(chan struct{}), pushed: make(chan Task, 4)}
	sched := NewScheduler(q, nil, WithEnqueueTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	sched.Schedule(ctx, KindVettingRequest, "slow")
	sched.Schedule(ctx, KindVettingRequest, "slower")
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	close(q.release)
	sched.Close()
	require.Len(t, q.pushed, 2)
	assert.Equal(t, "slow", (<-q.pushed).ID)
}

func TestScheduleDropsWhenBufferFull(t *testing.T) {
	q := &blockingQueue{release: make(chan struct{}), pushed: make(chan Task, 8)}
	sched := NewScheduler(q, nil, WithPendingBuffer(1), WithEnqueueTimeout(20*time.Millisecond))

	start := time.Now()
	for i := 0; i < 5; i++ {
		sched.Schedule(context.Background(), KindVettingRequest, "x")
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	sched.Close()
	assert.Empty(t, q.pushed)
}

func TestScheduleAfterCloseIsNoop(t *testing.T) {
	q := NewChannelQueue(4)
	sched := NewScheduler(q, nil)
	sched.Close()
	sched.Schedule(context.Background(), KindVettingRequest, "late")

	_, ok, err := q.Dequeue(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
