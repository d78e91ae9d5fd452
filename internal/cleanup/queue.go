// Package cleanup removes corrupt records found by readers. Readers enqueue
// and move on; a worker drains the queue and calls the deleter registered
// for each record kind.
package cleanup

import (
	"context"
	"errors"
	"time"
)

type Kind string

const KindVettingRequest Kind = "vetting_request"

type Task struct {
	Kind       Kind      `json:"kind"`
	ID         string    `json:"id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ErrQueueFull is returned by Enqueue when the buffer has no room. The
// record will be found again by the next reader.
var ErrQueueFull = errors.New("cleanup queue full")

// Queue must never block Enqueue. Dequeue waits up to wait for a task and
// reports ok=false when none arrived.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context, wait time.Duration) (task Task, ok bool, err error)
}

// ChannelQueue is the in-process Queue backed by a buffered channel.
type ChannelQueue struct {
	ch chan Task
}

func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 256
	}
	return &ChannelQueue{ch: make(chan Task, size)}
}

func (q *ChannelQueue) Enqueue(_ context.Context, task Task) error {
	select {
	case q.ch <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *ChannelQueue) Dequeue(ctx context.Context, wait time.Duration) (Task, bool, error) {
	if wait <= 0 {
		select {
		case t := <-q.ch:
			return t, true, nil
		default:
			return Task{}, false, nil
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case t := <-q.ch:
		return t, true, nil
	case <-timer.C:
		return Task{}, false, nil
	case <-ctx.Done():
		return Task{}, false, ctx.Err()
	}
}

func (q *ChannelQueue) Len() int { return len(q.ch) }
